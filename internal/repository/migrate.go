package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS product (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name TEXT NOT NULL UNIQUE CHECK (length(name) BETWEEN 1 AND 50),
	unit_price NUMERIC(12, 2) NOT NULL CHECK (unit_price > 0)
);

CREATE TABLE IF NOT EXISTS purchase (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	supermarket_id TEXT NOT NULL,
	buyer_id UUID NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	total_amount NUMERIC(12, 2) NOT NULL CHECK (total_amount > 0)
);

CREATE INDEX IF NOT EXISTS ix_purchase_supermarket_id ON purchase (supermarket_id);
CREATE INDEX IF NOT EXISTS ix_purchase_buyer_id ON purchase (buyer_id);

CREATE TABLE IF NOT EXISTS purchase_product (
	purchase_id BIGINT NOT NULL REFERENCES purchase (id),
	product_id BIGINT NOT NULL REFERENCES product (id),
	PRIMARY KEY (purchase_id, product_id)
);

CREATE INDEX IF NOT EXISTS ix_purchase_product_product_id ON purchase_product (product_id);
`

// Migrate applies the schema on startup.
// TODO: replace with versioned migrations once the schema starts changing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("pool.Exec schema: %w", err)
	}

	return nil
}
