package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError is a client-caused failure: correcting the input makes it
// recoverable, it is never retried automatically.
type ValidationError struct {
	Reason string
	// MissingIDs is populated only for unknown-product failures and lists
	// every offending id, sorted ascending.
	MissingIDs []int64
}

func (e ValidationError) Error() string {
	if len(e.MissingIDs) > 0 {
		return fmt.Sprintf("%s: %v", e.Reason, e.MissingIDs)
	}
	return e.Reason
}

// StorageError is an infrastructure-caused failure. It carries the
// identifiers involved for operational diagnosis without leaking store
// internals into client responses.
type StorageError struct {
	Op            string
	SupermarketID string
	BuyerID       uuid.UUID
	ProductIDs    []int64
	Err           error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error {
	return e.Err
}
