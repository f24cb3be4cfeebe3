package domain

// MaxProductNameLen matches the length bound of the product.name column.
const MaxProductNameLen = 50

type Product struct {
	ID        int64
	Name      string
	UnitPrice Money
}
