package order

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("order not found")

// Repository persists orders
type Repository interface {
	Get(ctx context.Context, id int64) (*Order, error)
	Save(ctx context.Context, o *Order) error
	// FindPaidByCartHash returns the most recent paid order other than excludeID for the
	// customer and cart hash, created at or after since. It returns ErrNotFound when there is none.
	FindPaidByCartHash(ctx context.Context, customerID, cartHash string, since time.Time, excludeID int64) (*Order, error)
}
