package repository

import (
	"context"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// ProductRepository exposes the catalog store plus the atomic stock
// reservation primitives. Reserve and Release are the only mutators of the
// stock counters; both are single conditional updates, never read-then-write,
// and both append a stock ledger entry and invalidate the cached stock
// snapshot for the product.
type ProductRepository interface {
	Find(ctx context.Context, id string) (*model.Product, error)

	// Reserve holds qty units: increments reserved_qty only while
	// stock_qty - reserved_qty >= qty. Returns ErrInsufficientStock when the
	// condition fails and ErrInvalidQuantity for qty <= 0.
	Reserve(ctx context.Context, id string, qty int64, reference string) error

	// Release returns qty held units. Releasing more than is currently held
	// is accepted as a correction but logged as anomalous.
	Release(ctx context.Context, id string, qty int64, reference, note string) error

	// CommitReservation converts a hold into a hard stock deduction on
	// payment confirmation.
	CommitReservation(ctx context.Context, id string, qty int64, reference string) error
}
