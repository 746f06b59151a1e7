package repository

import "context"

// Factory describes access to the domain repositories and unit-of-work
// creation. Begin returns the session handle together with a context the
// session is bound into; all writes of the workflow must use that context.
type Factory interface {
	Begin(ctx context.Context) (UnitOfWork, context.Context, error)

	Carts() CartRepository
	Products() ProductRepository
	Drafts() DraftRepository
	Orders() OrderRepository
	Payments() PaymentRepository
	Shipments() ShipmentRepository
	Coupons() CouponRepository
	Jobs() ScheduledJobRepository
}
