package repository

import (
	"context"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// OrderRepository persists orders. Every state mutator is a conditional
// update gated on the current payment/order status, so racing writers
// (webhook processor vs auto-cancel) cannot clobber each other: the boolean
// result reports whether this caller won.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetByNumber(ctx context.Context, number string) (*model.Order, error)

	// CancelIfUnpaid cancels only while payment is pending and status is
	// created. False means payment won the race and the order is untouched.
	CancelIfUnpaid(ctx context.Context, id string) (bool, error)

	// ConfirmPaid marks the order paid and confirmed, attaching the payment
	// snapshot. Applies only from created/pending state.
	ConfirmPaid(ctx context.Context, id string, snapshot *model.PaymentView) (bool, error)

	// MarkFailed terminally fails an unpaid order.
	MarkFailed(ctx context.Context, id string, snapshot *model.PaymentView) (bool, error)

	// MarkRefunded records a full or partial refund on a paid order.
	MarkRefunded(ctx context.Context, id string, snapshot *model.PaymentView, partial bool) (bool, error)

	// SetItemStatuses updates the embedded item statuses for the given ids.
	SetItemStatuses(ctx context.Context, orderID string, itemIDs []string, status model.ItemStatus) error

	// SetStatus promotes the fulfillment status from any of the listed
	// states.
	SetStatus(ctx context.Context, orderID string, from []model.OrderStatus, to model.OrderStatus) (bool, error)
}
