package repository

import (
	"context"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// PaymentRepository persists payment intents. Status mutators are conditional
// on the current status; a false result is the idempotency signal that a
// duplicate gateway notification already applied.
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Payment, error)
	GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*model.Payment, error)

	// MarkSuccess applies only from initiated status.
	MarkSuccess(ctx context.Context, id, gatewayPaymentID string) (bool, error)

	// MarkFailed applies only from initiated status.
	MarkFailed(ctx context.Context, id string) (bool, error)

	// MarkRefunded adds amount to refunded_amount and sets refunded or
	// partially_refunded. Applies only from success/partially_refunded and at
	// most once per refund transaction id.
	MarkRefunded(ctx context.Context, id, refundID string, amount float64, partial bool) (bool, error)
}
