package model

import "time"

// PaymentRecordStatus describes a payment intent's lifecycle. Transitions are
// monotonic toward a terminal state once success or refunded is reached.
type PaymentRecordStatus string

const (
	PaymentRecordInitiated         PaymentRecordStatus = "initiated"
	PaymentRecordSuccess           PaymentRecordStatus = "success"
	PaymentRecordFailed            PaymentRecordStatus = "failed"
	PaymentRecordRefunded          PaymentRecordStatus = "refunded"
	PaymentRecordPartiallyRefunded PaymentRecordStatus = "partially_refunded"
)

// Payment is one record per attempted payment intent.
type Payment struct {
	ID               string              `bson:"_id" json:"id"`
	OrderID          string              `bson:"order_id" json:"orderId"`
	Gateway          string              `bson:"gateway" json:"gateway"`
	GatewayOrderID   string              `bson:"gateway_order_id" json:"gatewayOrderId"`
	GatewayPaymentID string              `bson:"gateway_payment_id,omitempty" json:"gatewayPaymentId,omitempty"`
	Amount           float64             `bson:"amount" json:"amount"`
	Currency         string              `bson:"currency" json:"currency"`
	Status           PaymentRecordStatus `bson:"status" json:"status"`
	RefundedAmount   float64             `bson:"refunded_amount" json:"refundedAmount"`
	RefundIDs        []string            `bson:"refund_ids,omitempty" json:"refundIds,omitempty"`
	CreatedAt        time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updated_at" json:"updatedAt"`
}

// Snapshot converts the payment into an order-embedded view.
func (p *Payment) Snapshot(at time.Time) *PaymentView {
	return &PaymentView{
		Gateway:          p.Gateway,
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: p.GatewayPaymentID,
		Status:           string(p.Status),
		Amount:           p.Amount,
		RefundedAmount:   p.RefundedAmount,
		At:               at,
	}
}

// PaymentEvent is an inbound gateway notification. Gateways retry deliveries,
// so consumers must treat duplicates as no-ops.
type PaymentEvent struct {
	Type             string  `json:"type"`
	Gateway          string  `json:"gateway"`
	GatewayOrderID   string  `json:"gatewayOrderId"`
	GatewayPaymentID string  `json:"gatewayPaymentId"`
	GatewayRefundID  string  `json:"gatewayRefundId,omitempty"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
}

// Recognized payment event types. Unrecognized types are logged and ignored.
const (
	PaymentEventCaptured = "payment.captured"
	PaymentEventFailed   = "payment.failed"
	PaymentEventRefunded = "payment.refunded"
)
