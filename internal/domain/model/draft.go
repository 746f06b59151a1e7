package model

import "time"

// DraftStatus describes checkout draft lifecycle. Status only moves forward:
// draft -> pending -> paid, or draft/pending -> expired.
type DraftStatus string

const (
	DraftStatusDraft   DraftStatus = "draft"
	DraftStatusPending DraftStatus = "pending"
	DraftStatusPaid    DraftStatus = "paid"
	DraftStatusExpired DraftStatus = "expired"
)

// Terminal reports whether the draft can no longer change.
func (s DraftStatus) Terminal() bool {
	return s == DraftStatusPaid || s == DraftStatusExpired
}

// DraftLine is a cart line frozen into the draft snapshot.
type DraftLine struct {
	ProductID string  `bson:"product_id" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Quantity  int64   `bson:"quantity" json:"quantity"`
	UnitPrice float64 `bson:"unit_price" json:"unitPrice"`
}

// CheckoutDraft is the ephemeral record tracking a cart's transition into an order.
type CheckoutDraft struct {
	ID              string        `bson:"_id" json:"id"`
	UserID          string        `bson:"user_id" json:"userId"`
	CartID          string        `bson:"cart_id" json:"cartId"`
	Lines           []DraftLine   `bson:"lines" json:"lines"`
	ShippingAddress Address       `bson:"shipping_address" json:"shippingAddress"`
	BillingAddress  Address       `bson:"billing_address" json:"billingAddress"`
	PaymentMethod   PaymentMethod `bson:"payment_method" json:"paymentMethod"`
	CouponCode      string        `bson:"coupon_code,omitempty" json:"couponCode,omitempty"`
	Totals          Totals        `bson:"totals" json:"totals"`
	Status          DraftStatus   `bson:"status" json:"status"`
	OrderID         string        `bson:"order_id" json:"orderId"`
	ExpiresAt       time.Time     `bson:"expires_at" json:"expiresAt"`
	CreatedAt       time.Time     `bson:"created_at" json:"createdAt"`
}

// Expired reports whether the draft TTL has passed at the given instant.
func (d *CheckoutDraft) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}
