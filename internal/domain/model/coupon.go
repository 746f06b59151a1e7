package model

import "time"

// CouponType selects the discount formula.
type CouponType string

const (
	CouponTypePercent CouponType = "percent"
	CouponTypeFlat    CouponType = "flat"
)

// Coupon is the discount definition consulted during checkout.
type Coupon struct {
	Code          string     `bson:"_id" json:"code"`
	Type          CouponType `bson:"type" json:"type"`
	Value         float64    `bson:"value" json:"value"`
	MaxDiscount   float64    `bson:"max_discount" json:"maxDiscount"`
	MinOrderValue float64    `bson:"min_order_value" json:"minOrderValue"`
	UsageLimit    int64      `bson:"usage_limit" json:"usageLimit"`
	PerUserLimit  int64      `bson:"per_user_limit" json:"perUserLimit"`
	Active        bool       `bson:"active" json:"active"`
}

// CouponUsage records one successful redemption.
type CouponUsage struct {
	ID      string    `bson:"_id" json:"id"`
	Code    string    `bson:"code" json:"code"`
	UserID  string    `bson:"user_id" json:"userId"`
	OrderID string    `bson:"order_id" json:"orderId"`
	UsedAt  time.Time `bson:"used_at" json:"usedAt"`
}
