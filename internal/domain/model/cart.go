package model

import "time"

// CartLine is one ordered cart position with its price at add time.
type CartLine struct {
	ProductID string  `bson:"product_id" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Quantity  int64   `bson:"quantity" json:"quantity"`
	UnitPrice float64 `bson:"unit_price" json:"unitPrice"`
}

// Cart is the buyer's active cart as exposed by the cart store.
type Cart struct {
	ID         string     `bson:"_id" json:"id"`
	UserID     string     `bson:"user_id" json:"userId"`
	Lines      []CartLine `bson:"lines" json:"lines"`
	CouponCode string     `bson:"coupon_code,omitempty" json:"couponCode,omitempty"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updatedAt"`
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}
