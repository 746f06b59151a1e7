package model

import "time"

// PaymentMethod identifies how the buyer pays for an order.
type PaymentMethod string

const (
	PaymentMethodRazorpay PaymentMethod = "razorpay"
	PaymentMethodCOD      PaymentMethod = "cod"
)

// Online reports whether the method settles through the payment gateway.
func (m PaymentMethod) Online() bool {
	return m != PaymentMethodCOD
}

// PaymentStatus describes the financial state of an order.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// OrderStatus describes the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPacked    OrderStatus = "packed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusFailed    OrderStatus = "failed"
)

// ItemStatus describes per-line fulfillment state.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusShipped   ItemStatus = "shipped"
	ItemStatusDelivered ItemStatus = "delivered"
	ItemStatusCancelled ItemStatus = "cancelled"
	ItemStatusReturned  ItemStatus = "returned"
)

// Address is a shipping or billing destination.
type Address struct {
	Name       string `bson:"name" json:"name"`
	Line1      string `bson:"line1" json:"line1"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postal_code" json:"postalCode"`
	Phone      string `bson:"phone" json:"phone"`
}

// Empty reports whether the address is missing its required fields.
func (a Address) Empty() bool {
	return a.Line1 == "" || a.City == "" || a.State == "" || a.PostalCode == ""
}

// TaxBreakdown splits a tax amount into GST components.
type TaxBreakdown struct {
	CGST float64 `bson:"cgst" json:"cgst"`
	SGST float64 `bson:"sgst" json:"sgst"`
	IGST float64 `bson:"igst" json:"igst"`
}

// Totals is the monetary summary of an order or draft.
type Totals struct {
	Subtotal       float64      `bson:"subtotal" json:"subtotal"`
	DiscountAmount float64      `bson:"discount_amount" json:"discountAmount"`
	TaxAmount      float64      `bson:"tax_amount" json:"taxAmount"`
	TaxBreakdown   TaxBreakdown `bson:"tax_breakdown" json:"taxBreakdown"`
	ShippingFee    float64      `bson:"shipping_fee" json:"shippingFee"`
	GrandTotal     float64      `bson:"grand_total" json:"grandTotal"`
}

// OrderItem is an immutable line snapshot captured at order creation.
type OrderItem struct {
	ID           string       `bson:"id" json:"id"`
	ProductID    string       `bson:"product_id" json:"productId"`
	Name         string       `bson:"name" json:"name"`
	Quantity     int64        `bson:"quantity" json:"quantity"`
	UnitPrice    float64      `bson:"unit_price" json:"unitPrice"`
	Discount     float64      `bson:"discount" json:"discount"`
	TaxAmount    float64      `bson:"tax_amount" json:"taxAmount"`
	TaxBreakdown TaxBreakdown `bson:"tax_breakdown" json:"taxBreakdown"`
	LineTotal    float64      `bson:"line_total" json:"lineTotal"`
	Status       ItemStatus   `bson:"status" json:"status"`
}

// PaymentView is the last known gateway payment state stamped onto an order.
type PaymentView struct {
	Gateway          string    `bson:"gateway" json:"gateway"`
	GatewayOrderID   string    `bson:"gateway_order_id" json:"gatewayOrderId"`
	GatewayPaymentID string    `bson:"gateway_payment_id" json:"gatewayPaymentId"`
	Status           string    `bson:"status" json:"status"`
	Amount           float64   `bson:"amount" json:"amount"`
	RefundedAmount   float64   `bson:"refunded_amount" json:"refundedAmount"`
	At               time.Time `bson:"at" json:"at"`
}

// Order is the financial and fulfillment record of a purchase.
// Items are embedded so the document is persisted all-or-nothing even
// when the store runs without multi-document transactions.
type Order struct {
	ID              string        `bson:"_id" json:"id"`
	UserID          string        `bson:"user_id" json:"userId"`
	Number          string        `bson:"number" json:"orderNumber"`
	ShippingAddress Address       `bson:"shipping_address" json:"shippingAddress"`
	BillingAddress  Address       `bson:"billing_address" json:"billingAddress"`
	PaymentMethod   PaymentMethod `bson:"payment_method" json:"paymentMethod"`
	CouponCode      string        `bson:"coupon_code,omitempty" json:"couponCode,omitempty"`
	Totals          Totals        `bson:"totals" json:"totals"`
	PaymentStatus   PaymentStatus `bson:"payment_status" json:"paymentStatus"`
	Status          OrderStatus   `bson:"status" json:"orderStatus"`
	Items           []OrderItem   `bson:"items" json:"items"`
	PaymentSnapshot *PaymentView  `bson:"payment_snapshot,omitempty" json:"paymentSnapshot,omitempty"`
	PlacedAt        time.Time     `bson:"placed_at" json:"placedAt"`
	UpdatedAt       time.Time     `bson:"updated_at" json:"updatedAt"`
}

// Item returns the embedded item with the given id.
func (o *Order) Item(id string) (OrderItem, bool) {
	for _, it := range o.Items {
		if it.ID == id {
			return it, true
		}
	}
	return OrderItem{}, false
}
