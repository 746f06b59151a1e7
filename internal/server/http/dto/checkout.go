package dto

import (
	"time"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// CheckoutRequest starts the checkout workflow for the active cart.
type CheckoutRequest struct {
	CartID          string        `json:"cartId"`
	ShippingAddress model.Address `json:"shippingAddress"`
	BillingAddress  model.Address `json:"billingAddress"`
	PaymentMethod   string        `json:"paymentMethod"`
	CouponCode      string        `json:"couponCode"`
}

// PaymentIntentResponse carries the gateway redirect data.
type PaymentIntentResponse struct {
	Gateway        string `json:"gateway"`
	GatewayOrderID string `json:"gatewayOrderId"`
	CheckoutURL    string `json:"checkoutUrl"`
}

// CheckoutResponse is the checkout outcome returned to the storefront.
type CheckoutResponse struct {
	DraftID     string                 `json:"draftId"`
	OrderID     string                 `json:"orderId"`
	OrderNumber string                 `json:"orderNumber"`
	Status      string                 `json:"status"`
	Totals      model.Totals           `json:"totals"`
	ExpiresAt   time.Time              `json:"expiresAt"`
	Payment     *PaymentIntentResponse `json:"payment,omitempty"`
}

// DraftResponse is the read view of a checkout draft.
type DraftResponse struct {
	ID            string            `json:"id"`
	CartID        string            `json:"cartId"`
	OrderID       string            `json:"orderId"`
	Status        string            `json:"status"`
	PaymentMethod string            `json:"paymentMethod"`
	CouponCode    string            `json:"couponCode,omitempty"`
	Lines         []model.DraftLine `json:"lines"`
	Totals        model.Totals      `json:"totals"`
	ExpiresAt     time.Time         `json:"expiresAt"`
	CreatedAt     time.Time         `json:"createdAt"`
}
