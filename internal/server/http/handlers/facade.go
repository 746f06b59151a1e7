package handlers

import (
	"context"

	"github.com/tanmaydk/shopcore/internal/domain/model"
	"github.com/tanmaydk/shopcore/internal/usecase"
)

// TokenFacade describes authentication capabilities required by handlers.
type TokenFacade interface {
	ParseToken(token string) (string, error)
}

// CheckoutFacade encapsulates checkout operations exposed via HTTP.
type CheckoutFacade interface {
	Checkout(ctx context.Context, userID string, in usecase.CreateDraftInput) (*usecase.CheckoutResult, error)
	Draft(ctx context.Context, userID, draftID string) (*model.CheckoutDraft, error)
	RetryPayment(ctx context.Context, userID, draftID string) (*usecase.CheckoutResult, error)
	Order(ctx context.Context, userID, orderID string) (*model.Order, error)
}

// ShipmentFacade provides fulfillment operations.
type ShipmentFacade interface {
	CreateShipment(ctx context.Context, orderID string, in usecase.CreateShipmentInput) (*model.Shipment, error)
	Shipment(ctx context.Context, shipmentID string) (*model.Shipment, error)
	TransitionShipment(ctx context.Context, shipmentID string, to model.ShipmentStatus) (*model.Shipment, error)
}

// WebhookFacade relays verified gateway notifications into the queue.
type WebhookFacade interface {
	RelayPaymentEvent(ctx context.Context, event model.PaymentEvent) error
}

// CommerceFacade aggregates the full set of operations used across handlers.
type CommerceFacade interface {
	TokenFacade
	CheckoutFacade
	ShipmentFacade
	WebhookFacade
}
