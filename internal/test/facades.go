package test

import (
	"context"
	"sync"
	"time"

	"github.com/tanmaydk/shopcore/internal/domain/model"
	"github.com/tanmaydk/shopcore/internal/usecase"
)

// TokenParserStub implements middleware token parsing contract.
type TokenParserStub struct {
	ID      string
	Err     error
	ParseFn func(string) (string, error)
}

// ParseToken either delegates to override or returns predefined result.
func (s TokenParserStub) ParseToken(token string) (string, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.ID, nil
}

// CheckoutFacadeStub provides controllable behaviour for checkout endpoints.
type CheckoutFacadeStub struct {
	CheckoutFn func(context.Context, string, usecase.CreateDraftInput) (*usecase.CheckoutResult, error)
	DraftFn    func(context.Context, string, string) (*model.CheckoutDraft, error)
	RetryFn    func(context.Context, string, string) (*usecase.CheckoutResult, error)
	OrderFn    func(context.Context, string, string) (*model.Order, error)
}

func (s CheckoutFacadeStub) Checkout(ctx context.Context, userID string, in usecase.CreateDraftInput) (*usecase.CheckoutResult, error) {
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, userID, in)
	}
	return &usecase.CheckoutResult{
		Draft: &model.CheckoutDraft{ID: "draft-1", UserID: userID, Status: model.DraftStatusPending},
		Order: &model.Order{ID: "order-1", UserID: userID, Number: "ORD-20260101-TEST0001"},
	}, nil
}

func (s CheckoutFacadeStub) Draft(ctx context.Context, userID, draftID string) (*model.CheckoutDraft, error) {
	if s.DraftFn != nil {
		return s.DraftFn(ctx, userID, draftID)
	}
	return &model.CheckoutDraft{ID: draftID, UserID: userID, Status: model.DraftStatusDraft}, nil
}

func (s CheckoutFacadeStub) RetryPayment(ctx context.Context, userID, draftID string) (*usecase.CheckoutResult, error) {
	if s.RetryFn != nil {
		return s.RetryFn(ctx, userID, draftID)
	}
	return &usecase.CheckoutResult{
		Draft: &model.CheckoutDraft{ID: draftID, UserID: userID, Status: model.DraftStatusPending},
		Order: &model.Order{ID: "order-1", UserID: userID},
	}, nil
}

func (s CheckoutFacadeStub) Order(ctx context.Context, userID, orderID string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, userID, orderID)
	}
	return &model.Order{ID: orderID, UserID: userID}, nil
}

// ShipmentFacadeStub provides controllable behaviour for fulfillment endpoints.
type ShipmentFacadeStub struct {
	CreateFn     func(context.Context, string, usecase.CreateShipmentInput) (*model.Shipment, error)
	GetFn        func(context.Context, string) (*model.Shipment, error)
	TransitionFn func(context.Context, string, model.ShipmentStatus) (*model.Shipment, error)
}

func (s ShipmentFacadeStub) CreateShipment(ctx context.Context, orderID string, in usecase.CreateShipmentInput) (*model.Shipment, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, orderID, in)
	}
	return &model.Shipment{ID: "shipment-1", OrderID: orderID, ItemIDs: in.ItemIDs, Status: model.ShipmentStatusPending}, nil
}

func (s ShipmentFacadeStub) Shipment(ctx context.Context, shipmentID string) (*model.Shipment, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, shipmentID)
	}
	return &model.Shipment{ID: shipmentID, Status: model.ShipmentStatusPending}, nil
}

func (s ShipmentFacadeStub) TransitionShipment(ctx context.Context, shipmentID string, to model.ShipmentStatus) (*model.Shipment, error) {
	if s.TransitionFn != nil {
		return s.TransitionFn(ctx, shipmentID, to)
	}
	return &model.Shipment{ID: shipmentID, Status: to}, nil
}

// WebhookFacadeStub records relayed payment events.
type WebhookFacadeStub struct {
	mu      sync.Mutex
	RelayFn func(context.Context, model.PaymentEvent) error
	Events  []model.PaymentEvent
}

func (s *WebhookFacadeStub) RelayPaymentEvent(ctx context.Context, event model.PaymentEvent) error {
	s.mu.Lock()
	s.Events = append(s.Events, event)
	s.mu.Unlock()
	if s.RelayFn != nil {
		return s.RelayFn(ctx, event)
	}
	return nil
}

// CommerceFacadeStub aggregates facade dependencies for HTTP layer tests.
type CommerceFacadeStub struct {
	TokenParserStub
	CheckoutFacadeStub
	ShipmentFacadeStub
	WebhookFacadeStub
}

// CheckoutWorkerFacadeStub provides controllable behaviour for the
// auto-cancel worker.
type CheckoutWorkerFacadeStub struct {
	mu        sync.Mutex
	ClaimFn   func(context.Context, time.Time, int) ([]model.ScheduledJob, error)
	CancelFn  func(context.Context, string) error
	ExpireFn  func(context.Context) (int64, error)
	Cancelled []string
}

func (s *CheckoutWorkerFacadeStub) ClaimDueJobs(ctx context.Context, now time.Time, limit int) ([]model.ScheduledJob, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, now, limit)
	}
	return nil, nil
}

func (s *CheckoutWorkerFacadeStub) CancelExpired(ctx context.Context, orderID string) error {
	s.mu.Lock()
	s.Cancelled = append(s.Cancelled, orderID)
	s.mu.Unlock()
	if s.CancelFn != nil {
		return s.CancelFn(ctx, orderID)
	}
	return nil
}

func (s *CheckoutWorkerFacadeStub) ExpireStaleDrafts(ctx context.Context) (int64, error) {
	if s.ExpireFn != nil {
		return s.ExpireFn(ctx)
	}
	return 0, nil
}

// CancelledOrders returns the orders cancelled so far.
func (s *CheckoutWorkerFacadeStub) CancelledOrders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Cancelled...)
}
