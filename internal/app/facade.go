package app

import (
	"context"
	"time"

	"github.com/tanmaydk/shopcore/internal/domain/model"
	"github.com/tanmaydk/shopcore/internal/domain/repository"
	pkgAuth "github.com/tanmaydk/shopcore/internal/pkg/auth"
	"github.com/tanmaydk/shopcore/internal/queue"
	"github.com/tanmaydk/shopcore/internal/usecase"
)

// CommerceFacade aggregates the application surface consumed by the HTTP
// handlers and the background worker.
type CommerceFacade struct {
	checkout  *usecase.CheckoutUseCase
	shipments *usecase.ShipmentUseCase
	tokens    pkgAuth.Strategy
	publisher queue.Publisher
	jobs      repository.ScheduledJobRepository
}

// NewCommerceFacade constructs CommerceFacade.
func NewCommerceFacade(
	checkout *usecase.CheckoutUseCase,
	shipments *usecase.ShipmentUseCase,
	tokens pkgAuth.Strategy,
	publisher queue.Publisher,
	factory repository.Factory,
) *CommerceFacade {
	return &CommerceFacade{
		checkout:  checkout,
		shipments: shipments,
		tokens:    tokens,
		publisher: publisher,
		jobs:      factory.Jobs(),
	}
}

func (f *CommerceFacade) ParseToken(token string) (string, error) {
	return f.tokens.ParseToken(token)
}

func (f *CommerceFacade) Checkout(ctx context.Context, userID string, in usecase.CreateDraftInput) (*usecase.CheckoutResult, error) {
	return f.checkout.CreateDraft(ctx, userID, in)
}

func (f *CommerceFacade) Draft(ctx context.Context, userID, draftID string) (*model.CheckoutDraft, error) {
	return f.checkout.GetDraft(ctx, userID, draftID)
}

func (f *CommerceFacade) RetryPayment(ctx context.Context, userID, draftID string) (*usecase.CheckoutResult, error) {
	return f.checkout.RetryPayment(ctx, userID, draftID)
}

func (f *CommerceFacade) Order(ctx context.Context, userID, orderID string) (*model.Order, error) {
	return f.checkout.GetOrder(ctx, userID, orderID)
}

func (f *CommerceFacade) CreateShipment(ctx context.Context, orderID string, in usecase.CreateShipmentInput) (*model.Shipment, error) {
	return f.shipments.CreateShipment(ctx, orderID, in)
}

func (f *CommerceFacade) Shipment(ctx context.Context, shipmentID string) (*model.Shipment, error) {
	return f.shipments.GetShipment(ctx, shipmentID)
}

func (f *CommerceFacade) TransitionShipment(ctx context.Context, shipmentID string, to model.ShipmentStatus) (*model.Shipment, error) {
	return f.shipments.Transition(ctx, shipmentID, to)
}

func (f *CommerceFacade) RelayPaymentEvent(ctx context.Context, event model.PaymentEvent) error {
	return f.publisher.PublishPaymentEvent(ctx, event)
}

func (f *CommerceFacade) ClaimDueJobs(ctx context.Context, now time.Time, limit int) ([]model.ScheduledJob, error) {
	return f.jobs.ClaimDue(ctx, now, limit)
}

func (f *CommerceFacade) CancelExpired(ctx context.Context, orderID string) error {
	return f.checkout.CancelExpired(ctx, orderID)
}

func (f *CommerceFacade) ExpireStaleDrafts(ctx context.Context) (int64, error) {
	return f.checkout.ExpireStaleDrafts(ctx)
}
