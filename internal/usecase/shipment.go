package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/tanmaydk/shopcore/internal/domain/errors"
	"github.com/tanmaydk/shopcore/internal/domain/model"
	"github.com/tanmaydk/shopcore/internal/domain/repository"
	"github.com/tanmaydk/shopcore/internal/queue"
)

// CreateShipmentInput groups order items into one shipment.
type CreateShipmentInput struct {
	ItemIDs    []string
	Carrier    string
	TrackingID string
}

// ShipmentUseCase owns post-payment fulfillment: shipment creation and the
// status state machine, with order item statuses kept in lockstep.
type ShipmentUseCase struct {
	factory repository.Factory
	queue   queue.Publisher
	logger  *slog.Logger
}

// NewShipmentUseCase constructs ShipmentUseCase.
func NewShipmentUseCase(factory repository.Factory, publisher queue.Publisher, logger *slog.Logger) *ShipmentUseCase {
	return &ShipmentUseCase{factory: factory, queue: publisher, logger: logger}
}

// CreateShipment opens a shipment for a paid order. Items may only be
// covered by one shipment each.
func (u *ShipmentUseCase) CreateShipment(ctx context.Context, orderID string, in CreateShipmentInput) (*model.Shipment, error) {
	if len(in.ItemIDs) == 0 {
		return nil, domainErrors.ErrInvalidQuantity
	}

	order, err := u.factory.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != model.PaymentStatusPaid {
		return nil, domainErrors.ErrPaymentRequired
	}
	if order.Status != model.OrderStatusConfirmed && order.Status != model.OrderStatusPacked {
		return nil, domainErrors.ErrOrderNotReady
	}

	for _, itemID := range in.ItemIDs {
		item, found := order.Item(itemID)
		if !found {
			return nil, fmt.Errorf("%w: item %s", domainErrors.ErrNotFound, itemID)
		}
		if item.Status != model.ItemStatusPending {
			return nil, domainErrors.ErrShipmentExists
		}
	}

	taken, err := u.factory.Shipments().ExistsForItems(ctx, orderID, in.ItemIDs)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domainErrors.ErrShipmentExists
	}

	now := time.Now().UTC()
	shipment := &model.Shipment{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		ItemIDs:    in.ItemIDs,
		Carrier:    in.Carrier,
		TrackingID: in.TrackingID,
		Status:     model.ShipmentStatusPending,
		History:    []model.ShipmentEvent{{Status: model.ShipmentStatusPending, At: now}},
		CreatedAt:  now,
	}
	if err := u.factory.Shipments().Create(ctx, shipment); err != nil {
		return nil, err
	}
	return shipment, nil
}

// GetShipment returns a shipment by id.
func (u *ShipmentUseCase) GetShipment(ctx context.Context, shipmentID string) (*model.Shipment, error) {
	return u.factory.Shipments().GetByID(ctx, shipmentID)
}

// Transition moves a shipment along the allowed-transition table, updates the
// covered item statuses and promotes the order status when warranted.
func (u *ShipmentUseCase) Transition(ctx context.Context, shipmentID string, to model.ShipmentStatus) (*model.Shipment, error) {
	shipment, err := u.factory.Shipments().GetByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if !shipment.Status.CanTransition(to) {
		return nil, domainErrors.NewTransitionError(string(shipment.Status), string(to))
	}

	now := time.Now().UTC()
	moved, err := u.factory.Shipments().Transition(ctx, shipment.ID, shipment.Status, to, now)
	if err != nil {
		return nil, err
	}
	if !moved {
		// Someone else moved it first; report against the fresh status.
		current, err := u.factory.Shipments().GetByID(ctx, shipment.ID)
		if err != nil {
			return nil, err
		}
		return nil, domainErrors.NewTransitionError(string(current.Status), string(to))
	}
	shipment.Status = to
	shipment.History = append(shipment.History, model.ShipmentEvent{Status: to, At: now})

	if itemStatus, mapped := to.ItemStatus(); mapped {
		if err := u.factory.Orders().SetItemStatuses(ctx, shipment.OrderID, shipment.ItemIDs, itemStatus); err != nil {
			u.logger.Error("item statuses not updated after shipment transition",
				slog.String("shipment_id", shipment.ID),
				slog.String("order_id", shipment.OrderID),
				slog.String("error", err.Error()))
		}
	}

	u.promoteOrder(ctx, shipment.OrderID, to)
	return shipment, nil
}

// promoteOrder lifts the order fulfillment status when shipments progress:
// first dispatch marks the order shipped, and full delivery marks it
// delivered.
func (u *ShipmentUseCase) promoteOrder(ctx context.Context, orderID string, to model.ShipmentStatus) {
	switch to {
	case model.ShipmentStatusShipped:
		promoted, err := u.factory.Orders().SetStatus(ctx, orderID,
			[]model.OrderStatus{model.OrderStatusConfirmed, model.OrderStatusPacked}, model.OrderStatusShipped)
		if err != nil {
			u.logger.Error("order status promotion failed",
				slog.String("order_id", orderID), slog.String("error", err.Error()))
			return
		}
		if promoted {
			u.notify(ctx, orderID, string(model.OrderStatusShipped))
		}
	case model.ShipmentStatusDelivered:
		order, err := u.factory.Orders().GetByID(ctx, orderID)
		if err != nil {
			u.logger.Error("order load failed during promotion",
				slog.String("order_id", orderID), slog.String("error", err.Error()))
			return
		}
		for _, item := range order.Items {
			if item.Status != model.ItemStatusDelivered && item.Status != model.ItemStatusCancelled {
				return
			}
		}
		promoted, err := u.factory.Orders().SetStatus(ctx, orderID,
			[]model.OrderStatus{model.OrderStatusConfirmed, model.OrderStatusPacked, model.OrderStatusShipped}, model.OrderStatusDelivered)
		if err != nil {
			u.logger.Error("order status promotion failed",
				slog.String("order_id", orderID), slog.String("error", err.Error()))
			return
		}
		if promoted {
			u.notify(ctx, orderID, string(model.OrderStatusDelivered))
		}
	}
}

func (u *ShipmentUseCase) notify(ctx context.Context, orderID, status string) {
	if err := u.queue.EnqueueStatusNotification(ctx, orderID, status); err != nil {
		u.logger.Warn("status notification not published",
			slog.String("order_id", orderID),
			slog.String("status", status),
			slog.String("error", err.Error()))
	}
}
