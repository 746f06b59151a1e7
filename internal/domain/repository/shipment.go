package repository

import (
	"context"
	"time"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// ShipmentRepository persists shipments and their status history.
type ShipmentRepository interface {
	Create(ctx context.Context, shipment *model.Shipment) error
	GetByID(ctx context.Context, id string) (*model.Shipment, error)

	// ExistsForItems reports whether any of the item ids is already covered
	// by a shipment of the order.
	ExistsForItems(ctx context.Context, orderID string, itemIDs []string) (bool, error)

	// Transition moves the shipment from the expected current status to the
	// next one and appends a history entry. False means the shipment was no
	// longer in the expected status.
	Transition(ctx context.Context, id string, from, to model.ShipmentStatus, at time.Time) (bool, error)
}
