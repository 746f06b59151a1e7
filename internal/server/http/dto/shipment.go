package dto

import (
	"time"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// CreateShipmentRequest groups paid order items into one shipment.
type CreateShipmentRequest struct {
	ItemIDs    []string `json:"itemIds"`
	Carrier    string   `json:"carrier"`
	TrackingID string   `json:"trackingId"`
}

// TransitionShipmentRequest moves a shipment to the next status.
type TransitionShipmentRequest struct {
	Status string `json:"status"`
}

// ShipmentResponse is the read view of a shipment.
type ShipmentResponse struct {
	ID         string                `json:"id"`
	OrderID    string                `json:"orderId"`
	ItemIDs    []string              `json:"itemIds"`
	Carrier    string                `json:"carrier"`
	TrackingID string                `json:"trackingId,omitempty"`
	Status     string                `json:"status"`
	History    []model.ShipmentEvent `json:"history"`
	CreatedAt  time.Time             `json:"createdAt"`
}
