package model

import "time"

// ShipmentStatus describes fulfillment transit state.
type ShipmentStatus string

const (
	ShipmentStatusPending   ShipmentStatus = "pending"
	ShipmentStatusShipped   ShipmentStatus = "shipped"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	ShipmentStatusCancelled ShipmentStatus = "cancelled"
	ShipmentStatusReturned  ShipmentStatus = "returned"
)

// shipmentTransitions is the full allowed-transition table. Anything absent
// here is rejected.
var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentStatusPending:   {ShipmentStatusShipped},
	ShipmentStatusShipped:   {ShipmentStatusInTransit, ShipmentStatusDelivered, ShipmentStatusCancelled, ShipmentStatusReturned},
	ShipmentStatusInTransit: {ShipmentStatusDelivered, ShipmentStatusCancelled, ShipmentStatusReturned},
}

// CanTransition reports whether moving to the target status is allowed.
func (s ShipmentStatus) CanTransition(to ShipmentStatus) bool {
	for _, allowed := range shipmentTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the shipment can no longer change.
func (s ShipmentStatus) Terminal() bool {
	return len(shipmentTransitions[s]) == 0
}

// ItemStatus maps a shipment status onto the order item status kept in lockstep.
func (s ShipmentStatus) ItemStatus() (ItemStatus, bool) {
	switch s {
	case ShipmentStatusShipped:
		return ItemStatusShipped, true
	case ShipmentStatusDelivered:
		return ItemStatusDelivered, true
	case ShipmentStatusCancelled, ShipmentStatusReturned:
		return ItemStatusCancelled, true
	}
	return "", false
}

// ShipmentEvent is one entry of the shipment status history log.
type ShipmentEvent struct {
	Status ShipmentStatus `bson:"status" json:"status"`
	At     time.Time      `bson:"at" json:"at"`
}

// Shipment groups order items moving together after payment.
type Shipment struct {
	ID         string          `bson:"_id" json:"id"`
	OrderID    string          `bson:"order_id" json:"orderId"`
	ItemIDs    []string        `bson:"item_ids" json:"itemIds"`
	Carrier    string          `bson:"carrier" json:"carrier"`
	TrackingID string          `bson:"tracking_id,omitempty" json:"trackingId,omitempty"`
	Status     ShipmentStatus  `bson:"status" json:"status"`
	History    []ShipmentEvent `bson:"history" json:"history"`
	CreatedAt  time.Time       `bson:"created_at" json:"createdAt"`
}
