package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/tanmaydk/shopcore/internal/domain/errors"
	"github.com/tanmaydk/shopcore/internal/domain/model"
	"github.com/tanmaydk/shopcore/internal/server/http/dto"
	"github.com/tanmaydk/shopcore/internal/usecase"
)

// ShipmentHandler manages fulfillment endpoints.
type ShipmentHandler struct {
	facade ShipmentFacade
}

// NewShipmentHandler constructs ShipmentHandler.
func NewShipmentHandler(facade ShipmentFacade) *ShipmentHandler {
	return &ShipmentHandler{facade: facade}
}

// Create handles POST /api/orders/:id/shipments.
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req dto.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	shipment, err := h.facade.CreateShipment(c.Request.Context(), c.Param("id"), usecase.CreateShipmentInput{
		ItemIDs:    req.ItemIDs,
		Carrier:    req.Carrier,
		TrackingID: req.TrackingID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrInvalidQuantity):
			c.Status(http.StatusBadRequest)
		case errors.Is(err, domainErrors.ErrPaymentRequired):
			c.Status(http.StatusPaymentRequired)
		case errors.Is(err, domainErrors.ErrOrderNotReady),
			errors.Is(err, domainErrors.ErrShipmentExists):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, toShipmentResponse(shipment))
}

// Get handles GET /api/shipments/:id.
func (h *ShipmentHandler) Get(c *gin.Context) {
	shipment, err := h.facade.Shipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, toShipmentResponse(shipment))
}

// Transition handles PATCH /api/shipments/:id/status.
func (h *ShipmentHandler) Transition(c *gin.Context) {
	var req dto.TransitionShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	shipment, err := h.facade.TransitionShipment(c.Request.Context(), c.Param("id"), model.ShipmentStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrInvalidTransition):
			var transition *domainErrors.TransitionError
			if errors.As(err, &transition) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"error": "invalid transition",
					"from":  transition.From,
					"to":    transition.To,
				})
				return
			}
			c.Status(http.StatusUnprocessableEntity)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, toShipmentResponse(shipment))
}

func toShipmentResponse(shipment *model.Shipment) dto.ShipmentResponse {
	return dto.ShipmentResponse{
		ID:         shipment.ID,
		OrderID:    shipment.OrderID,
		ItemIDs:    shipment.ItemIDs,
		Carrier:    shipment.Carrier,
		TrackingID: shipment.TrackingID,
		Status:     string(shipment.Status),
		History:    shipment.History,
		CreatedAt:  shipment.CreatedAt,
	}
}
