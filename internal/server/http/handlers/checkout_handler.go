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

// CheckoutHandler manages checkout endpoints.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// Create handles POST /api/checkout.
func (h *CheckoutHandler) Create(c *gin.Context) {
	userID := CurrentUserID(c)

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	result, err := h.facade.Checkout(c.Request.Context(), userID, usecase.CreateDraftInput{
		CartID:          req.CartID,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   model.PaymentMethod(req.PaymentMethod),
		CouponCode:      req.CouponCode,
	})
	if err != nil {
		writeCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toCheckoutResponse(result))
}

// Get handles GET /api/checkout/:id.
func (h *CheckoutHandler) Get(c *gin.Context) {
	userID := CurrentUserID(c)

	draft, err := h.facade.Draft(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, toDraftResponse(draft))
}

// RetryPayment handles POST /api/checkout/:id/retry-payment.
func (h *CheckoutHandler) RetryPayment(c *gin.Context) {
	userID := CurrentUserID(c)

	result, err := h.facade.RetryPayment(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrDraftExpired):
			c.Status(http.StatusGone)
		case errors.Is(err, domainErrors.ErrRetryNotEligible):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, toCheckoutResponse(result))
}

func writeCheckoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, domainErrors.ErrEmptyCart),
		errors.Is(err, domainErrors.ErrCartMismatch),
		errors.Is(err, domainErrors.ErrMissingAddress),
		errors.Is(err, domainErrors.ErrInvalidQuantity):
		c.Status(http.StatusBadRequest)
	case errors.Is(err, domainErrors.ErrProductUnavailable),
		errors.Is(err, domainErrors.ErrCouponExhausted),
		errors.Is(err, domainErrors.ErrCouponMinOrder):
		c.Status(http.StatusUnprocessableEntity)
	case errors.Is(err, domainErrors.ErrInsufficientStock),
		errors.Is(err, domainErrors.ErrCouponLocked):
		c.Status(http.StatusConflict)
	case errors.Is(err, domainErrors.ErrSchedulerFailure):
		c.Status(http.StatusServiceUnavailable)
	default:
		c.Status(http.StatusInternalServerError)
	}
}

func toCheckoutResponse(result *usecase.CheckoutResult) dto.CheckoutResponse {
	resp := dto.CheckoutResponse{
		DraftID:     result.Draft.ID,
		OrderID:     result.Order.ID,
		OrderNumber: result.Order.Number,
		Status:      string(result.Draft.Status),
		Totals:      result.Draft.Totals,
		ExpiresAt:   result.Draft.ExpiresAt,
	}
	if result.Intent != nil {
		resp.Payment = &dto.PaymentIntentResponse{
			Gateway:        result.Intent.Gateway,
			GatewayOrderID: result.Intent.GatewayOrderID,
			CheckoutURL:    result.Intent.CheckoutURL,
		}
	}
	return resp
}

func toDraftResponse(draft *model.CheckoutDraft) dto.DraftResponse {
	return dto.DraftResponse{
		ID:            draft.ID,
		CartID:        draft.CartID,
		OrderID:       draft.OrderID,
		Status:        string(draft.Status),
		PaymentMethod: string(draft.PaymentMethod),
		CouponCode:    draft.CouponCode,
		Lines:         draft.Lines,
		Totals:        draft.Totals,
		ExpiresAt:     draft.ExpiresAt,
		CreatedAt:     draft.CreatedAt,
	}
}
