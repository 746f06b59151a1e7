package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tanmaydk/shopcore/internal/domain/model"
	"github.com/tanmaydk/shopcore/internal/server/http/dto"
)

// SignatureHeader carries the gateway's HMAC-SHA256 signature of the raw
// request body, hex encoded.
const SignatureHeader = "X-Webhook-Signature"

// WebhookHandler accepts gateway payment notifications. It only verifies the
// signature and relays the event to the queue; all state changes happen in
// the idempotent consumer, so the gateway gets a fast acknowledgement.
type WebhookHandler struct {
	facade WebhookFacade
	secret []byte
	logger *slog.Logger
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(facade WebhookFacade, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{facade: facade, secret: []byte(secret), logger: logger}
}

// Receive handles POST /api/webhooks/payment.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	if !h.verify(body, c.GetHeader(SignatureHeader)) {
		h.logger.Warn("webhook with bad signature rejected")
		c.Status(http.StatusUnauthorized)
		return
	}

	var event model.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if event.Type == "" || (event.GatewayOrderID == "" && event.GatewayPaymentID == "") {
		c.Status(http.StatusBadRequest)
		return
	}

	if err := h.facade.RelayPaymentEvent(c.Request.Context(), event); err != nil {
		h.logger.Error("webhook relay failed",
			slog.String("type", event.Type),
			slog.String("gateway_order_id", event.GatewayOrderID),
			slog.String("error", err.Error()))
		c.Status(http.StatusServiceUnavailable)
		return
	}

	c.JSON(http.StatusAccepted, dto.WebhookAck{Status: "queued"})
}

func (h *WebhookHandler) verify(body []byte, signature string) bool {
	if len(h.secret) == 0 || signature == "" {
		return false
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), provided)
}
