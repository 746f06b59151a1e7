package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// ErrGatewayUnavailable indicates the gateway could not take the request.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// InitiateRequest asks the gateway to open a payment intent for an order.
type InitiateRequest struct {
	OrderID     string              `json:"orderId"`
	OrderNumber string              `json:"orderNumber"`
	Amount      float64             `json:"amount"`
	Currency    string              `json:"currency"`
	Method      model.PaymentMethod `json:"method"`
}

// Intent is the gateway-specific redirect/intent data handed to the client.
type Intent struct {
	Gateway        string `json:"gateway"`
	GatewayOrderID string `json:"gatewayOrderId"`
	CheckoutURL    string `json:"checkoutUrl"`
}

// Client exposes payment initiation against the gateway service.
type Client interface {
	InitiatePayment(ctx context.Context, req InitiateRequest) (*Intent, error)
}

// HTTPClient implements Client via the gateway HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates the gateway client with a default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("gateway url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// InitiatePayment opens a payment intent.
func (c *HTTPClient) InitiatePayment(ctx context.Context, reqData InitiateRequest) (*Intent, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/intents")

	body, err := json.Marshal(reqData)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var intent Intent
		if err := json.Unmarshal(raw, &intent); err != nil {
			return nil, err
		}
		return &intent, nil
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return nil, ErrGatewayUnavailable
	default:
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("gateway request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(raw)))
		return nil, fmt.Errorf("gateway error: %s", resp.Status)
	}
}
