package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// Generator produces tax documents for completed payments. Failures are
// non-fatal to the payment flow; callers log and move on.
type Generator interface {
	GenerateFromOrder(ctx context.Context, order *model.Order) error
	GenerateCreditNote(ctx context.Context, order *model.Order, amount float64, partial bool) error
}

// HTTPClient calls the invoicing service.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates the invoicing client.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse invoice url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("invoice url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

type invoiceRequest struct {
	OrderID     string       `json:"orderId"`
	OrderNumber string       `json:"orderNumber"`
	Totals      model.Totals `json:"totals"`
}

type creditNoteRequest struct {
	OrderID     string  `json:"orderId"`
	OrderNumber string  `json:"orderNumber"`
	Amount      float64 `json:"amount"`
	Partial     bool    `json:"partial"`
}

// GenerateFromOrder requests a tax invoice for a paid order.
func (c *HTTPClient) GenerateFromOrder(ctx context.Context, order *model.Order) error {
	return c.post(ctx, "/api/invoices", invoiceRequest{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Totals:      order.Totals,
	})
}

// GenerateCreditNote requests a credit note for a refund.
func (c *HTTPClient) GenerateCreditNote(ctx context.Context, order *model.Order, amount float64, partial bool) error {
	return c.post(ctx, "/api/credit-notes", creditNoteRequest{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Amount:      amount,
		Partial:     partial,
	})
}

func (c *HTTPClient) post(ctx context.Context, endpointPath string, payload any) error {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, endpointPath)

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoice service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("invoice request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(raw)))
		return fmt.Errorf("invoice service error: %s", resp.Status)
	}
	return nil
}

// Noop is used when no invoicing service is configured.
type Noop struct{}

func (Noop) GenerateFromOrder(context.Context, *model.Order) error { return nil }

func (Noop) GenerateCreditNote(context.Context, *model.Order, float64, bool) error { return nil }
