package test

import (
	"context"
	"sync"
	"time"

	"github.com/tanmaydk/shopcore/internal/adapter/gateway"
	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// GatewayStub simulates the payment gateway client.
type GatewayStub struct {
	mu         sync.Mutex
	InitiateFn func(context.Context, gateway.InitiateRequest) (*gateway.Intent, error)
	Requests   []gateway.InitiateRequest
}

func (s *GatewayStub) InitiatePayment(ctx context.Context, req gateway.InitiateRequest) (*gateway.Intent, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	s.mu.Unlock()
	if s.InitiateFn != nil {
		return s.InitiateFn(ctx, req)
	}
	return &gateway.Intent{
		Gateway:        "razorpay",
		GatewayOrderID: "gw-order-" + req.OrderID + "-" + RandomASCIIString(4, 4),
		CheckoutURL:    "https://gateway.test/pay/" + req.OrderID,
	}, nil
}

// InvoiceStub records generated tax documents.
type InvoiceStub struct {
	mu          sync.Mutex
	Invoices    []string
	CreditNotes []CreditNoteCall
	InvoiceErr  error
}

// CreditNoteCall captures one credit note request.
type CreditNoteCall struct {
	OrderID string
	Amount  float64
	Partial bool
}

func (s *InvoiceStub) GenerateFromOrder(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InvoiceErr != nil {
		return s.InvoiceErr
	}
	s.Invoices = append(s.Invoices, order.ID)
	return nil
}

func (s *InvoiceStub) GenerateCreditNote(ctx context.Context, order *model.Order, amount float64, partial bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreditNotes = append(s.CreditNotes, CreditNoteCall{OrderID: order.ID, Amount: amount, Partial: partial})
	return nil
}

// PublisherStub records queue publications.
type PublisherStub struct {
	mu            sync.Mutex
	Notifications []StatusCall
	Events        []model.PaymentEvent
	NotifyErr     error
	PublishErr    error
}

// StatusCall captures one status notification.
type StatusCall struct {
	OrderID string
	Status  string
}

func (s *PublisherStub) EnqueueStatusNotification(ctx context.Context, orderID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NotifyErr != nil {
		return s.NotifyErr
	}
	s.Notifications = append(s.Notifications, StatusCall{OrderID: orderID, Status: status})
	return nil
}

func (s *PublisherStub) PublishPaymentEvent(ctx context.Context, event model.PaymentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PublishErr != nil {
		return s.PublishErr
	}
	s.Events = append(s.Events, event)
	return nil
}

// Statuses returns the notified statuses for an order in publication order.
func (s *PublisherStub) Statuses(orderID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, call := range s.Notifications {
		if call.OrderID == orderID {
			out = append(out, call.Status)
		}
	}
	return out
}

// LockerStub is an in-memory mutual-exclusion lock with holder semantics.
type LockerStub struct {
	mu         sync.Mutex
	holders    map[string]string
	AcquireErr error
	Acquired   []string
	Released   []string
}

func NewLockerStub() *LockerStub {
	return &LockerStub{holders: make(map[string]string)}
}

func (s *LockerStub) Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AcquireErr != nil {
		return false, s.AcquireErr
	}
	if _, taken := s.holders[key]; taken {
		return false, nil
	}
	s.holders[key] = holder
	s.Acquired = append(s.Acquired, key)
	return true, nil
}

func (s *LockerStub) Release(ctx context.Context, key, holder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.holders[key]; ok && current == holder {
		delete(s.holders, key)
		s.Released = append(s.Released, key)
	}
	return nil
}

// Held reports whether the key is currently locked.
func (s *LockerStub) Held(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.holders[key]
	return ok
}
