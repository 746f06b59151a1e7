package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/tanmaydk/shopcore/internal/domain/errors"
	"github.com/tanmaydk/shopcore/internal/domain/model"
	"github.com/tanmaydk/shopcore/internal/domain/repository"
)

// UnitOfWorkStub records session outcomes for tests.
type UnitOfWorkStub struct {
	TransactionalVal bool
	Commits          int
	Aborts           int
	Ended            bool
	CommitErr        error
}

func (u *UnitOfWorkStub) Transactional() bool { return u.TransactionalVal }

func (u *UnitOfWorkStub) Commit(ctx context.Context) error {
	u.Commits++
	return u.CommitErr
}

func (u *UnitOfWorkStub) Abort(ctx context.Context) error {
	u.Aborts++
	return nil
}

func (u *UnitOfWorkStub) End(ctx context.Context) { u.Ended = true }

// FactoryStub bundles the in-memory repositories behind the factory contract.
type FactoryStub struct {
	CartRepo     *CartRepositoryStub
	ProductRepo  *ProductRepositoryStub
	DraftRepo    *DraftRepositoryStub
	OrderRepo    *OrderRepositoryStub
	PaymentRepo  *PaymentRepositoryStub
	ShipmentRepo *ShipmentRepositoryStub
	CouponRepo   *CouponRepositoryStub
	JobRepo      *ScheduledJobRepositoryStub

	Transactional bool
	BeginErr      error
	LastUOW       *UnitOfWorkStub
}

// NewFactoryStub constructs the factory with empty stores.
func NewFactoryStub() *FactoryStub {
	return &FactoryStub{
		CartRepo:     NewCartRepositoryStub(),
		ProductRepo:  NewProductRepositoryStub(),
		DraftRepo:    NewDraftRepositoryStub(),
		OrderRepo:    NewOrderRepositoryStub(),
		PaymentRepo:  NewPaymentRepositoryStub(),
		ShipmentRepo: NewShipmentRepositoryStub(),
		CouponRepo:   NewCouponRepositoryStub(),
		JobRepo:      NewScheduledJobRepositoryStub(),
	}
}

func (f *FactoryStub) Begin(ctx context.Context) (repository.UnitOfWork, context.Context, error) {
	if f.BeginErr != nil {
		return nil, nil, f.BeginErr
	}
	f.LastUOW = &UnitOfWorkStub{TransactionalVal: f.Transactional}
	return f.LastUOW, ctx, nil
}

func (f *FactoryStub) Carts() repository.CartRepository         { return f.CartRepo }
func (f *FactoryStub) Products() repository.ProductRepository   { return f.ProductRepo }
func (f *FactoryStub) Drafts() repository.DraftRepository       { return f.DraftRepo }
func (f *FactoryStub) Orders() repository.OrderRepository       { return f.OrderRepo }
func (f *FactoryStub) Payments() repository.PaymentRepository   { return f.PaymentRepo }
func (f *FactoryStub) Shipments() repository.ShipmentRepository { return f.ShipmentRepo }
func (f *FactoryStub) Coupons() repository.CouponRepository     { return f.CouponRepo }
func (f *FactoryStub) Jobs() repository.ScheduledJobRepository  { return f.JobRepo }

// CartRepositoryStub stores carts in-memory keyed by user.
type CartRepositoryStub struct {
	mu      sync.Mutex
	Carts   map[string]*model.Cart
	Cleared []string
	Err     error
}

func NewCartRepositoryStub() *CartRepositoryStub {
	return &CartRepositoryStub{Carts: make(map[string]*model.Cart)}
}

func (s *CartRepositoryStub) GetActiveCart(ctx context.Context, userID string) (*model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if cart, ok := s.Carts[userID]; ok {
		copied := *cart
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *CartRepositoryStub) Clear(ctx context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cleared = append(s.Cleared, cartID)
	return nil
}

// StockCall records one stock counter mutation.
type StockCall struct {
	ProductID string
	Qty       int64
	Reference string
	Note      string
}

// ProductRepositoryStub keeps products in-memory with atomic reservation
// semantics matching the store.
type ProductRepositoryStub struct {
	mu       sync.Mutex
	Products map[string]*model.Product

	Reserves []StockCall
	Releases []StockCall
	Commits  []StockCall

	ReserveErr error
	FindErr    error
}

func NewProductRepositoryStub() *ProductRepositoryStub {
	return &ProductRepositoryStub{Products: make(map[string]*model.Product)}
}

func (s *ProductRepositoryStub) Find(ctx context.Context, id string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	if p, ok := s.Products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *ProductRepositoryStub) Reserve(ctx context.Context, id string, qty int64, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReserveErr != nil {
		return s.ReserveErr
	}
	if qty <= 0 {
		return domainErrors.ErrInvalidQuantity
	}
	p, ok := s.Products[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if p.ReservedQty+qty > p.StockQty {
		return domainErrors.ErrInsufficientStock
	}
	p.ReservedQty += qty
	s.Reserves = append(s.Reserves, StockCall{ProductID: id, Qty: qty, Reference: reference})
	return nil
}

func (s *ProductRepositoryStub) Release(ctx context.Context, id string, qty int64, reference, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Products[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	p.ReservedQty -= qty
	if p.ReservedQty < 0 {
		p.ReservedQty = 0
	}
	s.Releases = append(s.Releases, StockCall{ProductID: id, Qty: qty, Reference: reference, Note: note})
	return nil
}

func (s *ProductRepositoryStub) CommitReservation(ctx context.Context, id string, qty int64, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Products[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	p.ReservedQty -= qty
	if p.ReservedQty < 0 {
		p.ReservedQty = 0
	}
	p.StockQty -= qty
	s.Commits = append(s.Commits, StockCall{ProductID: id, Qty: qty, Reference: reference})
	return nil
}

// DraftRepositoryStub stores checkout drafts with the forward-only status
// gating of the real store.
type DraftRepositoryStub struct {
	mu     sync.Mutex
	Drafts map[string]*model.CheckoutDraft
	Err    error
}

func NewDraftRepositoryStub() *DraftRepositoryStub {
	return &DraftRepositoryStub{Drafts: make(map[string]*model.CheckoutDraft)}
}

func (s *DraftRepositoryStub) Create(ctx context.Context, draft *model.CheckoutDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, exists := s.Drafts[draft.ID]; exists {
		return domainErrors.ErrAlreadyExists
	}
	copied := *draft
	s.Drafts[draft.ID] = &copied
	return nil
}

func (s *DraftRepositoryStub) GetByID(ctx context.Context, id string) (*model.CheckoutDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if draft, ok := s.Drafts[id]; ok {
		copied := *draft
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *DraftRepositoryStub) GetByOrderID(ctx context.Context, orderID string) (*model.CheckoutDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, draft := range s.Drafts {
		if draft.OrderID == orderID && draft.Status != model.DraftStatusExpired {
			copied := *draft
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *DraftRepositoryStub) MarkPending(ctx context.Context, id string) (bool, error) {
	return s.setStatus(id, []model.DraftStatus{model.DraftStatusDraft}, model.DraftStatusPending)
}

func (s *DraftRepositoryStub) MarkPaid(ctx context.Context, id string) (bool, error) {
	return s.setStatus(id, []model.DraftStatus{model.DraftStatusDraft, model.DraftStatusPending}, model.DraftStatusPaid)
}

func (s *DraftRepositoryStub) Expire(ctx context.Context, id string) (bool, error) {
	return s.setStatus(id, []model.DraftStatus{model.DraftStatusDraft, model.DraftStatusPending}, model.DraftStatusExpired)
}

func (s *DraftRepositoryStub) setStatus(id string, from []model.DraftStatus, to model.DraftStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.Drafts[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if draft.Status == status {
			draft.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (s *DraftRepositoryStub) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var flipped int64
	for _, draft := range s.Drafts {
		if draft.Status == model.DraftStatusDraft && draft.ExpiresAt.Before(now) {
			draft.Status = model.DraftStatusExpired
			flipped++
		}
	}
	return flipped, nil
}

// OrderRepositoryStub stores orders with the same conditional-update gating
// as the real store.
type OrderRepositoryStub struct {
	mu     sync.Mutex
	Orders map[string]*model.Order
	Err    error
}

func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{Orders: make(map[string]*model.Order)}
}

func (s *OrderRepositoryStub) Create(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, exists := s.Orders[order.ID]; exists {
		return domainErrors.ErrAlreadyExists
	}
	copied := *order
	copied.Items = append([]model.OrderItem(nil), order.Items...)
	s.Orders[order.ID] = &copied
	return nil
}

func (s *OrderRepositoryStub) GetByID(ctx context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.Orders[id]; ok {
		copied := *order
		copied.Items = append([]model.OrderItem(nil), order.Items...)
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *OrderRepositoryStub) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.Orders {
		if order.Number == number {
			copied := *order
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *OrderRepositoryStub) CancelIfUnpaid(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[id]
	if !ok || order.PaymentStatus != model.PaymentStatusPending || order.Status != model.OrderStatusCreated {
		return false, nil
	}
	order.Status = model.OrderStatusCancelled
	return true, nil
}

func (s *OrderRepositoryStub) ConfirmPaid(ctx context.Context, id string, snapshot *model.PaymentView) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[id]
	if !ok || order.PaymentStatus != model.PaymentStatusPending || order.Status != model.OrderStatusCreated {
		return false, nil
	}
	order.PaymentStatus = model.PaymentStatusPaid
	order.Status = model.OrderStatusConfirmed
	order.PaymentSnapshot = snapshot
	return true, nil
}

func (s *OrderRepositoryStub) MarkFailed(ctx context.Context, id string, snapshot *model.PaymentView) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[id]
	if !ok || order.PaymentStatus != model.PaymentStatusPending {
		return false, nil
	}
	order.PaymentStatus = model.PaymentStatusFailed
	order.Status = model.OrderStatusFailed
	order.PaymentSnapshot = snapshot
	return true, nil
}

func (s *OrderRepositoryStub) MarkRefunded(ctx context.Context, id string, snapshot *model.PaymentView, partial bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[id]
	if !ok {
		return false, nil
	}
	if order.PaymentStatus != model.PaymentStatusPaid && order.PaymentStatus != model.PaymentStatusPartiallyRefunded {
		return false, nil
	}
	if partial {
		order.PaymentStatus = model.PaymentStatusPartiallyRefunded
	} else {
		order.PaymentStatus = model.PaymentStatusRefunded
	}
	order.PaymentSnapshot = snapshot
	return true, nil
}

func (s *OrderRepositoryStub) SetItemStatuses(ctx context.Context, orderID string, itemIDs []string, status model.ItemStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	for i := range order.Items {
		for _, id := range itemIDs {
			if order.Items[i].ID == id {
				order.Items[i].Status = status
			}
		}
	}
	return nil
}

func (s *OrderRepositoryStub) SetStatus(ctx context.Context, orderID string, from []model.OrderStatus, to model.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[orderID]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if order.Status == status {
			order.Status = to
			return true, nil
		}
	}
	return false, nil
}

// PaymentRepositoryStub stores payment intents.
type PaymentRepositoryStub struct {
	mu       sync.Mutex
	Payments map[string]*model.Payment
	Err      error
}

func NewPaymentRepositoryStub() *PaymentRepositoryStub {
	return &PaymentRepositoryStub{Payments: make(map[string]*model.Payment)}
}

func (s *PaymentRepositoryStub) Create(ctx context.Context, payment *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	copied := *payment
	s.Payments[payment.ID] = &copied
	return nil
}

func (s *PaymentRepositoryStub) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, payment := range s.Payments {
		if payment.GatewayOrderID == gatewayOrderID {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *PaymentRepositoryStub) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, payment := range s.Payments {
		if payment.GatewayPaymentID == gatewayPaymentID {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *PaymentRepositoryStub) MarkSuccess(ctx context.Context, id, gatewayPaymentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.Payments[id]
	if !ok || payment.Status != model.PaymentRecordInitiated {
		return false, nil
	}
	payment.Status = model.PaymentRecordSuccess
	payment.GatewayPaymentID = gatewayPaymentID
	return true, nil
}

func (s *PaymentRepositoryStub) MarkFailed(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.Payments[id]
	if !ok || payment.Status != model.PaymentRecordInitiated {
		return false, nil
	}
	payment.Status = model.PaymentRecordFailed
	return true, nil
}

func (s *PaymentRepositoryStub) MarkRefunded(ctx context.Context, id, refundID string, amount float64, partial bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.Payments[id]
	if !ok {
		return false, nil
	}
	if payment.Status != model.PaymentRecordSuccess && payment.Status != model.PaymentRecordPartiallyRefunded {
		return false, nil
	}
	for _, applied := range payment.RefundIDs {
		if applied == refundID {
			return false, nil
		}
	}
	payment.RefundIDs = append(payment.RefundIDs, refundID)
	payment.RefundedAmount += amount
	if partial {
		payment.Status = model.PaymentRecordPartiallyRefunded
	} else {
		payment.Status = model.PaymentRecordRefunded
	}
	return true, nil
}

// ShipmentRepositoryStub stores shipments with conditional transitions.
type ShipmentRepositoryStub struct {
	mu        sync.Mutex
	Shipments map[string]*model.Shipment
	Err       error
}

func NewShipmentRepositoryStub() *ShipmentRepositoryStub {
	return &ShipmentRepositoryStub{Shipments: make(map[string]*model.Shipment)}
}

func (s *ShipmentRepositoryStub) Create(ctx context.Context, shipment *model.Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	copied := *shipment
	copied.ItemIDs = append([]string(nil), shipment.ItemIDs...)
	copied.History = append([]model.ShipmentEvent(nil), shipment.History...)
	s.Shipments[shipment.ID] = &copied
	return nil
}

func (s *ShipmentRepositoryStub) GetByID(ctx context.Context, id string) (*model.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if shipment, ok := s.Shipments[id]; ok {
		copied := *shipment
		copied.ItemIDs = append([]string(nil), shipment.ItemIDs...)
		copied.History = append([]model.ShipmentEvent(nil), shipment.History...)
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *ShipmentRepositoryStub) ExistsForItems(ctx context.Context, orderID string, itemIDs []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, shipment := range s.Shipments {
		if shipment.OrderID != orderID {
			continue
		}
		for _, have := range shipment.ItemIDs {
			for _, want := range itemIDs {
				if have == want {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func (s *ShipmentRepositoryStub) Transition(ctx context.Context, id string, from, to model.ShipmentStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shipment, ok := s.Shipments[id]
	if !ok || shipment.Status != from {
		return false, nil
	}
	shipment.Status = to
	shipment.History = append(shipment.History, model.ShipmentEvent{Status: to, At: at})
	return true, nil
}

// CouponRepositoryStub stores coupon definitions and usage records.
type CouponRepositoryStub struct {
	mu      sync.Mutex
	Coupons map[string]*model.Coupon
	Usages  []model.CouponUsage
	Err     error
}

func NewCouponRepositoryStub() *CouponRepositoryStub {
	return &CouponRepositoryStub{Coupons: make(map[string]*model.Coupon)}
}

func (s *CouponRepositoryStub) Find(ctx context.Context, code string) (*model.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if coupon, ok := s.Coupons[code]; ok {
		copied := *coupon
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *CouponRepositoryStub) RecordUsage(ctx context.Context, usage *model.CouponUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Usages = append(s.Usages, *usage)
	return nil
}

func (s *CouponRepositoryStub) CountUsage(ctx context.Context, code, userID string) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total, byUser int64
	for _, usage := range s.Usages {
		if usage.Code != code {
			continue
		}
		total++
		if usage.UserID == userID {
			byUser++
		}
	}
	return total, byUser, nil
}

// ScheduledJobRepositoryStub is the in-memory delayed-job store.
type ScheduledJobRepositoryStub struct {
	mu          sync.Mutex
	Jobs        []model.ScheduledJob
	ScheduleErr error
	next        int
}

func NewScheduledJobRepositoryStub() *ScheduledJobRepositoryStub {
	return &ScheduledJobRepositoryStub{}
}

func (s *ScheduledJobRepositoryStub) ScheduleAutoCancel(ctx context.Context, orderID string, runAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ScheduleErr != nil {
		return s.ScheduleErr
	}
	s.next++
	s.Jobs = append(s.Jobs, model.ScheduledJob{
		ID:      RandomASCIIString(8, 8),
		Kind:    model.JobKindAutoCancel,
		OrderID: orderID,
		RunAt:   runAt,
	})
	return nil
}

func (s *ScheduledJobRepositoryStub) ClaimDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var claimed []model.ScheduledJob
	for i := range s.Jobs {
		if len(claimed) >= limit {
			break
		}
		if s.Jobs[i].DoneAt == nil && !s.Jobs[i].RunAt.After(now) {
			done := now
			s.Jobs[i].DoneAt = &done
			claimed = append(claimed, s.Jobs[i])
		}
	}
	return claimed, nil
}
