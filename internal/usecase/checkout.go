package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tanmaydk/shopcore/internal/adapter/gateway"
	"github.com/tanmaydk/shopcore/internal/config"
	domainErrors "github.com/tanmaydk/shopcore/internal/domain/errors"
	"github.com/tanmaydk/shopcore/internal/domain/model"
	"github.com/tanmaydk/shopcore/internal/domain/repository"
	"github.com/tanmaydk/shopcore/internal/lock"
	"github.com/tanmaydk/shopcore/internal/pkg/ordernum"
	"github.com/tanmaydk/shopcore/internal/pricing"
	"github.com/tanmaydk/shopcore/internal/queue"
)

// CreateDraftInput is the checkout request after transport-level decoding.
type CreateDraftInput struct {
	CartID          string
	ShippingAddress model.Address
	BillingAddress  model.Address
	PaymentMethod   model.PaymentMethod
	CouponCode      string
}

// CheckoutResult is the outcome of a successful checkout: the draft, the
// created order and, for online methods, the gateway payment intent.
type CheckoutResult struct {
	Draft  *model.CheckoutDraft
	Order  *model.Order
	Intent *gateway.Intent
}

/// CheckoutUseCase owns the cart-to-order workflow: validation, stock
// reservation, pricing, order and draft creation, the auto-cancel safeguard
// and payment initiation.
type CheckoutUseCase struct {
	factory repository.Factory
	locker  lock.Locker
	pricing pricing.Engine
	gateway gateway.Client
	queue   queue.Publisher
	numbers ordernum.Generator
	logger  *slog.Logger

	draftTTL      time.Duration
	couponLockTTL time.Duration
}

// NewCheckoutUseCase constructs CheckoutUseCase.
func NewCheckoutUseCase(
	factory repository.Factory,
	locker lock.Locker,
	engine pricing.Engine,
	gatewayClient gateway.Client,
	publisher queue.Publisher,
	numbers ordernum.Generator,
	cfg *config.Config,
	logger *slog.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		factory:       factory,
		locker:        locker,
		pricing:       engine,
		gateway:       gatewayClient,
		queue:         publisher,
		numbers:       numbers,
		logger:        logger,
		draftTTL:      cfg.DraftTTL,
		couponLockTTL: cfg.CouponLockTTL,
	}
}

type reservedLine struct {
	productID string
	qty       int64
}

// CreateDraft runs the checkout workflow for the user's active cart.
//
// The monetary snapshot is computed server-side; client-submitted totals are
// ignored. Stock is held per line via atomic reservations, and the whole
// write set runs inside one unit of work. When the store cannot provide a
// transaction the reservations are compensated by hand on failure.
func (u *CheckoutUseCase) CreateDraft(ctx context.Context, userID string, in CreateDraftInput) (*CheckoutResult, error) {
	cart, err := u.factory.Carts().GetActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.Empty() {
		return nil, domainErrors.ErrEmptyCart
	}
	if in.CartID != "" && in.CartID != cart.ID {
		return nil, domainErrors.ErrCartMismatch
	}
	if in.ShippingAddress.Empty() {
		return nil, domainErrors.ErrMissingAddress
	}
	billing := in.BillingAddress
	if billing.Empty() {
		billing = in.ShippingAddress
	}
	method := in.PaymentMethod
	if method == "" {
		method = model.PaymentMethodRazorpay
	}

	coupon, release, err := u.claimCoupon(ctx, userID, in.CouponCode)
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now().UTC()
	orderID := uuid.NewString()

	uow, wctx, err := u.factory.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.End(ctx)

	var reserved []reservedLine
	rollback := func() {
		if abortErr := uow.Abort(ctx); abortErr != nil {
			u.logger.Error("abort failed", slog.String("order_id", orderID), slog.String("error", abortErr.Error()))
		}
		if !uow.Transactional() {
			u.releaseReservations(ctx, orderID, reserved, "checkout rolled back")
		}
	}

	lines := make([]pricing.Line, 0, len(cart.Lines))
	for _, cl := range cart.Lines {
		if cl.Quantity <= 0 {
			rollback()
			return nil, domainErrors.ErrInvalidQuantity
		}
		product, err := u.factory.Products().Find(wctx, cl.ProductID)
		if err != nil {
			rollback()
			return nil, err
		}
		if !product.Sellable {
			rollback()
			return nil, fmt.Errorf("%w: %s", domainErrors.ErrProductUnavailable, product.ID)
		}
		if err := u.factory.Products().Reserve(wctx, product.ID, cl.Quantity, orderID); err != nil {
			rollback()
			return nil, err
		}
		reserved = append(reserved, reservedLine{productID: product.ID, qty: cl.Quantity})

		lines = append(lines, pricing.Line{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  cl.Quantity,
			UnitPrice: product.UnitPrice(cl.Quantity),
			TaxSlab:   product.TaxSlab,
			HSNCode:   product.HSNCode,
		})
	}

	totals, perLine, err := u.pricing.CalculateTotals(lines, in.ShippingAddress, method, coupon)
	if err != nil {
		rollback()
		return nil, err
	}

	order := u.buildOrder(orderID, userID, lines, perLine, totals, in.ShippingAddress, billing, method, in.CouponCode, now)
	if err := u.factory.Orders().Create(wctx, order); err != nil {
		rollback()
		return nil, err
	}

	draft := &model.CheckoutDraft{
		ID:              uuid.NewString(),
		UserID:          userID,
		CartID:          cart.ID,
		Lines:           draftLines(lines),
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  billing,
		PaymentMethod:   method,
		CouponCode:      in.CouponCode,
		Totals:          totals,
		Status:          model.DraftStatusDraft,
		OrderID:         order.ID,
		ExpiresAt:       now.Add(u.draftTTL),
		CreatedAt:       now,
	}
	if err := u.factory.Drafts().Create(wctx, draft); err != nil {
		rollback()
		return nil, err
	}

	if coupon != nil {
		usage := &model.CouponUsage{
			ID:      uuid.NewString(),
			Code:    coupon.Code,
			UserID:  userID,
			OrderID: order.ID,
			UsedAt:  now,
		}
		if err := u.factory.Coupons().RecordUsage(wctx, usage); err != nil {
			rollback()
			return nil, err
		}
	}

	if err := uow.Commit(ctx); err != nil {
		rollback()
		return nil, err
	}

	// The order must never outlive checkout without its expiry safeguard.
	// A scheduling failure undoes the committed checkout via compensation.
	if method.Online() {
		if err := u.factory.Jobs().ScheduleAutoCancel(ctx, order.ID, draft.ExpiresAt); err != nil {
			u.compensateCheckout(ctx, order, draft)
			return nil, fmt.Errorf("%w: %s", domainErrors.ErrSchedulerFailure, err)
		}
	}

	if err := u.factory.Carts().Clear(ctx, cart.ID); err != nil {
		u.logger.Warn("cart not cleared after checkout",
			slog.String("cart_id", cart.ID), slog.String("error", err.Error()))
	}
	u.notify(ctx, order.ID, string(model.OrderStatusCreated))

	result := &CheckoutResult{Draft: draft, Order: order}
	if !method.Online() {
		if _, err := u.factory.Drafts().MarkPending(ctx, draft.ID); err == nil {
			draft.Status = model.DraftStatusPending
		}
		return result, nil
	}

	intent, err := u.initiatePayment(ctx, order)
	if err != nil {
		// Checkout stands; the buyer retries via the retry-payment endpoint
		// and the auto-cancel safeguard cleans up if they never do.
		u.logger.Error("payment initiation failed",
			slog.String("order_id", order.ID), slog.String("error", err.Error()))
		return result, nil
	}
	result.Intent = intent
	if _, err := u.factory.Drafts().MarkPending(ctx, draft.ID); err == nil {
		draft.Status = model.DraftStatusPending
	}
	return result, nil
}

// GetDraft returns the user's draft, lazily flipping it to expired when its
// TTL passed. Inventory release is left to the scheduled auto-cancel job.
func (u *CheckoutUseCase) GetDraft(ctx context.Context, userID, draftID string) (*model.CheckoutDraft, error) {
	draft, err := u.factory.Drafts().GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.UserID != userID {
		return nil, domainErrors.ErrNotFound
	}
	if !draft.Status.Terminal() && draft.Expired(time.Now().UTC()) {
		if _, err := u.factory.Drafts().Expire(ctx, draft.ID); err != nil {
			return nil, err
		}
		draft.Status = model.DraftStatusExpired
	}
	return draft, nil
}

// GetOrder returns the user's order.
func (u *CheckoutUseCase) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := u.factory.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domainErrors.ErrNotFound
	}
	return order, nil
}

// RetryPayment re-initiates the gateway intent for a live unpaid draft. It
// never touches stock: the original reservation is still held.
func (u *CheckoutUseCase) RetryPayment(ctx context.Context, userID, draftID string) (*CheckoutResult, error) {
	draft, err := u.factory.Drafts().GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.UserID != userID {
		return nil, domainErrors.ErrNotFound
	}
	if draft.Expired(time.Now().UTC()) || draft.Status == model.DraftStatusExpired {
		return nil, domainErrors.ErrDraftExpired
	}
	if draft.Status.Terminal() || !draft.PaymentMethod.Online() {
		return nil, domainErrors.ErrRetryNotEligible
	}

	order, err := u.factory.Orders().GetByID(ctx, draft.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != model.PaymentStatusPending || order.Status != model.OrderStatusCreated {
		return nil, domainErrors.ErrRetryNotEligible
	}

	intent, err := u.initiatePayment(ctx, order)
	if err != nil {
		return nil, err
	}
	if _, err := u.factory.Drafts().MarkPending(ctx, draft.ID); err == nil && draft.Status == model.DraftStatusDraft {
		draft.Status = model.DraftStatusPending
	}
	return &CheckoutResult{Draft: draft, Order: order, Intent: intent}, nil
}

// CancelExpired is the auto-cancel job body: cancel the order unless payment
// won the race, then release the held stock and expire the draft.
func (u *CheckoutUseCase) CancelExpired(ctx context.Context, orderID string) error {
	order, err := u.factory.Orders().GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			u.logger.Warn("auto-cancel job for unknown order", slog.String("order_id", orderID))
			return nil
		}
		return err
	}

	cancelled, err := u.factory.Orders().CancelIfUnpaid(ctx, order.ID)
	if err != nil {
		return err
	}
	if !cancelled {
		u.logger.Info("auto-cancel skipped, order no longer cancellable",
			slog.String("order_id", order.ID),
			slog.String("payment_status", string(order.PaymentStatus)))
		return nil
	}

	for _, item := range order.Items {
		if err := u.factory.Products().Release(ctx, item.ProductID, item.Quantity, order.ID, "auto-cancel on payment timeout"); err != nil {
			u.logger.Error("reservation release failed during auto-cancel",
				slog.String("order_id", order.ID),
				slog.String("product_id", item.ProductID),
				slog.String("error", err.Error()))
		}
	}

	if draft, err := u.factory.Drafts().GetByOrderID(ctx, order.ID); err == nil {
		if _, err := u.factory.Drafts().Expire(ctx, draft.ID); err != nil {
			u.logger.Error("draft expiry failed during auto-cancel",
				slog.String("draft_id", draft.ID), slog.String("error", err.Error()))
		}
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		return err
	}

	u.notify(ctx, order.ID, string(model.OrderStatusCancelled))
	return nil
}

// ExpireStaleDrafts flips every overdue draft to expired. It is a status
// sweep only; inventory cleanup stays with the per-order auto-cancel jobs.
func (u *CheckoutUseCase) ExpireStaleDrafts(ctx context.Context) (int64, error) {
	return u.factory.Drafts().ExpireStale(ctx, time.Now().UTC())
}

// claimCoupon validates the coupon and takes the per-user redemption lock.
// The returned release func is always safe to call.
func (u *CheckoutUseCase) claimCoupon(ctx context.Context, userID, code string) (*model.Coupon, func(), error) {
	noop := func() {}
	if code == "" {
		return nil, noop, nil
	}

	coupon, err := u.factory.Coupons().Find(ctx, code)
	if err != nil {
		return nil, noop, err
	}
	if !coupon.Active {
		return nil, noop, domainErrors.ErrCouponExhausted
	}

	holder := uuid.NewString()
	key := lock.CouponKey(code, userID)
	ok, err := u.locker.Acquire(ctx, key, holder, u.couponLockTTL)
	if err != nil {
		return nil, noop, err
	}
	if !ok {
		return nil, noop, domainErrors.ErrCouponLocked
	}
	release := func() {
		if err := u.locker.Release(context.WithoutCancel(ctx), key, holder); err != nil {
			u.logger.Warn("coupon lock release failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	total, byUser, err := u.factory.Coupons().CountUsage(ctx, code, userID)
	if err != nil {
		release()
		return nil, noop, err
	}
	if coupon.UsageLimit > 0 && total >= coupon.UsageLimit {
		release()
		return nil, noop, domainErrors.ErrCouponExhausted
	}
	if coupon.PerUserLimit > 0 && byUser >= coupon.PerUserLimit {
		release()
		return nil, noop, domainErrors.ErrCouponExhausted
	}
	return coupon, release, nil
}

// initiatePayment opens a gateway intent and records the payment attempt.
func (u *CheckoutUseCase) initiatePayment(ctx context.Context, order *model.Order) (*gateway.Intent, error) {
	intent, err := u.gateway.InitiatePayment(ctx, gateway.InitiateRequest{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Amount:      order.Totals.GrandTotal,
		Currency:    "INR",
		Method:      order.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payment := &model.Payment{
		ID:             uuid.NewString(),
		OrderID:        order.ID,
		Gateway:        intent.Gateway,
		GatewayOrderID: intent.GatewayOrderID,
		Amount:         order.Totals.GrandTotal,
		Currency:       "INR",
		Status:         model.PaymentRecordInitiated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.factory.Payments().Create(ctx, payment); err != nil {
		return nil, err
	}
	return intent, nil
}

// compensateCheckout unwinds a committed checkout whose auto-cancel job could
// not be scheduled.
func (u *CheckoutUseCase) compensateCheckout(ctx context.Context, order *model.Order, draft *model.CheckoutDraft) {
	u.logger.Error("auto-cancel scheduling failed, compensating checkout", slog.String("order_id", order.ID))

	if _, err := u.factory.Orders().CancelIfUnpaid(ctx, order.ID); err != nil {
		u.logger.Error("compensation order cancel failed",
			slog.String("order_id", order.ID), slog.String("error", err.Error()))
	}
	lines := make([]reservedLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, reservedLine{productID: item.ProductID, qty: item.Quantity})
	}
	u.releaseReservations(ctx, order.ID, lines, "checkout compensated, scheduler unavailable")
	if _, err := u.factory.Drafts().Expire(ctx, draft.ID); err != nil {
		u.logger.Error("compensation draft expiry failed",
			slog.String("draft_id", draft.ID), slog.String("error", err.Error()))
	}
}

func (u *CheckoutUseCase) releaseReservations(ctx context.Context, orderID string, reserved []reservedLine, note string) {
	for _, r := range reserved {
		if err := u.factory.Products().Release(ctx, r.productID, r.qty, orderID, note); err != nil {
			u.logger.Error("reservation release failed",
				slog.String("order_id", orderID),
				slog.String("product_id", r.productID),
				slog.String("error", err.Error()))
		}
	}
}

func (u *CheckoutUseCase) notify(ctx context.Context, orderID, status string) {
	if err := u.queue.EnqueueStatusNotification(ctx, orderID, status); err != nil {
		u.logger.Warn("status notification not published",
			slog.String("order_id", orderID),
			slog.String("status", status),
			slog.String("error", err.Error()))
	}
}

func (u *CheckoutUseCase) buildOrder(
	orderID, userID string,
	lines []pricing.Line,
	perLine []pricing.LineTotals,
	totals model.Totals,
	shipping, billing model.Address,
	method model.PaymentMethod,
	couponCode string,
	now time.Time,
) *model.Order {
	items := make([]model.OrderItem, len(lines))
	for i, line := range lines {
		items[i] = model.OrderItem{
			ID:           uuid.NewString(),
			ProductID:    line.ProductID,
			Name:         line.Name,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			Discount:     perLine[i].Discount,
			TaxAmount:    perLine[i].TaxAmount,
			TaxBreakdown: perLine[i].TaxBreakdown,
			LineTotal:    perLine[i].LineTotal,
			Status:       model.ItemStatusPending,
		}
	}
	return &model.Order{
		ID:              orderID,
		UserID:          userID,
		Number:          u.numbers.Next(now),
		ShippingAddress: shipping,
		BillingAddress:  billing,
		PaymentMethod:   method,
		CouponCode:      couponCode,
		Totals:          totals,
		PaymentStatus:   model.PaymentStatusPending,
		Status:          model.OrderStatusCreated,
		Items:           items,
		PlacedAt:        now,
		UpdatedAt:       now,
	}
}

func draftLines(lines []pricing.Line) []model.DraftLine {
	out := make([]model.DraftLine, len(lines))
	for i, line := range lines {
		out[i] = model.DraftLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
	}
	return out
}
