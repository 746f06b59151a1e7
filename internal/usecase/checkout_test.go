package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/tanmaydk/shopcore/internal/adapter/gateway"
	"github.com/tanmaydk/shopcore/internal/config"
	domainErrors "github.com/tanmaydk/shopcore/internal/domain/errors"
	"github.com/tanmaydk/shopcore/internal/domain/model"
	"github.com/tanmaydk/shopcore/internal/lock"
	"github.com/tanmaydk/shopcore/internal/pkg/ordernum"
	"github.com/tanmaydk/shopcore/internal/pricing"
	"github.com/tanmaydk/shopcore/internal/test"
	"github.com/tanmaydk/shopcore/internal/usecase"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type checkoutFixture struct {
	uc        *usecase.CheckoutUseCase
	factory   *test.FactoryStub
	locker    *test.LockerStub
	gateway   *test.GatewayStub
	publisher *test.PublisherStub
}

func newCheckoutFixture() *checkoutFixture {
	factory := test.NewFactoryStub()
	locker := test.NewLockerStub()
	gatewayStub := &test.GatewayStub{}
	publisher := &test.PublisherStub{}
	cfg := &config.Config{
		DraftTTL:      20 * time.Minute,
		CouponLockTTL: time.Minute,
	}
	uc := usecase.NewCheckoutUseCase(
		factory,
		locker,
		pricing.NewGSTEngine("MH", 49, 999),
		gatewayStub,
		publisher,
		ordernum.New(),
		cfg,
		discardLogger(),
	)
	return &checkoutFixture{uc: uc, factory: factory, locker: locker, gateway: gatewayStub, publisher: publisher}
}

func seedCatalog(f *checkoutFixture) {
	f.factory.ProductRepo.Products["p1"] = &model.Product{
		ID: "p1", Name: "Widget", Sellable: true, StockQty: 10, RetailPrice: 100, TaxSlab: 18,
	}
	f.factory.CartRepo.Carts["u1"] = &model.Cart{
		ID:     "cart-1",
		UserID: "u1",
		Lines:  []model.CartLine{{ProductID: "p1", Name: "Widget", Quantity: 2, UnitPrice: 100}},
	}
}

func shippingAddress() model.Address {
	return model.Address{Name: "A Kumar", Line1: "1 MG Road", City: "Pune", State: "MH", PostalCode: "411001", Phone: "9999999999"}
}

func TestCreateDraftSuccess(t *testing.T) {
	f := newCheckoutFixture()
	seedCatalog(f)

	result, err := f.uc.CreateDraft(context.Background(), "u1", usecase.CreateDraftInput{
		CartID:          "cart-1",
		ShippingAddress: shippingAddress(),
		PaymentMethod:   model.PaymentMethodRazorpay,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Intent == nil {
		t.Fatal("expected gateway intent for online method")
	}
	if result.Draft.Status != model.DraftStatusPending {
		t.Errorf("draft status = %s, want pending after payment initiation", result.Draft.Status)
	}
	if result.Draft.Totals.GrandTotal != 285 {
		t.Errorf("grand total = %v, want 285", result.Draft.Totals.GrandTotal)
	}

	order, err := f.factory.OrderRepo.GetByID(context.Background(), result.Order.ID)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if order.PaymentStatus != model.PaymentStatusPending || order.Status != model.OrderStatusCreated {
		t.Errorf("order state = %s/%s, want pending/created", order.PaymentStatus, order.Status)
	}

	product, _ := f.factory.ProductRepo.Find(context.Background(), "p1")
	if product.ReservedQty != 2 {
		t.Errorf("reserved qty = %d, want 2", product.ReservedQty)
	}

	if len(f.factory.JobRepo.Jobs) != 1 {
		t.Fatalf("scheduled jobs = %d, want 1", len(f.factory.JobRepo.Jobs))
	}
	if !f.factory.JobRepo.Jobs[0].RunAt.Equal(result.Draft.ExpiresAt) {
		t.Errorf("job run at %v, want draft expiry %v", f.factory.JobRepo.Jobs[0].RunAt, result.Draft.ExpiresAt)
	}

	if len(f.factory.CartRepo.Cleared) != 1 {
		t.Errorf("cart not cleared")
	}
	if len(f.factory.PaymentRepo.Payments) != 1 {
		t.Errorf("payment intent record not created")
	}
	if got := f.publisher.Statuses(result.Order.ID); len(got) != 1 || got[0] != "created" {
		t.Errorf("notifications = %v, want [created]", got)
	}
}

func TestCreateDraftCOD(t *testing.T) {
	f := newCheckoutFixture()
	seedCatalog(f)

	result, err := f.uc.CreateDraft(context.Background(), "u1", usecase.CreateDraftInput{
		ShippingAddress: shippingAddress(),
		PaymentMethod:   model.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Intent != nil {
		t.Error("cod checkout must not open a gateway intent")
	}
	if len(f.gateway.Requests) != 0 {
		t.Error("gateway contacted for cod order")
	}
	if len(f.factory.JobRepo.Jobs) != 0 {
		t.Error("auto-cancel scheduled for cod order")
	}
	if result.Draft.Status != model.DraftStatusPending {
		t.Errorf("draft status = %s, want pending", result.Draft.Status)
	}
}

func TestCreateDraftValidation(t *testing.T) {
	f := newCheckoutFixture()
	seedCatalog(f)

	_, err := f.uc.CreateDraft(context.Background(), "u1", usecase.CreateDraftInput{
		CartID:          "other-cart",
		ShippingAddress: shippingAddress(),
	})
	if !errors.Is(err, domainErrors.ErrCartMismatch) {
		t.Errorf("cart mismatch err = %v", err)
	}

	_, err = f.uc.CreateDraft(context.Background(), "u1", usecase.CreateDraftInput{})
	if !errors.Is(err, domainErrors.ErrMissingAddress) {
		t.Errorf("missing address err = %v", err)
	}

	f.factory.CartRepo.Carts["u2"] = &model.Cart{ID: "cart-2", UserID: "u2"}
	_, err = f.uc.CreateDraft(context.Background(), "u2", usecase.CreateDraftInput{ShippingAddress: shippingAddress()})
	if !errors.Is(err, domainErrors.ErrEmptyCart) {
		t.Errorf("empty cart err = %v", err)
	}
}

func TestCreateDraftInsufficientStockReleasesEarlierLines(t *testing.T) {
	f := newCheckoutFixture()
	seedCatalog(f)
	f.factory.ProductRepo.Products["p2"] = &model.Product{
		ID: "p2", Name: "Gadget", Sellable: true, StockQty: 3, RetailPrice: 50, TaxSlab: 18,
	}
	f.factory.CartRepo.Carts["u1"].Lines = []model.CartLine{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p2", Quantity: 5},
	}

	_, err := f.uc.CreateDraft(context.Background(), "u1", usecase.CreateDraftInput{ShippingAddress: shippingAddress()})
	if !errors.Is(err, domainErrors.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// Degraded mode: the first line's hold must be compensated by hand.
	p1, _ := f.factory.ProductRepo.Find(context.Background(), "p1")
	if p1.ReservedQty != 0 {
		t.Errorf("p1 reserved = %d, want 0 after rollback", p1.ReservedQty)
	}
	if len(f.factory.OrderRepo.Orders) != 0 {
		t.Error("order persisted despite failed checkout")
	}
}

func TestCreateDraftUnsellableProduct(t *testing.T) {
	f := newCheckoutFixture()
	seedCatalog(f)
	f.factory.ProductRepo.Products["p1"].Sellable = false

	_, err := f.uc.CreateDraft(context.Background(), "u1", usecase.CreateDraftInput{ShippingAddress: shippingAddress()})
	if !errors.Is(err, domainErrors.ErrProductUnavailable) {
		t.Fatalf("err = %v, want ErrProductUnavailable", err)
	}
}

func TestCreateDraftCouponLocked(t *testing.T) {
	f := newCheckoutFixture()
	seedCatalog(f)
	f.factory.CouponRepo.Coupons["SAVE10"] = &model.Coupon{Code: "SAVE10", Type: model.CouponTypePercent, Value: 10, Active: true}

	key := lock.CouponKey("SAVE10", "u1")
	if ok, _ := f.locker.Acquire(context.Background(), key, "other-request", time.Minute); !ok {
		t.Fatal("test lock setup failed")
	}

	_, err := f.uc.CreateDraft(context.Background(), "u1", usecase.CreateDraftInput{
		ShippingAddress: shippingAddress(),
		CouponCode:      "SAVE10",
	})
	if !errors.Is(err, domainErrors.ErrCouponLocked) {
		t.Fatalf("err = %v, want ErrCouponLocked", err)
	}

	p1, _ := f.factory.ProductRepo.Find(context.Background(), "p1")
	if p1.ReservedQty != 0 {
		t.Errorf("stock reserved despite lock contention")
	}
}

func TestCreateDraftCouponExhausted(t *testing.T) {
	f := newCheckoutFixture()
	seedCatalog(f)
	f.factory.CouponRepo.Coupons["ONCE"] = &model.Coupon{Code: "ONCE", Type: model.CouponTypeFlat, Value: 10, UsageLimit: 1, Active: true}
	f.factory.CouponRepo.Usages = []model.CouponUsage{{Code: "ONCE", UserID: "someone-else"}}

	_, err := f.uc.CreateDraft(context.Background(), "u1", usecase.CreateDraftInput{
		ShippingAddress: shippingAddress(),
		CouponCode:      "ONCE",
	})
	if !errors.Is(err, domainErrors.ErrCouponExhausted) {
		t.Fatalf("err = %v, want ErrCouponExhausted", err)
	}
	if f.locker.Held(lock.CouponKey("ONCE", "u1")) {
		t.Error("coupon lock leaked after rejection")
	}
}

func TestCreateDraftCouponLockReleasedAfterSuccess(t *testing.T) {
	f := newCheckoutFixture()
	seedCatalog(f)
	f.factory.CouponRepo.Coupons["SAVE10"] = &model.Coupon{Code: "SAVE10", Type: model.CouponTypePercent, Value: 10, Active: true}

	_, err := f.uc.CreateDraft(context.Background(), "u1", usecase.CreateDraftInput{
		ShippingAddress: shippingAddress(),
		CouponCode:      "SAVE10",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.locker.Held(lock.CouponKey("SAVE10", "u1")) {
		t.Error("coupon lock still held after checkout returned")
	}
	if len(f.factory.CouponRepo.Usages) != 1 {
		t.Errorf("usages = %d, want 1", len(f.factory.CouponRepo.Usages))
	}
}

func TestCreateDraftConcurrentCouponUse(t *testing.T) {
	f := newCheckoutFixture()
	seedCatalog(f)
	f.factory.CouponRepo.Coupons["SOLO"] = &model.Coupon{Code: "SOLO", Type: model.CouponTypeFlat, Value: 10, PerUserLimit: 1, Active: true}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.CreateDraft(context.Background(), "u1", usecase.CreateDraftInput{
				ShippingAddress: shippingAddress(),
				CouponCode:      "SOLO",
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes++
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("successes = %d, want exactly 1", successes)
	}
	for _, err := range failures {
		if !errors.Is(err, domainErrors.ErrCouponLocked) && !errors.Is(err, domainErrors.ErrCouponExhausted) {
			t.Errorf("unexpected concurrent failure: %v", err)
		}
	}
}

func TestCreateDraftSchedulerFailureCompensates(t *testing.T) {
	f := newCheckoutFixture()
	seedCatalog(f)
	f.factory.JobRepo.ScheduleErr = errors.New("job store down")

	_, err := f.uc.CreateDraft(context.Background(), "u1", usecase.CreateDraftInput{ShippingAddress: shippingAddress()})
	if !errors.Is(err, domainErrors.ErrSchedulerFailure) {
		t.Fatalf("err = %v, want ErrSchedulerFailure", err)
	}

	for _, order := range f.factory.OrderRepo.Orders {
		if order.Status != model.OrderStatusCancelled {
			t.Errorf("order status = %s, want cancelled after compensation", order.Status)
		}
	}
	p1, _ := f.factory.ProductRepo.Find(context.Background(), "p1")
	if p1.ReservedQty != 0 {
		t.Errorf("reserved = %d, want 0 after compensation", p1.ReservedQty)
	}
	for _, draft := range f.factory.DraftRepo.Drafts {
		if draft.Status != model.DraftStatusExpired {
			t.Errorf("draft status = %s, want expired after compensation", draft.Status)
		}
	}
}

func TestCreateDraftPaymentInitiationFailureKeepsCheckout(t *testing.T) {
	f := newCheckoutFixture()
	seedCatalog(f)
	f.gateway.InitiateFn = func(context.Context, gateway.InitiateRequest) (*gateway.Intent, error) {
		return nil, gateway.ErrGatewayUnavailable
	}

	result, err := f.uc.CreateDraft(context.Background(), "u1", usecase.CreateDraftInput{ShippingAddress: shippingAddress()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Intent != nil {
		t.Error("intent returned despite gateway failure")
	}
	if result.Draft.Status != model.DraftStatusDraft {
		t.Errorf("draft status = %s, want draft until a retry succeeds", result.Draft.Status)
	}
	if len(f.factory.JobRepo.Jobs) != 1 {
		t.Error("auto-cancel safeguard missing")
	}
}

func TestGetDraftLazyExpiry(t *testing.T) {
	f := newCheckoutFixture()
	f.factory.DraftRepo.Drafts["d1"] = &model.CheckoutDraft{
		ID:        "d1",
		UserID:    "u1",
		Status:    model.DraftStatusPending,
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}

	draft, err := f.uc.GetDraft(context.Background(), "u1", "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Status != model.DraftStatusExpired {
		t.Errorf("status = %s, want expired", draft.Status)
	}
	stored, _ := f.factory.DraftRepo.GetByID(context.Background(), "d1")
	if stored.Status != model.DraftStatusExpired {
		t.Errorf("stored status = %s, want expired", stored.Status)
	}
}

func TestGetDraftOwnership(t *testing.T) {
	f := newCheckoutFixture()
	f.factory.DraftRepo.Drafts["d1"] = &model.CheckoutDraft{
		ID: "d1", UserID: "u1", Status: model.DraftStatusDraft, ExpiresAt: time.Now().UTC().Add(time.Hour),
	}

	if _, err := f.uc.GetDraft(context.Background(), "intruder", "d1"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for foreign draft", err)
	}
}

func TestRetryPayment(t *testing.T) {
	f := newCheckoutFixture()
	f.factory.OrderRepo.Orders["o1"] = &model.Order{
		ID: "o1", UserID: "u1", PaymentMethod: model.PaymentMethodRazorpay,
		PaymentStatus: model.PaymentStatusPending, Status: model.OrderStatusCreated,
		Totals: model.Totals{GrandTotal: 285},
	}
	f.factory.DraftRepo.Drafts["d1"] = &model.CheckoutDraft{
		ID: "d1", UserID: "u1", OrderID: "o1",
		PaymentMethod: model.PaymentMethodRazorpay,
		Status:        model.DraftStatusPending,
		ExpiresAt:     time.Now().UTC().Add(time.Hour),
	}

	result, err := f.uc.RetryPayment(context.Background(), "u1", "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Intent == nil {
		t.Fatal("expected a fresh gateway intent")
	}
	if len(f.factory.PaymentRepo.Payments) != 1 {
		t.Errorf("payments = %d, want 1 new intent record", len(f.factory.PaymentRepo.Payments))
	}
	if len(f.factory.ProductRepo.Reserves) != 0 {
		t.Error("retry must never touch stock")
	}
}

func TestRetryPaymentEligibility(t *testing.T) {
	f := newCheckoutFixture()
	now := time.Now().UTC()

	f.factory.DraftRepo.Drafts["expired"] = &model.CheckoutDraft{
		ID: "expired", UserID: "u1", PaymentMethod: model.PaymentMethodRazorpay,
		Status: model.DraftStatusPending, ExpiresAt: now.Add(-time.Minute),
	}
	if _, err := f.uc.RetryPayment(context.Background(), "u1", "expired"); !errors.Is(err, domainErrors.ErrDraftExpired) {
		t.Errorf("expired draft err = %v, want ErrDraftExpired", err)
	}

	f.factory.DraftRepo.Drafts["paid"] = &model.CheckoutDraft{
		ID: "paid", UserID: "u1", PaymentMethod: model.PaymentMethodRazorpay,
		Status: model.DraftStatusPaid, ExpiresAt: now.Add(time.Hour),
	}
	if _, err := f.uc.RetryPayment(context.Background(), "u1", "paid"); !errors.Is(err, domainErrors.ErrRetryNotEligible) {
		t.Errorf("paid draft err = %v, want ErrRetryNotEligible", err)
	}

	f.factory.DraftRepo.Drafts["cod"] = &model.CheckoutDraft{
		ID: "cod", UserID: "u1", PaymentMethod: model.PaymentMethodCOD,
		Status: model.DraftStatusPending, ExpiresAt: now.Add(time.Hour),
	}
	if _, err := f.uc.RetryPayment(context.Background(), "u1", "cod"); !errors.Is(err, domainErrors.ErrRetryNotEligible) {
		t.Errorf("cod draft err = %v, want ErrRetryNotEligible", err)
	}

	f.factory.OrderRepo.Orders["o-paid"] = &model.Order{
		ID: "o-paid", UserID: "u1", PaymentStatus: model.PaymentStatusPaid, Status: model.OrderStatusConfirmed,
	}
	f.factory.DraftRepo.Drafts["late"] = &model.CheckoutDraft{
		ID: "late", UserID: "u1", OrderID: "o-paid", PaymentMethod: model.PaymentMethodRazorpay,
		Status: model.DraftStatusPending, ExpiresAt: now.Add(time.Hour),
	}
	if _, err := f.uc.RetryPayment(context.Background(), "u1", "late"); !errors.Is(err, domainErrors.ErrRetryNotEligible) {
		t.Errorf("paid order err = %v, want ErrRetryNotEligible", err)
	}
}

func TestCancelExpiredReleasesStock(t *testing.T) {
	f := newCheckoutFixture()
	f.factory.ProductRepo.Products["p1"] = &model.Product{ID: "p1", StockQty: 10, ReservedQty: 2}
	f.factory.OrderRepo.Orders["o1"] = &model.Order{
		ID: "o1", PaymentStatus: model.PaymentStatusPending, Status: model.OrderStatusCreated,
		Items: []model.OrderItem{{ID: "i1", ProductID: "p1", Quantity: 2}},
	}
	f.factory.DraftRepo.Drafts["d1"] = &model.CheckoutDraft{ID: "d1", OrderID: "o1", Status: model.DraftStatusPending}

	if err := f.uc.CancelExpired(context.Background(), "o1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order, _ := f.factory.OrderRepo.GetByID(context.Background(), "o1")
	if order.Status != model.OrderStatusCancelled {
		t.Errorf("order status = %s, want cancelled", order.Status)
	}
	p1, _ := f.factory.ProductRepo.Find(context.Background(), "p1")
	if p1.ReservedQty != 0 {
		t.Errorf("reserved = %d, want 0", p1.ReservedQty)
	}
	draft, _ := f.factory.DraftRepo.GetByID(context.Background(), "d1")
	if draft.Status != model.DraftStatusExpired {
		t.Errorf("draft status = %s, want expired", draft.Status)
	}
	if got := f.publisher.Statuses("o1"); len(got) != 1 || got[0] != "cancelled" {
		t.Errorf("notifications = %v, want [cancelled]", got)
	}
}

func TestCancelExpiredNoopAfterPayment(t *testing.T) {
	f := newCheckoutFixture()
	f.factory.ProductRepo.Products["p1"] = &model.Product{ID: "p1", StockQty: 8, ReservedQty: 0}
	f.factory.OrderRepo.Orders["o1"] = &model.Order{
		ID: "o1", PaymentStatus: model.PaymentStatusPaid, Status: model.OrderStatusConfirmed,
		Items: []model.OrderItem{{ID: "i1", ProductID: "p1", Quantity: 2}},
	}

	if err := f.uc.CancelExpired(context.Background(), "o1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order, _ := f.factory.OrderRepo.GetByID(context.Background(), "o1")
	if order.Status != model.OrderStatusConfirmed {
		t.Errorf("paid order mutated by auto-cancel: %s", order.Status)
	}
	if len(f.factory.ProductRepo.Releases) != 0 {
		t.Error("stock released for a paid order")
	}
	if len(f.publisher.Notifications) != 0 {
		t.Error("notification published for a no-op cancel")
	}
}

func TestExpireStaleDrafts(t *testing.T) {
	f := newCheckoutFixture()
	f.factory.DraftRepo.Drafts["old"] = &model.CheckoutDraft{
		ID: "old", Status: model.DraftStatusDraft, ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	f.factory.DraftRepo.Drafts["fresh"] = &model.CheckoutDraft{
		ID: "fresh", Status: model.DraftStatusDraft, ExpiresAt: time.Now().UTC().Add(time.Hour),
	}

	flipped, err := f.uc.ExpireStaleDrafts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flipped != 1 {
		t.Errorf("flipped = %d, want 1", flipped)
	}
}

func TestCreateDraftConcurrentStockContention(t *testing.T) {
	f := newCheckoutFixture()
	f.factory.ProductRepo.Products["p1"] = &model.Product{
		ID: "p1", Name: "Widget", Sellable: true, StockQty: 5, RetailPrice: 100, TaxSlab: 18,
	}
	const buyers = 8
	for i := 0; i < buyers; i++ {
		userID := fmt.Sprintf("u%d", i)
		f.factory.CartRepo.Carts[userID] = &model.Cart{
			ID:     "cart-" + userID,
			UserID: userID,
			Lines:  []model.CartLine{{ProductID: "p1", Name: "Widget", Quantity: 2, UnitPrice: 100}},
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded int
	var failures []error
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := f.uc.CreateDraft(context.Background(), userID, usecase.CreateDraftInput{
				ShippingAddress: shippingAddress(),
				PaymentMethod:   model.PaymentMethodRazorpay,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else {
				failures = append(failures, err)
			}
		}(fmt.Sprintf("u%d", i))
	}
	wg.Wait()

	// Five units at two per buyer admit exactly two winners.
	if succeeded != 2 {
		t.Fatalf("successful checkouts = %d, want 2", succeeded)
	}
	for _, err := range failures {
		if !errors.Is(err, domainErrors.ErrInsufficientStock) {
			t.Errorf("loser error = %v, want insufficient stock", err)
		}
	}
	product, _ := f.factory.ProductRepo.Find(context.Background(), "p1")
	if product.ReservedQty != 4 {
		t.Errorf("reserved = %d, want 4 held within stock", product.ReservedQty)
	}
}
