package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tanmaydk/shopcore/internal/cache"
	"github.com/tanmaydk/shopcore/internal/domain/repository"
)

const (
	collCarts        = "carts"
	collProducts     = "products"
	collDrafts       = "checkout_drafts"
	collOrders       = "orders"
	collPayments     = "payments"
	collShipments    = "shipments"
	collCoupons      = "coupons"
	collCouponUsages = "coupon_usages"
	collStockLedger  = "stock_ledger"
	collJobs         = "scheduled_jobs"
)

// topologyTTL bounds how long a cached topology answer is trusted.
const topologyTTL = 30 * time.Second

// Storage acts as repository facade backed by MongoDB.
type Storage struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
	stock  cache.Stock

	mu            sync.Mutex
	transactional bool
	topoCheckedAt time.Time
}

// New connects to the store, verifies connectivity, detects topology and
// creates indexes.
func New(ctx context.Context, uri, database string, stock cache.Stock, logger *slog.Logger) (*Storage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	storage := &Storage{
		client: client,
		db:     client.Database(database),
		logger: logger,
		stock:  stock,
	}

	if err := storage.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	storage.refreshTopology(ctx)
	return storage, nil
}

// Close releases the client.
func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// HealthCheck verifies store connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

// Transactional reports whether the store supports multi-document
// transactions. The topology answer is cached with a short TTL.
func (s *Storage) Transactional(ctx context.Context) bool {
	s.mu.Lock()
	stale := time.Since(s.topoCheckedAt) > topologyTTL
	s.mu.Unlock()
	if stale {
		s.refreshTopology(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactional
}

func (s *Storage) refreshTopology(ctx context.Context) {
	var hello struct {
		SetName string `bson:"setName"`
	}
	err := s.db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
	if err != nil {
		s.logger.Warn("topology check failed, assuming standalone", slog.String("error", err.Error()))
	}

	s.mu.Lock()
	s.transactional = hello.SetName != ""
	s.topoCheckedAt = time.Now()
	s.mu.Unlock()
}

// UnitOfWork is the session handle returned by Begin. The capability is an
// explicit value consulted by the caller, never inferred from the handle.
type UnitOfWork struct {
	session       mongo.Session
	transactional bool
}

// Begin opens a unit of work. When the store is a replica set it starts a
// real multi-document transaction and binds the session into the returned
// context. Otherwise the returned context is the caller's own: writes execute
// sequentially without rollback and callers must compensate on partial
// failure.
func (s *Storage) Begin(ctx context.Context) (repository.UnitOfWork, context.Context, error) {
	if !s.Transactional(ctx) {
		return &UnitOfWork{}, ctx, nil
	}

	session, err := s.client.StartSession()
	if err != nil {
		return nil, nil, fmt.Errorf("start session: %w", err)
	}
	if err := session.StartTransaction(); err != nil {
		session.EndSession(ctx)
		return nil, nil, fmt.Errorf("start transaction: %w", err)
	}

	return &UnitOfWork{session: session, transactional: true}, mongo.NewSessionContext(ctx, session), nil
}

// Transactional reports whether Commit/Abort map to real ACID primitives.
func (u *UnitOfWork) Transactional() bool {
	return u.transactional
}

// Commit finishes the transaction. In degraded mode every write already
// landed, so this is a no-op.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.session == nil {
		return nil
	}
	return u.session.CommitTransaction(ctx)
}

// Abort rolls the transaction back. In degraded mode nothing can be undone
// here; callers compensate instead.
func (u *UnitOfWork) Abort(ctx context.Context) error {
	if u.session == nil {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// End releases the session. Safe on every exit path.
func (u *UnitOfWork) End(ctx context.Context) {
	if u.session != nil {
		u.session.EndSession(ctx)
	}
}

// Factory methods for domain repositories.
func (s *Storage) Carts() repository.CartRepository {
	return &cartRepository{storage: s}
}

func (s *Storage) Products() repository.ProductRepository {
	return &productRepository{storage: s}
}

func (s *Storage) Drafts() repository.DraftRepository {
	return &draftRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Payments() repository.PaymentRepository {
	return &paymentRepository{storage: s}
}

func (s *Storage) Shipments() repository.ShipmentRepository {
	return &shipmentRepository{storage: s}
}

func (s *Storage) Coupons() repository.CouponRepository {
	return &couponRepository{storage: s}
}

func (s *Storage) Jobs() repository.ScheduledJobRepository {
	return &jobRepository{storage: s}
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collOrders: {
			{Keys: bson.D{{Key: "number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "placed_at", Value: -1}}},
		},
		collDrafts: {
			{Keys: bson.D{{Key: "order_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
		},
		collPayments: {
			{Keys: bson.D{{Key: "gateway_order_id", Value: 1}}},
			{Keys: bson.D{{Key: "gateway_payment_id", Value: 1}}},
		},
		collShipments: {
			{Keys: bson.D{{Key: "order_id", Value: 1}}},
		},
		collJobs: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "done_at", Value: 1}, {Key: "run_at", Value: 1}}},
		},
		collCouponUsages: {
			{Keys: bson.D{{Key: "code", Value: 1}, {Key: "user_id", Value: 1}}},
		},
		collStockLedger: {
			{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "at", Value: -1}}},
		},
		collCarts: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("init indexes for %s: %w", coll, err)
		}
	}
	return nil
}
