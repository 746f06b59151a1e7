package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainErrors "github.com/tanmaydk/shopcore/internal/domain/errors"
	"github.com/tanmaydk/shopcore/internal/domain/model"
)

type productRepository struct {
	storage *Storage
}

// Find loads a product. Outside a unit of work the stock snapshot cache is
// consulted read-through; inside one the store is always authoritative.
func (r *productRepository) Find(ctx context.Context, id string) (*model.Product, error) {
	inSession := mongo.SessionFromContext(ctx) != nil
	if !inSession {
		if cached := r.storage.stock.Get(ctx, id); cached != nil {
			return cached, nil
		}
	}

	var p model.Product
	err := r.storage.db.Collection(collProducts).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}

	if !inSession {
		r.storage.stock.Set(ctx, &p)
	}
	return &p, nil
}

// Reserve holds qty units with a single conditional update: the increment of
// reserved_qty applies only while stock_qty - reserved_qty >= qty. Never a
// read-then-write pair.
func (r *productRepository) Reserve(ctx context.Context, id string, qty int64, reference string) error {
	if qty <= 0 {
		return domainErrors.ErrInvalidQuantity
	}

	filter := bson.M{
		"_id": id,
		"$expr": bson.M{
			"$lte": bson.A{bson.M{"$add": bson.A{"$reserved_qty", qty}}, "$stock_qty"},
		},
	}
	update := bson.M{"$inc": bson.M{"reserved_qty": qty}}

	var updated model.Product
	err := r.storage.db.Collection(collProducts).
		FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, findErr := r.Find(ctx, id); findErr != nil {
				return findErr
			}
			return domainErrors.ErrInsufficientStock
		}
		return fmt.Errorf("reserve stock: %w", err)
	}

	r.appendLedger(ctx, &updated, -qty, reference, "reserved")
	r.invalidate(ctx, id)
	return nil
}

// Release returns qty held units. Over-release is accepted as a correction
// but logged as anomalous; the counter is clamped at zero.
func (r *productRepository) Release(ctx context.Context, id string, qty int64, reference, note string) error {
	if qty <= 0 {
		return domainErrors.ErrInvalidQuantity
	}

	var updated model.Product
	err := r.storage.db.Collection(collProducts).
		FindOneAndUpdate(ctx,
			bson.M{"_id": id},
			bson.M{"$inc": bson.M{"reserved_qty": -qty}},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainErrors.ErrNotFound
		}
		return fmt.Errorf("release stock: %w", err)
	}

	if updated.ReservedQty < 0 {
		r.storage.logger.Warn("anomalous stock release beyond reservation",
			slog.String("product", id),
			slog.Int64("qty", qty),
			slog.String("reference", reference),
		)
		if _, err := r.storage.db.Collection(collProducts).
			UpdateOne(ctx, bson.M{"_id": id, "reserved_qty": bson.M{"$lt": 0}}, bson.M{"$set": bson.M{"reserved_qty": 0}}); err != nil {
			return fmt.Errorf("clamp reservation: %w", err)
		}
		updated.ReservedQty = 0
	}

	r.appendLedger(ctx, &updated, qty, reference, note)
	r.invalidate(ctx, id)
	return nil
}

// CommitReservation converts a hold into a hard deduction on payment success.
func (r *productRepository) CommitReservation(ctx context.Context, id string, qty int64, reference string) error {
	if qty <= 0 {
		return domainErrors.ErrInvalidQuantity
	}

	filter := bson.M{"_id": id, "reserved_qty": bson.M{"$gte": qty}}
	update := bson.M{"$inc": bson.M{"stock_qty": -qty, "reserved_qty": -qty}}

	var updated model.Product
	err := r.storage.db.Collection(collProducts).
		FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// The hold was already released (for example auto-cancel won a
			// race against a late payment). Deduct from stock directly and
			// flag the anomaly.
			r.storage.logger.Warn("commit without matching reservation",
				slog.String("product", id),
				slog.Int64("qty", qty),
				slog.String("reference", reference),
			)
			err = r.storage.db.Collection(collProducts).
				FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"stock_qty": -qty}},
					options.FindOneAndUpdate().SetReturnDocument(options.After)).
				Decode(&updated)
			if err != nil {
				if errors.Is(err, mongo.ErrNoDocuments) {
					return domainErrors.ErrNotFound
				}
				return fmt.Errorf("commit reservation: %w", err)
			}
		} else {
			return fmt.Errorf("commit reservation: %w", err)
		}
	}

	r.appendLedger(ctx, &updated, -qty, reference, "sold")
	r.invalidate(ctx, id)
	return nil
}

// appendLedger records the mutation against available stock. Ledger failures
// never fail the stock operation itself.
func (r *productRepository) appendLedger(ctx context.Context, p *model.Product, delta int64, reference, note string) {
	entry := model.StockMovement{
		ID:        uuid.NewString(),
		ProductID: p.ID,
		Delta:     delta,
		PrevStock: p.Available() - delta,
		NewStock:  p.Available(),
		Reference: reference,
		Note:      note,
		At:        time.Now().UTC(),
	}
	if _, err := r.storage.db.Collection(collStockLedger).InsertOne(ctx, entry); err != nil {
		r.storage.logger.Error("stock ledger append failed",
			slog.String("product", p.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (r *productRepository) invalidate(ctx context.Context, id string) {
	if err := r.storage.stock.Invalidate(ctx, id); err != nil {
		r.storage.logger.Warn("stock cache invalidation failed",
			slog.String("product", id),
			slog.String("error", err.Error()),
		)
	}
}
