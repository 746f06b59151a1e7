package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainErrors "github.com/tanmaydk/shopcore/internal/domain/errors"
	"github.com/tanmaydk/shopcore/internal/domain/model"
)

type draftRepository struct {
	storage *Storage
}

func (r *draftRepository) Create(ctx context.Context, draft *model.CheckoutDraft) error {
	if _, err := r.storage.db.Collection(collDrafts).InsertOne(ctx, draft); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *draftRepository) GetByID(ctx context.Context, id string) (*model.CheckoutDraft, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *draftRepository) GetByOrderID(ctx context.Context, orderID string) (*model.CheckoutDraft, error) {
	return r.findOne(ctx, bson.M{"order_id": orderID, "status": bson.M{"$ne": model.DraftStatusExpired}})
}

func (r *draftRepository) findOne(ctx context.Context, filter bson.M) (*model.CheckoutDraft, error) {
	var draft model.CheckoutDraft
	err := r.storage.db.Collection(collDrafts).FindOne(ctx, filter).Decode(&draft)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepository) MarkPending(ctx context.Context, id string) (bool, error) {
	return r.setStatus(ctx, id, []model.DraftStatus{model.DraftStatusDraft}, model.DraftStatusPending)
}

func (r *draftRepository) MarkPaid(ctx context.Context, id string) (bool, error) {
	return r.setStatus(ctx, id, []model.DraftStatus{model.DraftStatusDraft, model.DraftStatusPending}, model.DraftStatusPaid)
}

func (r *draftRepository) Expire(ctx context.Context, id string) (bool, error) {
	return r.setStatus(ctx, id, []model.DraftStatus{model.DraftStatusDraft, model.DraftStatusPending}, model.DraftStatusExpired)
}

// setStatus is the single forward-only status mutator: the filter on the
// current status makes losing racers no-ops.
func (r *draftRepository) setStatus(ctx context.Context, id string, from []model.DraftStatus, to model.DraftStatus) (bool, error) {
	res, err := r.storage.db.Collection(collDrafts).UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": from}},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *draftRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.storage.db.Collection(collDrafts).UpdateMany(ctx,
		bson.M{"status": model.DraftStatusDraft, "expires_at": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": model.DraftStatusExpired}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
