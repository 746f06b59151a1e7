package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

type jobRepository struct {
	storage *Storage
}

func (r *jobRepository) ScheduleAutoCancel(ctx context.Context, orderID string, runAt time.Time) error {
	job := model.ScheduledJob{
		ID:      uuid.NewString(),
		Kind:    model.JobKindAutoCancel,
		OrderID: orderID,
		RunAt:   runAt,
	}
	if _, err := r.storage.db.Collection(collJobs).InsertOne(ctx, job); err != nil {
		return fmt.Errorf("schedule auto-cancel: %w", err)
	}
	return nil
}

// ClaimDue claims one due job at a time with a conditional update on done_at,
// so a job fires exactly once even with several worker processes polling.
func (r *jobRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledJob, error) {
	var claimed []model.ScheduledJob
	for len(claimed) < limit {
		var job model.ScheduledJob
		err := r.storage.db.Collection(collJobs).
			FindOneAndUpdate(ctx,
				bson.M{"kind": model.JobKindAutoCancel, "done_at": nil, "run_at": bson.M{"$lte": now}},
				bson.M{"$set": bson.M{"done_at": now}},
				options.FindOneAndUpdate().SetReturnDocument(options.After)).
			Decode(&job)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				break
			}
			return claimed, err
		}
		claimed = append(claimed, job)
	}
	return claimed, nil
}
