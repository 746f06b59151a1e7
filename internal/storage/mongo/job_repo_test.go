package mongo

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func jobDoc(id, orderID string, at time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "kind", Value: "auto_cancel"},
		{Key: "order_id", Value: orderID},
		{Key: "run_at", Value: primitive.NewDateTimeFromTime(at)},
		{Key: "done_at", Value: primitive.NewDateTimeFromTime(at)},
	}
}

func TestClaimDueClaimsOneAtATime(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("drains due jobs until none remain", func(mt *mtest.T) {
		storage, _ := newMockStorage(mt)
		now := time.Now().UTC()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: jobDoc("j1", "o1", now)}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: jobDoc("j2", "o2", now)}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
		)

		jobs, err := storage.Jobs().ClaimDue(context.Background(), now, 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(jobs) != 2 || jobs[0].OrderID != "o1" || jobs[1].OrderID != "o2" {
			t.Fatalf("claimed = %+v, want jobs for o1 and o2", jobs)
		}

		cmd := mt.GetStartedEvent().Command.String()
		for _, needle := range []string{"done_at", "run_at", "$lte"} {
			if !strings.Contains(cmd, needle) {
				t.Errorf("claim filter lost %q: %s", needle, cmd)
			}
		}
	})

	mt.Run("stops at the batch limit", func(mt *mtest.T) {
		storage, _ := newMockStorage(mt)
		now := time.Now().UTC()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: jobDoc("j1", "o1", now)}),
		)

		jobs, err := storage.Jobs().ClaimDue(context.Background(), now, 1)
		if err != nil || len(jobs) != 1 {
			t.Fatalf("claimed %d jobs err=%v, want exactly the limit", len(jobs), err)
		}
	})
}
