package worker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tanmaydk/shopcore/internal/domain/model"
	testhelpers "github.com/tanmaydk/shopcore/internal/test"
)

func TestNewAutoCancelDefaults(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	proc := NewAutoCancel(&testhelpers.CheckoutWorkerFacadeStub{}, time.Second, time.Minute, 0, 0, logger)
	if proc.batchSize != 1 {
		t.Fatalf("expected batch size default to 1, got %d", proc.batchSize)
	}
	if proc.workers != 1 {
		t.Fatalf("expected workers default to 1, got %d", proc.workers)
	}
}

func TestAutoCancelRunsDueJobs(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	claimed := int32(0)
	facade := &testhelpers.CheckoutWorkerFacadeStub{
		ClaimFn: func(ctx context.Context, now time.Time, limit int) ([]model.ScheduledJob, error) {
			if atomic.AddInt32(&claimed, 1) > 1 {
				return nil, nil
			}
			return []model.ScheduledJob{
				{ID: "job-1", Kind: model.JobKindAutoCancel, OrderID: "o1", RunAt: now},
			}, nil
		},
	}
	proc := NewAutoCancel(facade, 10*time.Millisecond, time.Hour, 1, 1, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	proc.Start(ctx)

	deadline := time.After(500 * time.Millisecond)
	for len(facade.CancelledOrders()) == 0 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for auto-cancel")
		case <-time.After(10 * time.Millisecond):
		}
	}

	proc.Stop()
	orders := facade.CancelledOrders()
	if len(orders) != 1 || orders[0] != "o1" {
		t.Fatalf("expected exactly [o1] cancelled, got %v", orders)
	}
}

func TestAutoCancelSkipsUnknownJobKind(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	facade := &testhelpers.CheckoutWorkerFacadeStub{}
	proc := NewAutoCancel(facade, time.Hour, time.Hour, 1, 1, logger)

	proc.handleJob(context.Background(), model.ScheduledJob{ID: "job-1", Kind: "reindex", OrderID: "o1"})

	if got := facade.CancelledOrders(); len(got) != 0 {
		t.Fatalf("expected no cancellations for unknown kind, got %v", got)
	}
}

func TestAutoCancelSweepsStaleDrafts(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	swept := int32(0)
	facade := &testhelpers.CheckoutWorkerFacadeStub{
		ExpireFn: func(ctx context.Context) (int64, error) {
			atomic.AddInt32(&swept, 1)
			return 2, nil
		},
	}
	proc := NewAutoCancel(facade, time.Hour, 10*time.Millisecond, 1, 1, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	proc.Start(ctx)

	deadline := time.After(500 * time.Millisecond)
	for atomic.LoadInt32(&swept) == 0 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for draft sweep")
		case <-time.After(10 * time.Millisecond):
		}
	}
	proc.Stop()
}

func TestAutoCancelStopDrainsWorkers(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	facade := &testhelpers.CheckoutWorkerFacadeStub{}
	proc := NewAutoCancel(facade, 10*time.Millisecond, 10*time.Millisecond, 4, 4, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	proc.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	proc.Stop()

	// A second Stop must be a no-op rather than a deadlock or panic.
	proc.Stop()
}
