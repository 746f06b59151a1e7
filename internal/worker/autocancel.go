package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// CheckoutFacade exposes the subset of application functionality required by the worker.
type CheckoutFacade interface {
	ClaimDueJobs(ctx context.Context, now time.Time, limit int) ([]model.ScheduledJob, error)
	CancelExpired(ctx context.Context, orderID string) error
	ExpireStaleDrafts(ctx context.Context) (int64, error)
}

// AutoCancel polls the scheduled-job store for due auto-cancel jobs and runs
// them concurrently. A secondary sweep ticker expires overdue drafts whose
// read path never triggered the lazy expiry.
type AutoCancel struct {
	facade        CheckoutFacade
	pollInterval  time.Duration
	sweepInterval time.Duration
	batchSize     int
	workers       int
	logger        *slog.Logger

	jobs   chan model.ScheduledJob
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewAutoCancel constructs the auto-cancel worker pool.
func NewAutoCancel(facade CheckoutFacade, pollInterval, sweepInterval time.Duration, batchSize, workers int, logger *slog.Logger) *AutoCancel {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &AutoCancel{
		facade:        facade,
		pollInterval:  pollInterval,
		sweepInterval: sweepInterval,
		batchSize:     batchSize,
		workers:       workers,
		logger:        logger,
		jobs:          make(chan model.ScheduledJob, batchSize*workers),
	}
}

// Start launches background processing.
func (p *AutoCancel) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)

	p.wg.Add(1)
	go p.sweep(runCtx)
}

// Stop waits for all workers to finish.
func (p *AutoCancel) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *AutoCancel) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *AutoCancel) fetchAndDispatch(ctx context.Context) {
	jobs, err := p.facade.ClaimDueJobs(ctx, time.Now().UTC(), p.batchSize)
	if err != nil {
		p.logger.Error("claim due jobs failed", slog.String("error", err.Error()))
		return
	}
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- job:
		}
	}
}

func (p *AutoCancel) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.handleJob(ctx, job)
		}
	}
}

func (p *AutoCancel) handleJob(ctx context.Context, job model.ScheduledJob) {
	if job.Kind != model.JobKindAutoCancel {
		p.logger.Warn("unknown job kind skipped",
			slog.String("job_id", job.ID), slog.String("kind", string(job.Kind)))
		return
	}
	if err := p.facade.CancelExpired(ctx, job.OrderID); err != nil {
		p.logger.Error("auto-cancel failed",
			slog.String("job_id", job.ID),
			slog.String("order_id", job.OrderID),
			slog.String("error", err.Error()))
	}
}

func (p *AutoCancel) sweep(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := p.facade.ExpireStaleDrafts(ctx)
			if err != nil {
				p.logger.Error("draft sweep failed", slog.String("error", err.Error()))
				continue
			}
			if expired > 0 {
				p.logger.Info("stale drafts expired", slog.Int64("count", expired))
			}
		}
	}
}
