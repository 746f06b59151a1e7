package repository

import (
	"context"
	"time"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// ScheduledJobRepository is the durable delayed-job store backing the
// auto-cancel safeguard.
type ScheduledJobRepository interface {
	// ScheduleAutoCancel enqueues the expiry safeguard for an order. A
	// failure here is fatal for checkout: an order must never exist without
	// its matching expiry job.
	ScheduleAutoCancel(ctx context.Context, orderID string, runAt time.Time) error

	// ClaimDue atomically claims up to limit due jobs (conditional update on
	// done_at) and returns them. A claimed job is never handed out twice.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledJob, error)
}
