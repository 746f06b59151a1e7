package repository

import (
	"context"
	"time"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// DraftRepository persists checkout drafts. All status mutators are
// conditional on the current status so the forward-only lifecycle can never
// run backwards, whichever caller wins a race.
type DraftRepository interface {
	Create(ctx context.Context, draft *model.CheckoutDraft) error
	GetByID(ctx context.Context, id string) (*model.CheckoutDraft, error)
	GetByOrderID(ctx context.Context, orderID string) (*model.CheckoutDraft, error)

	// MarkPending moves draft -> pending. Returns false when the draft was
	// not in draft status.
	MarkPending(ctx context.Context, id string) (bool, error)

	// MarkPaid moves draft/pending -> paid.
	MarkPaid(ctx context.Context, id string) (bool, error)

	// Expire moves draft/pending -> expired.
	Expire(ctx context.Context, id string) (bool, error)

	// ExpireStale flips every draft-status draft past its TTL to expired and
	// returns how many were flipped. It does not release inventory.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
