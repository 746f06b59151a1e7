package repository

import (
	"context"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// CouponRepository exposes the coupon store: definitions and usage records.
// Mutual exclusion around usage-limit checks lives in the lock package, not
// here.
type CouponRepository interface {
	Find(ctx context.Context, code string) (*model.Coupon, error)
	RecordUsage(ctx context.Context, usage *model.CouponUsage) error

	// CountUsage returns total redemptions of the coupon and redemptions by
	// the given user.
	CountUsage(ctx context.Context, code, userID string) (total, byUser int64, err error)
}
