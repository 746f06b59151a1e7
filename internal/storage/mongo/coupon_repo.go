package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainErrors "github.com/tanmaydk/shopcore/internal/domain/errors"
	"github.com/tanmaydk/shopcore/internal/domain/model"
)

type couponRepository struct {
	storage *Storage
}

func (r *couponRepository) Find(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.storage.db.Collection(collCoupons).FindOne(ctx, bson.M{"_id": code, "active": true}).Decode(&coupon)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) RecordUsage(ctx context.Context, usage *model.CouponUsage) error {
	_, err := r.storage.db.Collection(collCouponUsages).InsertOne(ctx, usage)
	return err
}

func (r *couponRepository) CountUsage(ctx context.Context, code, userID string) (int64, int64, error) {
	coll := r.storage.db.Collection(collCouponUsages)

	total, err := coll.CountDocuments(ctx, bson.M{"code": code})
	if err != nil {
		return 0, 0, err
	}
	byUser, err := coll.CountDocuments(ctx, bson.M{"code": code, "user_id": userID})
	if err != nil {
		return 0, 0, err
	}
	return total, byUser, nil
}
