package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainErrors "github.com/tanmaydk/shopcore/internal/domain/errors"
	"github.com/tanmaydk/shopcore/internal/domain/model"
)

type cartRepository struct {
	storage *Storage
}

func (r *cartRepository) GetActiveCart(ctx context.Context, userID string) (*model.Cart, error) {
	var cart model.Cart
	err := r.storage.db.Collection(collCarts).FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) Clear(ctx context.Context, cartID string) error {
	_, err := r.storage.db.Collection(collCarts).UpdateOne(ctx,
		bson.M{"_id": cartID},
		bson.M{"$set": bson.M{"lines": []model.CartLine{}, "coupon_code": ""}},
	)
	return err
}
