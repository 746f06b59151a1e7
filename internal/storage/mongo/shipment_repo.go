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

type shipmentRepository struct {
	storage *Storage
}

func (r *shipmentRepository) Create(ctx context.Context, shipment *model.Shipment) error {
	if _, err := r.storage.db.Collection(collShipments).InsertOne(ctx, shipment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainErrors.ErrShipmentExists
		}
		return err
	}
	return nil
}

func (r *shipmentRepository) GetByID(ctx context.Context, id string) (*model.Shipment, error) {
	var shipment model.Shipment
	err := r.storage.db.Collection(collShipments).FindOne(ctx, bson.M{"_id": id}).Decode(&shipment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepository) ExistsForItems(ctx context.Context, orderID string, itemIDs []string) (bool, error) {
	count, err := r.storage.db.Collection(collShipments).CountDocuments(ctx, bson.M{
		"order_id": orderID,
		"item_ids": bson.M{"$in": itemIDs},
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Transition is conditional on the expected current status and appends the
// history entry in the same update, so a racing transition cannot interleave.
func (r *shipmentRepository) Transition(ctx context.Context, id string, from, to model.ShipmentStatus, at time.Time) (bool, error) {
	res, err := r.storage.db.Collection(collShipments).UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{
			"$set":  bson.M{"status": to},
			"$push": bson.M{"history": model.ShipmentEvent{Status: to, At: at}},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
