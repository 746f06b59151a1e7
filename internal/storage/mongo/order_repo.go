package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainErrors "github.com/tanmaydk/shopcore/internal/domain/errors"
	"github.com/tanmaydk/shopcore/internal/domain/model"
)

type orderRepository struct {
	storage *Storage
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	if _, err := r.storage.db.Collection(collOrders).InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	return r.findOne(ctx, bson.M{"number": number})
}

func (r *orderRepository) findOne(ctx context.Context, filter bson.M) (*model.Order, error) {
	var order model.Order
	err := r.storage.db.Collection(collOrders).FindOne(ctx, filter).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) CancelIfUnpaid(ctx context.Context, id string) (bool, error) {
	res, err := r.storage.db.Collection(collOrders).UpdateOne(ctx,
		bson.M{"_id": id, "payment_status": model.PaymentStatusPending, "status": model.OrderStatusCreated},
		bson.M{"$set": bson.M{
			"status":     model.OrderStatusCancelled,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *orderRepository) ConfirmPaid(ctx context.Context, id string, snapshot *model.PaymentView) (bool, error) {
	res, err := r.storage.db.Collection(collOrders).UpdateOne(ctx,
		bson.M{"_id": id, "payment_status": model.PaymentStatusPending, "status": model.OrderStatusCreated},
		bson.M{"$set": bson.M{
			"payment_status":   model.PaymentStatusPaid,
			"status":           model.OrderStatusConfirmed,
			"payment_snapshot": snapshot,
			"updated_at":       time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *orderRepository) MarkFailed(ctx context.Context, id string, snapshot *model.PaymentView) (bool, error) {
	res, err := r.storage.db.Collection(collOrders).UpdateOne(ctx,
		bson.M{"_id": id, "payment_status": model.PaymentStatusPending},
		bson.M{"$set": bson.M{
			"payment_status":   model.PaymentStatusFailed,
			"status":           model.OrderStatusFailed,
			"payment_snapshot": snapshot,
			"updated_at":       time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *orderRepository) MarkRefunded(ctx context.Context, id string, snapshot *model.PaymentView, partial bool) (bool, error) {
	status := model.PaymentStatusRefunded
	if partial {
		status = model.PaymentStatusPartiallyRefunded
	}
	res, err := r.storage.db.Collection(collOrders).UpdateOne(ctx,
		bson.M{"_id": id, "payment_status": bson.M{"$in": []model.PaymentStatus{
			model.PaymentStatusPaid, model.PaymentStatusPartiallyRefunded,
		}}},
		bson.M{"$set": bson.M{
			"payment_status":   status,
			"payment_snapshot": snapshot,
			"updated_at":       time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *orderRepository) SetItemStatuses(ctx context.Context, orderID string, itemIDs []string, status model.ItemStatus) error {
	_, err := r.storage.db.Collection(collOrders).UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{
			"items.$[it].status": status,
			"updated_at":         time.Now().UTC(),
		}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"it.id": bson.M{"$in": itemIDs}}},
		}),
	)
	return err
}

func (r *orderRepository) SetStatus(ctx context.Context, orderID string, from []model.OrderStatus, to model.OrderStatus) (bool, error) {
	res, err := r.storage.db.Collection(collOrders).UpdateOne(ctx,
		bson.M{"_id": orderID, "status": bson.M{"$in": from}},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
