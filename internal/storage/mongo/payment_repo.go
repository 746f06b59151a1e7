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

type paymentRepository struct {
	storage *Storage
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	if _, err := r.storage.db.Collection(collPayments).InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *paymentRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Payment, error) {
	return r.findOne(ctx, bson.M{"gateway_order_id": gatewayOrderID})
}

func (r *paymentRepository) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*model.Payment, error) {
	return r.findOne(ctx, bson.M{"gateway_payment_id": gatewayPaymentID})
}

func (r *paymentRepository) findOne(ctx context.Context, filter bson.M) (*model.Payment, error) {
	var payment model.Payment
	err := r.storage.db.Collection(collPayments).FindOne(ctx, filter).Decode(&payment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// MarkSuccess applies only from initiated status; a false return is the
// idempotency signal for duplicate gateway deliveries.
func (r *paymentRepository) MarkSuccess(ctx context.Context, id, gatewayPaymentID string) (bool, error) {
	res, err := r.storage.db.Collection(collPayments).UpdateOne(ctx,
		bson.M{"_id": id, "status": model.PaymentRecordInitiated},
		bson.M{"$set": bson.M{
			"status":             model.PaymentRecordSuccess,
			"gateway_payment_id": gatewayPaymentID,
			"updated_at":         time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *paymentRepository) MarkFailed(ctx context.Context, id string) (bool, error) {
	res, err := r.storage.db.Collection(collPayments).UpdateOne(ctx,
		bson.M{"_id": id, "status": model.PaymentRecordInitiated},
		bson.M{"$set": bson.M{
			"status":     model.PaymentRecordFailed,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MarkRefunded records one refund transaction. The refund id filter makes a
// redelivered notification a no-op instead of a second increment.
func (r *paymentRepository) MarkRefunded(ctx context.Context, id, refundID string, amount float64, partial bool) (bool, error) {
	status := model.PaymentRecordRefunded
	if partial {
		status = model.PaymentRecordPartiallyRefunded
	}
	res, err := r.storage.db.Collection(collPayments).UpdateOne(ctx,
		bson.M{
			"_id": id,
			"status": bson.M{"$in": []model.PaymentRecordStatus{
				model.PaymentRecordSuccess, model.PaymentRecordPartiallyRefunded,
			}},
			"refund_ids": bson.M{"$ne": refundID},
		},
		bson.M{
			"$set":      bson.M{"status": status, "updated_at": time.Now().UTC()},
			"$inc":      bson.M{"refunded_amount": amount},
			"$addToSet": bson.M{"refund_ids": refundID},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
