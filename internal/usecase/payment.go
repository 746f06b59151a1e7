package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tanmaydk/shopcore/internal/adapter/invoice"
	domainErrors "github.com/tanmaydk/shopcore/internal/domain/errors"
	"github.com/tanmaydk/shopcore/internal/domain/model"
	"github.com/tanmaydk/shopcore/internal/domain/repository"
	"github.com/tanmaydk/shopcore/internal/queue"
)

// PaymentUseCase applies gateway payment events to orders. Gateways deliver
// at least once and out of order, so every step is a conditional state
// transition: a duplicate or late event degrades to a logged no-op.
type PaymentUseCase struct {
	factory repository.Factory
	invoice invoice.Generator
	queue   queue.Publisher
	logger  *slog.Logger
}

// NewPaymentUseCase constructs PaymentUseCase.
func NewPaymentUseCase(factory repository.Factory, generator invoice.Generator, publisher queue.Publisher, logger *slog.Logger) *PaymentUseCase {
	return &PaymentUseCase{factory: factory, invoice: generator, queue: publisher, logger: logger}
}

// ProcessEvent handles one relayed gateway event. A nil return marks the
// event consumed; only transient infrastructure errors bubble up so the
// queue redelivers.
func (u *PaymentUseCase) ProcessEvent(ctx context.Context, event model.PaymentEvent) error {
	payment, err := u.correlate(ctx, event)
	if err != nil {
		return err
	}
	if payment == nil {
		u.logger.Warn("payment event without matching intent dropped",
			slog.String("type", event.Type),
			slog.String("gateway_order_id", event.GatewayOrderID),
			slog.String("gateway_payment_id", event.GatewayPaymentID))
		return nil
	}

	switch event.Type {
	case model.PaymentEventCaptured:
		return u.handleCaptured(ctx, payment, event)
	case model.PaymentEventFailed:
		return u.handleFailed(ctx, payment)
	case model.PaymentEventRefunded:
		return u.handleRefunded(ctx, payment, event)
	default:
		u.logger.Warn("unrecognized payment event type ignored",
			slog.String("type", event.Type),
			slog.String("gateway_order_id", event.GatewayOrderID))
		return nil
	}
}

// correlate resolves the payment intent the event refers to, first by the
// gateway order id and then by the gateway payment id. A nil payment with
// nil error means the event is uncorrelatable.
func (u *PaymentUseCase) correlate(ctx context.Context, event model.PaymentEvent) (*model.Payment, error) {
	if event.GatewayOrderID != "" {
		payment, err := u.factory.Payments().GetByGatewayOrderID(ctx, event.GatewayOrderID)
		if err == nil {
			return payment, nil
		}
		if !errors.Is(err, domainErrors.ErrNotFound) {
			return nil, err
		}
	}
	if event.GatewayPaymentID != "" {
		payment, err := u.factory.Payments().GetByGatewayPaymentID(ctx, event.GatewayPaymentID)
		if err == nil {
			return payment, nil
		}
		if !errors.Is(err, domainErrors.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func (u *PaymentUseCase) handleCaptured(ctx context.Context, payment *model.Payment, event model.PaymentEvent) error {
	now := time.Now().UTC()

	if payment.Status == model.PaymentRecordInitiated {
		ok, err := u.factory.Payments().MarkSuccess(ctx, payment.ID, event.GatewayPaymentID)
		if err != nil {
			return err
		}
		if ok {
			payment.Status = model.PaymentRecordSuccess
			payment.GatewayPaymentID = event.GatewayPaymentID
		} else {
			// Lost a race against another delivery of the same capture.
			reloaded, err := u.factory.Payments().GetByGatewayOrderID(ctx, payment.GatewayOrderID)
			if err != nil {
				return err
			}
			payment = reloaded
		}
	}
	if payment.Status == model.PaymentRecordFailed {
		u.logger.Error("capture received for failed payment intent",
			slog.String("payment_id", payment.ID),
			slog.String("order_id", payment.OrderID))
		return nil
	}

	// ConfirmPaid is the linearization point: exactly one capture delivery
	// wins it, and only the winner commits reservations and fans out.
	confirmed, err := u.factory.Orders().ConfirmPaid(ctx, payment.OrderID, payment.Snapshot(now))
	if err != nil {
		return err
	}
	if !confirmed {
		order, err := u.factory.Orders().GetByID(ctx, payment.OrderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus == model.PaymentStatusPaid {
			u.logger.Info("duplicate capture ignored", slog.String("order_id", order.ID))
			return nil
		}
		// Payment arrived after auto-cancel released the stock. The money is
		// captured but the order is gone; this needs a manual refund.
		u.logger.Error("capture for non-confirmable order, refund required",
			slog.String("order_id", order.ID),
			slog.String("order_status", string(order.Status)),
			slog.String("payment_id", payment.ID))
		return nil
	}

	order, err := u.factory.Orders().GetByID(ctx, payment.OrderID)
	if err != nil {
		return err
	}
	for _, item := range order.Items {
		if err := u.factory.Products().CommitReservation(ctx, item.ProductID, item.Quantity, order.ID); err != nil {
			u.logger.Error("reservation commit failed after capture",
				slog.String("order_id", order.ID),
				slog.String("product_id", item.ProductID),
				slog.String("error", err.Error()))
		}
	}

	if draft, err := u.factory.Drafts().GetByOrderID(ctx, order.ID); err == nil {
		if _, err := u.factory.Drafts().MarkPaid(ctx, draft.ID); err != nil {
			u.logger.Error("draft not marked paid",
				slog.String("draft_id", draft.ID), slog.String("error", err.Error()))
		}
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		return err
	}

	if err := u.invoice.GenerateFromOrder(ctx, order); err != nil {
		u.logger.Error("invoice generation failed",
			slog.String("order_id", order.ID), slog.String("error", err.Error()))
	}
	u.notify(ctx, order.ID, string(model.OrderStatusConfirmed))
	return nil
}

// handleFailed fails the order terminally. A declined payment is not
// retryable on the same order; the buyer starts a new checkout. The held
// stock comes back and the draft is expired so a stale session cannot reopen
// the dead order.
func (u *PaymentUseCase) handleFailed(ctx context.Context, payment *model.Payment) error {
	ok, err := u.factory.Payments().MarkFailed(ctx, payment.ID)
	if err != nil {
		return err
	}
	if ok {
		payment.Status = model.PaymentRecordFailed
	} else if payment.Status != model.PaymentRecordFailed {
		// Late failure for an intent that already captured; the capture won.
		u.logger.Warn("failure event for settled payment intent ignored",
			slog.String("payment_id", payment.ID),
			slog.String("status", string(payment.Status)))
		return nil
	}

	// The order gate is the idempotency point: only the delivery that flips
	// pending to failed runs the compensations, and a crash between the
	// payment and order updates heals on redelivery.
	now := time.Now().UTC()
	failed, err := u.factory.Orders().MarkFailed(ctx, payment.OrderID, payment.Snapshot(now))
	if err != nil {
		return err
	}
	if !failed {
		u.logger.Info("duplicate payment failure ignored", slog.String("order_id", payment.OrderID))
		return nil
	}

	order, err := u.factory.Orders().GetByID(ctx, payment.OrderID)
	if err != nil {
		return err
	}
	for _, item := range order.Items {
		if err := u.factory.Products().Release(ctx, item.ProductID, item.Quantity, order.ID, "payment failed"); err != nil {
			u.logger.Error("reservation release failed after payment failure",
				slog.String("order_id", order.ID),
				slog.String("product_id", item.ProductID),
				slog.String("error", err.Error()))
		}
	}

	if draft, err := u.factory.Drafts().GetByOrderID(ctx, order.ID); err == nil {
		if _, err := u.factory.Drafts().Expire(ctx, draft.ID); err != nil {
			u.logger.Error("draft expiry failed after payment failure",
				slog.String("draft_id", draft.ID), slog.String("error", err.Error()))
		}
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		return err
	}

	u.notify(ctx, order.ID, string(model.OrderStatusFailed))
	return nil
}

func (u *PaymentUseCase) handleRefunded(ctx context.Context, payment *model.Payment, event model.PaymentEvent) error {
	if event.Amount <= 0 {
		u.logger.Warn("refund event with non-positive amount ignored",
			slog.String("payment_id", payment.ID))
		return nil
	}
	if event.GatewayRefundID == "" {
		// Without the refund's own transaction id a redelivery cannot be told
		// apart from a second refund, so the event is unprocessable.
		u.logger.Warn("refund event without refund id ignored",
			slog.String("payment_id", payment.ID))
		return nil
	}

	partial := payment.RefundedAmount+event.Amount < payment.Amount
	ok, err := u.factory.Payments().MarkRefunded(ctx, payment.ID, event.GatewayRefundID, event.Amount, partial)
	if err != nil {
		return err
	}
	if !ok {
		u.logger.Info("duplicate or out-of-order refund ignored",
			slog.String("payment_id", payment.ID),
			slog.String("gateway_refund_id", event.GatewayRefundID),
			slog.String("status", string(payment.Status)))
		return nil
	}
	payment.RefundIDs = append(payment.RefundIDs, event.GatewayRefundID)
	payment.RefundedAmount += event.Amount
	if partial {
		payment.Status = model.PaymentRecordPartiallyRefunded
	} else {
		payment.Status = model.PaymentRecordRefunded
	}

	now := time.Now().UTC()
	if _, err := u.factory.Orders().MarkRefunded(ctx, payment.OrderID, payment.Snapshot(now), partial); err != nil {
		return err
	}

	order, err := u.factory.Orders().GetByID(ctx, payment.OrderID)
	if err != nil {
		return err
	}
	if err := u.invoice.GenerateCreditNote(ctx, order, event.Amount, partial); err != nil {
		u.logger.Error("credit note generation failed",
			slog.String("order_id", order.ID), slog.String("error", err.Error()))
	}

	status := string(model.PaymentStatusRefunded)
	if partial {
		status = string(model.PaymentStatusPartiallyRefunded)
	}
	u.notify(ctx, order.ID, status)
	return nil
}

func (u *PaymentUseCase) notify(ctx context.Context, orderID, status string) {
	if err := u.queue.EnqueueStatusNotification(ctx, orderID, status); err != nil {
		u.logger.Warn("status notification not published",
			slog.String("order_id", orderID),
			slog.String("status", status),
			slog.String("error", err.Error()))
	}
}
