package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hartley-studio/service-billing/internal/adapter"
	"github.com/hartley-studio/service-billing/internal/domain/money"
	"github.com/hartley-studio/service-billing/internal/domain/payment"
	"github.com/hartley-studio/service-billing/internal/domain/synclog"
	"github.com/hartley-studio/service-billing/internal/events"
	"github.com/hartley-studio/service-billing/pkg/domain"
	"github.com/hartley-studio/service-billing/pkg/kafka"
)

// refundKeyNamespace is the UUIDv5 namespace for idempotency keys.
var refundKeyNamespace = uuid.MustParse("6f1c1a52-9a3d-4f3e-8c2b-55d0a9b1e7c4")

// RefundResult is the caller-facing outcome of a refund attempt. Business
// rejections land here as Error; they are expected control flow, never
// raised or logged as errors.
type RefundResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RefundService validates refundability, calls the processor for
// card-originated payments, records the outcome in the sync log and applies
// the local ledger mutation.
type RefundService struct {
	payments  payment.Repository
	syncLog   synclog.Repository
	processor adapter.ProcessorAdapter
	publisher events.Publisher
	currency  string
	logger    *zap.Logger
}

// NewRefundService creates a new RefundService.
func NewRefundService(
	payments payment.Repository,
	syncLog synclog.Repository,
	processor adapter.ProcessorAdapter,
	publisher events.Publisher,
	currency string,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		payments:  payments,
		syncLog:   syncLog,
		processor: processor,
		publisher: publisher,
		currency:  currency,
		logger:    logger,
	}
}

// refundIdempotencyKey derives a deterministic key from the payment, the
// requested amount, and the refunded total observed before this attempt.
// Retries of the same logical refund (same starting point, same amount)
// produce the same key, so the processor deduplicates them; a later, distinct
// refund starts from a different refunded total and gets a fresh key.
func refundIdempotencyKey(paymentID uuid.UUID, amount, refundedBefore money.Cents) string {
	seed := fmt.Sprintf("%s:%d:%d", paymentID, int64(amount), int64(refundedBefore))
	return uuid.NewSHA1(refundKeyNamespace, []byte(seed)).String()
}

// ProcessRefund refunds amount from the payment. Precondition failures and
// business rejections return a failed RefundResult; only infrastructure
// errors propagate.
func (s *RefundService) ProcessRefund(ctx context.Context, actorID, paymentID uuid.UUID, amountCents int64, reason string) (RefundResult, error) {
	amount := money.Cents(amountCents)

	p, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if domain.IsNotFound(err) {
			return RefundResult{Success: false, Error: "Payment not found"}, nil
		}
		return RefundResult{}, err
	}

	refundable := p.Refundable()
	if !amount.IsPositive() {
		return RefundResult{Success: false, Error: "Refund amount must be positive"}, nil
	}
	if amount > refundable {
		return RefundResult{Success: false, Error: fmt.Sprintf("Maximum refundable amount is %s", refundable.Format())}, nil
	}

	// Card-originated payments go through the processor first; only local
	// state moves for cash payments.
	if p.ProcessorPaymentID() != "" {
		key := refundIdempotencyKey(p.ID(), amount, p.RefundedCents())
		payload := synclog.RefundPayload{
			PaymentID:          p.ID(),
			ProcessorPaymentID: p.ProcessorPaymentID(),
			AmountCents:        amount,
			Currency:           s.currency,
			IdempotencyKey:     key,
		}

		if err := s.processor.RefundPayment(ctx, key, p.ProcessorPaymentID(), amount, s.currency, reason); err != nil {
			s.appendLog(ctx, synclog.NewRefundFailed(s.processor.Name(), payload, err.Error()))
			s.logger.Warn("processor refund failed",
				zap.String("payment_id", p.ID().String()),
				zap.String("actor_id", actorID.String()),
				zap.Error(err),
			)
			return RefundResult{Success: false, Error: err.Error()}, nil
		}
		s.appendLog(ctx, synclog.NewRefundSucceeded(s.processor.Name(), payload,
			fmt.Sprintf("refunded %s of payment %s", amount.Format(), p.ID())))
	}

	updated, err := s.payments.ApplyRefund(ctx, p.ID(), amount, strings.TrimSpace(reason), time.Now().UTC())
	if err != nil {
		// A concurrent refund won the conditional update; report the
		// remaining refundable amount as of now.
		if domain.IsConflict(err) {
			if fresh, ferr := s.payments.FindByID(ctx, p.ID()); ferr == nil {
				return RefundResult{Success: false, Error: fmt.Sprintf("Maximum refundable amount is %s", fresh.Refundable().Format())}, nil
			}
			return RefundResult{Success: false, Error: err.Error()}, nil
		}
		return RefundResult{}, err
	}

	s.logger.Info("refund recorded",
		zap.String("payment_id", updated.ID().String()),
		zap.String("actor_id", actorID.String()),
		zap.Int64("amount_cents", int64(amount)),
		zap.String("status", string(updated.Status())),
	)

	s.publish(ctx, events.PaymentRefundedEvent{
		PaymentID:     updated.ID(),
		BookingID:     updated.BookingID(),
		AmountCents:   amount,
		RefundedCents: updated.RefundedCents(),
		Status:        string(updated.Status()),
		OccurredAt:    time.Now().UTC(),
	})

	return RefundResult{Success: true}, nil
}

func (s *RefundService) appendLog(ctx context.Context, e *synclog.Entry) {
	if err := s.syncLog.Append(ctx, e); err != nil {
		s.logger.Error("failed to append sync log entry",
			zap.String("kind", string(e.Kind)),
			zap.String("entity_id", e.EntityID),
			zap.Error(err),
		)
	}
}

func (s *RefundService) publish(ctx context.Context, data events.PaymentRefundedEvent) {
	if s.publisher == nil {
		return
	}
	ce, err := kafka.NewCloudEvent("service-billing", events.PaymentRefunded, data)
	if err != nil {
		s.logger.Error("failed to build refund event", zap.Error(err))
		return
	}
	if err := s.publisher.PublishEvent(ctx, events.TopicBillingEvents, ce); err != nil {
		s.logger.Error("failed to publish refund event", zap.Error(err))
	}
}
