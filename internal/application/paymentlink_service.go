package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hartley-studio/service-billing/internal/adapter"
	"github.com/hartley-studio/service-billing/internal/domain/booking"
	"github.com/hartley-studio/service-billing/internal/domain/money"
	"github.com/hartley-studio/service-billing/internal/domain/synclog"
	"github.com/hartley-studio/service-billing/internal/events"
	"github.com/hartley-studio/service-billing/pkg/domain"
	"github.com/hartley-studio/service-billing/pkg/kafka"
)

// Payment link types.
const (
	LinkTypeDeposit = "deposit"
	LinkTypeBalance = "balance"
)

// PaymentLinkResult reports a link request to the caller.
type PaymentLinkResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PaymentLinkService requests hosted checkout links from the processor and
// records every attempt in the sync log.
type PaymentLinkService struct {
	bookings  booking.Repository
	syncLog   synclog.Repository
	processor adapter.ProcessorAdapter
	publisher events.Publisher
	logger    *zap.Logger
}

// NewPaymentLinkService creates a new PaymentLinkService. processor may be
// nil when no external processor is configured.
func NewPaymentLinkService(
	bookings booking.Repository,
	syncLog synclog.Repository,
	processor adapter.ProcessorAdapter,
	publisher events.Publisher,
	logger *zap.Logger,
) *PaymentLinkService {
	return &PaymentLinkService{
		bookings:  bookings,
		syncLog:   syncLog,
		processor: processor,
		publisher: publisher,
		logger:    logger,
	}
}

// CreatePaymentLink requests a hosted checkout URL for the booking. When the
// processor is not configured or the booking does not exist, the call fails
// fast with no sync log entry; once the processor has been called, exactly
// one entry is written regardless of outcome.
func (s *PaymentLinkService) CreatePaymentLink(ctx context.Context, bookingID uuid.UUID, amountCents int64, linkType string) (PaymentLinkResult, error) {
	if s.processor == nil {
		return PaymentLinkResult{Success: false, Error: "payment processor is not configured"}, nil
	}
	if linkType != LinkTypeDeposit && linkType != LinkTypeBalance {
		return PaymentLinkResult{Success: false, Error: "link type must be deposit or balance"}, nil
	}
	amount := money.Cents(amountCents)
	if !amount.IsPositive() {
		return PaymentLinkResult{Success: false, Error: "Amount must be positive"}, nil
	}

	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if domain.IsNotFound(err) {
			return PaymentLinkResult{Success: false, Error: "Booking not found"}, nil
		}
		return PaymentLinkResult{}, err
	}

	link, err := s.processor.CreatePaymentLink(ctx, b.ID(), b.ServiceName(), amount, linkType)
	if err != nil {
		s.appendLog(ctx, synclog.NewPaymentLinkFailed(s.processor.Name(), synclog.PaymentLinkPayload{
			BookingID:   b.ID(),
			AmountCents: amount,
			LinkType:    linkType,
		}, err.Error()))
		s.logger.Warn("payment link request failed",
			zap.String("booking_id", b.ID().String()),
			zap.Error(err),
		)
		return PaymentLinkResult{Success: false, Error: err.Error()}, nil
	}

	// First writer wins: an order reference already set by another channel
	// (point of sale, a prior link) is never overwritten.
	if b.ProcessorOrderID() == "" && link.OrderID != "" {
		if _, err := s.bookings.SetProcessorOrderID(ctx, b.ID(), link.OrderID); err != nil {
			s.logger.Error("failed to store processor order reference",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
		}
	}

	s.appendLog(ctx, synclog.NewPaymentLinkCreated(s.processor.Name(), synclog.PaymentLinkPayload{
		BookingID:   b.ID(),
		URL:         link.URL,
		OrderID:     link.OrderID,
		AmountCents: amount,
		LinkType:    linkType,
	}))

	s.logger.Info("payment link issued",
		zap.String("booking_id", b.ID().String()),
		zap.String("order_id", link.OrderID),
		zap.String("link_type", linkType),
		zap.Int64("amount_cents", int64(amount)),
	)

	s.publishIssued(ctx, events.PaymentLinkIssuedEvent{
		BookingID:   b.ID(),
		OrderID:     link.OrderID,
		AmountCents: amount,
		LinkType:    linkType,
		OccurredAt:  time.Now().UTC(),
	})

	return PaymentLinkResult{Success: true, URL: link.URL}, nil
}

func (s *PaymentLinkService) appendLog(ctx context.Context, e *synclog.Entry) {
	if err := s.syncLog.Append(ctx, e); err != nil {
		s.logger.Error("failed to append sync log entry",
			zap.String("kind", string(e.Kind)),
			zap.String("entity_id", e.EntityID),
			zap.Error(err),
		)
	}
}

func (s *PaymentLinkService) publishIssued(ctx context.Context, data events.PaymentLinkIssuedEvent) {
	if s.publisher == nil {
		return
	}
	ce, err := kafka.NewCloudEvent("service-billing", events.PaymentLinkIssued, data)
	if err != nil {
		s.logger.Error("failed to build payment link event", zap.Error(err))
		return
	}
	if err := s.publisher.PublishEvent(ctx, events.TopicBillingEvents, ce); err != nil {
		s.logger.Error("failed to publish payment link event", zap.Error(err))
	}
}
