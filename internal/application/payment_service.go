package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hartley-studio/service-billing/internal/adapter"
	"github.com/hartley-studio/service-billing/internal/domain/booking"
	"github.com/hartley-studio/service-billing/internal/domain/money"
	"github.com/hartley-studio/service-billing/internal/domain/payment"
	"github.com/hartley-studio/service-billing/internal/events"
	"github.com/hartley-studio/service-billing/pkg/domain"
	"github.com/hartley-studio/service-billing/pkg/kafka"
)

// RecordPaymentRequest is the DTO for recording a settled payment.
type RecordPaymentRequest struct {
	BookingID          uuid.UUID `json:"booking_id" binding:"required"`
	ClientID           uuid.UUID `json:"client_id" binding:"required"`
	AmountCents        int64     `json:"amount_cents" binding:"required,gt=0"`
	TipCents           int64     `json:"tip_cents" binding:"gte=0"`
	Method             string    `json:"method" binding:"required"`
	ProcessorPaymentID string    `json:"processor_payment_id"`
	Notes              string    `json:"notes"`
}

// PaymentDTO is the API response representation of a payment.
type PaymentDTO struct {
	ID                 uuid.UUID  `json:"id"`
	BookingID          uuid.UUID  `json:"booking_id"`
	ClientID           uuid.UUID  `json:"client_id"`
	AmountCents        int64      `json:"amount_cents"`
	TipCents           int64      `json:"tip_cents"`
	Method             string     `json:"method"`
	Status             string     `json:"status"`
	RefundedCents      int64      `json:"refunded_cents"`
	ProcessorPaymentID string     `json:"processor_payment_id,omitempty"`
	ProcessorOrderID   string     `json:"processor_order_id,omitempty"`
	ReceiptURL         string     `json:"receipt_url,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	RefundedAt         *time.Time `json:"refunded_at,omitempty"`
}

// BookingBalanceDTO is the computed balance of a booking.
type BookingBalanceDTO struct {
	BookingID       uuid.UUID `json:"booking_id"`
	TotalCents      int64     `json:"total_cents"`
	DiscountCents   int64     `json:"discount_cents"`
	EffectiveCents  int64     `json:"effective_cents"`
	PaidCents       int64     `json:"paid_cents"`
	RemainingCents  int64     `json:"remaining_cents"`
	PaymentEligible bool      `json:"payment_eligible"`
}

// PaymentService records payments and derives booking balances.
type PaymentService struct {
	bookings  booking.Repository
	payments  payment.Repository
	processor adapter.ProcessorAdapter
	publisher events.Publisher
	logger    *zap.Logger
}

// NewPaymentService creates a new PaymentService. The processor and publisher
// are optional collaborators; a nil processor disables enrichment and a nil
// publisher disables event emission.
func NewPaymentService(
	bookings booking.Repository,
	payments payment.Repository,
	processor adapter.ProcessorAdapter,
	publisher events.Publisher,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		bookings:  bookings,
		payments:  payments,
		processor: processor,
		publisher: publisher,
		logger:    logger,
	}
}

// RecordPayment validates and persists a payment against a booking. A missing
// booking or a client mismatch is raised as an error; these indicate a bad
// reference, not a recoverable business condition.
func (s *PaymentService) RecordPayment(ctx context.Context, actorID uuid.UUID, req RecordPaymentRequest) (*PaymentDTO, error) {
	b, err := s.bookings.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b.ClientID() != req.ClientID {
		return nil, domain.NewForbiddenError("client does not match booking client")
	}

	p, err := payment.New(
		req.BookingID, req.ClientID,
		money.Cents(req.AmountCents), money.Cents(req.TipCents),
		payment.Method(req.Method),
		req.Notes,
	)
	if err != nil {
		return nil, err
	}

	// Best-effort enrichment from the processor. A fetch failure is
	// non-fatal: recording proceeds with the caller-supplied data only.
	if req.ProcessorPaymentID != "" {
		p.Enrich(req.ProcessorPaymentID, "", "")
		if s.processor != nil {
			if details, err := s.processor.GetPayment(ctx, req.ProcessorPaymentID); err == nil {
				p.Enrich(req.ProcessorPaymentID, details.OrderID, details.ReceiptURL)
			} else {
				s.logger.Debug("payment enrichment skipped",
					zap.String("processor_payment_id", req.ProcessorPaymentID),
					zap.Error(err),
				)
			}
		}
	}

	if err := s.payments.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("payment_id", p.ID().String()),
		zap.String("booking_id", req.BookingID.String()),
		zap.String("actor_id", actorID.String()),
		zap.Int64("amount_cents", req.AmountCents),
		zap.String("method", req.Method),
	)

	s.publish(ctx, events.PaymentRecorded, events.PaymentRecordedEvent{
		PaymentID:   p.ID(),
		BookingID:   p.BookingID(),
		ClientID:    p.ClientID(),
		AmountCents: p.AmountCents(),
		TipCents:    p.TipCents(),
		Method:      string(p.Method()),
		OccurredAt:  time.Now().UTC(),
	})

	dto := toPaymentDTO(p)
	return &dto, nil
}

// GetPayment retrieves a payment by its ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*PaymentDTO, error) {
	p, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	dto := toPaymentDTO(p)
	return &dto, nil
}

// GetBookingBalance derives the booking's outstanding balance from its
// eligible payments. Only payments still counted as collected (paid or
// partially refunded) contribute to the paid figure.
func (s *PaymentService) GetBookingBalance(ctx context.Context, bookingID uuid.UUID) (*BookingBalanceDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var paid money.Cents
	for _, p := range payments {
		if p.CountsTowardPaid() {
			paid = paid.Add(p.AmountCents())
		}
	}

	return &BookingBalanceDTO{
		BookingID:       b.ID(),
		TotalCents:      int64(b.TotalCents()),
		DiscountCents:   int64(b.DiscountCents()),
		EffectiveCents:  int64(b.EffectiveTotal()),
		PaidCents:       int64(paid),
		RemainingCents:  int64(b.Remaining(paid)),
		PaymentEligible: b.PaymentEligible(paid),
	}, nil
}

// ListAllPayments returns a paginated list of all payments (admin).
func (s *PaymentService) ListAllPayments(ctx context.Context, page, limit int) ([]PaymentDTO, int64, error) {
	payments, total, err := s.payments.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos, total, nil
}

func (s *PaymentService) publish(ctx context.Context, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	ce, err := kafka.NewCloudEvent("service-billing", eventType, data)
	if err != nil {
		s.logger.Error("failed to build event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.publisher.PublishEvent(ctx, events.TopicBillingEvents, ce); err != nil {
		s.logger.Error("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

// toPaymentDTO maps a domain Payment to a PaymentDTO.
func toPaymentDTO(p *payment.Payment) PaymentDTO {
	return PaymentDTO{
		ID:                 p.ID(),
		BookingID:          p.BookingID(),
		ClientID:           p.ClientID(),
		AmountCents:        int64(p.AmountCents()),
		TipCents:           int64(p.TipCents()),
		Method:             string(p.Method()),
		Status:             string(p.Status()),
		RefundedCents:      int64(p.RefundedCents()),
		ProcessorPaymentID: p.ProcessorPaymentID(),
		ProcessorOrderID:   p.ProcessorOrderID(),
		ReceiptURL:         p.ReceiptURL(),
		Notes:              p.Notes(),
		CreatedAt:          p.CreatedAt(),
		PaidAt:             p.PaidAt(),
		RefundedAt:         p.RefundedAt(),
	}
}
