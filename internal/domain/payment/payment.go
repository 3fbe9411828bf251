package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/domain/money"
	"github.com/hartley-studio/service-billing/pkg/domain"
)

// Method is how a payment settled.
type Method string

const (
	MethodCash           Method = "cash"
	MethodProcessorCard  Method = "processor_card"
	MethodProcessorOther Method = "processor_other"
)

// Status is the refund lifecycle of a payment. Transitions are monotonic:
// paid -> partially_refunded -> refunded. Failed is terminal.
type Status string

const (
	StatusPaid              Status = "paid"
	StatusPartiallyRefunded Status = "partially_refunded"
	StatusRefunded          Status = "refunded"
	StatusFailed            Status = "failed"
)

// Payment is a single settlement event against a booking.
// Invariant: 0 <= refundedCents <= amountCents.
type Payment struct {
	id                 uuid.UUID
	bookingID          uuid.UUID
	clientID           uuid.UUID
	amountCents        money.Cents
	tipCents           money.Cents
	method             Method
	status             Status
	refundedCents      money.Cents
	processorPaymentID string
	processorOrderID   string
	receiptURL         string
	notes              string
	createdAt          time.Time
	paidAt             *time.Time
	refundedAt         *time.Time
}

// New creates a settled payment against a booking.
func New(bookingID, clientID uuid.UUID, amount, tip money.Cents, method Method, notes string) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, domain.NewValidationError("payment amount must be positive")
	}
	if tip < 0 {
		return nil, domain.NewValidationError("tip cannot be negative")
	}
	switch method {
	case MethodCash, MethodProcessorCard, MethodProcessorOther:
	default:
		return nil, domain.NewValidationError("unknown payment method: " + string(method))
	}

	now := time.Now().UTC()
	return &Payment{
		id:          uuid.New(),
		bookingID:   bookingID,
		clientID:    clientID,
		amountCents: amount,
		tipCents:    tip,
		method:      method,
		status:      StatusPaid,
		notes:       notes,
		createdAt:   now,
		paidAt:      &now,
	}, nil
}

// --- Getters ---

func (p *Payment) ID() uuid.UUID              { return p.id }
func (p *Payment) BookingID() uuid.UUID       { return p.bookingID }
func (p *Payment) ClientID() uuid.UUID        { return p.clientID }
func (p *Payment) AmountCents() money.Cents   { return p.amountCents }
func (p *Payment) TipCents() money.Cents      { return p.tipCents }
func (p *Payment) Method() Method             { return p.method }
func (p *Payment) Status() Status             { return p.status }
func (p *Payment) RefundedCents() money.Cents { return p.refundedCents }
func (p *Payment) ProcessorPaymentID() string { return p.processorPaymentID }
func (p *Payment) ProcessorOrderID() string   { return p.processorOrderID }
func (p *Payment) ReceiptURL() string         { return p.receiptURL }
func (p *Payment) Notes() string              { return p.notes }
func (p *Payment) CreatedAt() time.Time       { return p.createdAt }
func (p *Payment) PaidAt() *time.Time         { return p.paidAt }
func (p *Payment) RefundedAt() *time.Time     { return p.refundedAt }

// Refundable is the amount still available to refund.
func (p *Payment) Refundable() money.Cents {
	return p.amountCents - p.refundedCents
}

// CountsTowardPaid reports whether this payment's amount counts toward a
// booking's collected total. A partially refunded payment still counts its
// full original amount; a fully refunded or failed one does not.
func (p *Payment) CountsTowardPaid() bool {
	return p.status == StatusPaid || p.status == StatusPartiallyRefunded
}

// Enrich attaches processor-sourced metadata fetched during recording.
func (p *Payment) Enrich(processorPaymentID, processorOrderID, receiptURL string) {
	p.processorPaymentID = processorPaymentID
	if processorOrderID != "" {
		p.processorOrderID = processorOrderID
	}
	if receiptURL != "" {
		p.receiptURL = receiptURL
	}
}

// ApplyRefund records amount as refunded, moving the status forward.
// The status never moves backward: a refund covering the full remainder lands
// on refunded, anything less on partially_refunded. The reason, when present,
// is appended to the notes pipe-delimited.
func (p *Payment) ApplyRefund(amount money.Cents, reason string, now time.Time) error {
	if !amount.IsPositive() {
		return domain.NewValidationError("refund amount must be positive")
	}
	if amount > p.Refundable() {
		return domain.NewConflictError("refund exceeds refundable amount")
	}

	p.refundedCents += amount
	if p.refundedCents == p.amountCents {
		p.status = StatusRefunded
	} else {
		p.status = StatusPartiallyRefunded
	}
	if reason != "" {
		if p.notes != "" {
			p.notes += " | "
		}
		p.notes += "Refund: " + reason
	}
	p.refundedAt = &now
	return nil
}

// Reconstitute rebuilds a Payment from persisted data.
func Reconstitute(
	id, bookingID, clientID uuid.UUID,
	amount, tip money.Cents,
	method Method,
	status Status,
	refunded money.Cents,
	processorPaymentID, processorOrderID, receiptURL, notes string,
	createdAt time.Time,
	paidAt, refundedAt *time.Time,
) *Payment {
	return &Payment{
		id:                 id,
		bookingID:          bookingID,
		clientID:           clientID,
		amountCents:        amount,
		tipCents:           tip,
		method:             method,
		status:             status,
		refundedCents:      refunded,
		processorPaymentID: processorPaymentID,
		processorOrderID:   processorOrderID,
		receiptURL:         receiptURL,
		notes:              notes,
		createdAt:          createdAt,
		paidAt:             paidAt,
		refundedAt:         refundedAt,
	}
}
