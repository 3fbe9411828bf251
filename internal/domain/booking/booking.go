package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/domain/money"
	"github.com/hartley-studio/service-billing/pkg/domain"
)

// Status is the scheduling status of a booking. The billing engine only
// reads it; scheduling itself lives elsewhere.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Booking is a scheduled service instance carrying the amounts the billing
// engine settles against. Invariant: discount never exceeds the gross total.
type Booking struct {
	id               uuid.UUID
	clientID         uuid.UUID
	serviceID        uuid.UUID
	serviceName      string
	serviceCategory  string
	scheduledAt      time.Time
	status           Status
	totalCents       money.Cents
	discountCents    money.Cents
	depositCents     money.Cents
	processorOrderID string
	giftCardID       *uuid.UUID
	promotionID      *uuid.UUID
	createdAt        time.Time
	updatedAt        time.Time
}

// New creates a booking with a zero discount.
func New(clientID, serviceID uuid.UUID, serviceName, serviceCategory string, scheduledAt time.Time, total, deposit money.Cents) (*Booking, error) {
	if !total.IsPositive() {
		return nil, domain.NewValidationError("booking total must be positive")
	}
	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		clientID:        clientID,
		serviceID:       serviceID,
		serviceName:     serviceName,
		serviceCategory: serviceCategory,
		scheduledAt:     scheduledAt,
		status:          StatusConfirmed,
		totalCents:      total,
		depositCents:    deposit,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID              { return b.id }
func (b *Booking) ClientID() uuid.UUID        { return b.clientID }
func (b *Booking) ServiceID() uuid.UUID       { return b.serviceID }
func (b *Booking) ServiceName() string        { return b.serviceName }
func (b *Booking) ServiceCategory() string    { return b.serviceCategory }
func (b *Booking) ScheduledAt() time.Time     { return b.scheduledAt }
func (b *Booking) Status() Status             { return b.status }
func (b *Booking) TotalCents() money.Cents    { return b.totalCents }
func (b *Booking) DiscountCents() money.Cents { return b.discountCents }
func (b *Booking) DepositCents() money.Cents  { return b.depositCents }
func (b *Booking) ProcessorOrderID() string   { return b.processorOrderID }
func (b *Booking) GiftCardID() *uuid.UUID     { return b.giftCardID }
func (b *Booking) PromotionID() *uuid.UUID    { return b.promotionID }
func (b *Booking) CreatedAt() time.Time       { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time       { return b.updatedAt }

// EffectiveTotal is the gross total minus any discount already applied.
func (b *Booking) EffectiveTotal() money.Cents {
	return b.totalCents.Sub(b.discountCents)
}

// Remaining is the outstanding balance given the sum of eligible payments.
func (b *Booking) Remaining(paid money.Cents) money.Cents {
	return b.EffectiveTotal().Sub(paid)
}

// PaymentEligible reports whether the booking can still accept payments:
// there is a balance outstanding and it is in a payable scheduling status.
func (b *Booking) PaymentEligible(paid money.Cents) bool {
	if !b.Remaining(paid).IsPositive() {
		return false
	}
	switch b.status {
	case StatusConfirmed, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Reconstitute rebuilds a Booking from persisted data.
func Reconstitute(
	id, clientID, serviceID uuid.UUID,
	serviceName, serviceCategory string,
	scheduledAt time.Time,
	status Status,
	total, discount, deposit money.Cents,
	processorOrderID string,
	giftCardID, promotionID *uuid.UUID,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:               id,
		clientID:         clientID,
		serviceID:        serviceID,
		serviceName:      serviceName,
		serviceCategory:  serviceCategory,
		scheduledAt:      scheduledAt,
		status:           status,
		totalCents:       total,
		discountCents:    discount,
		depositCents:     deposit,
		processorOrderID: processorOrderID,
		giftCardID:       giftCardID,
		promotionID:      promotionID,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}
