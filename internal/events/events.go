package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/domain/money"
	"github.com/hartley-studio/service-billing/pkg/kafka"
)

// TopicBillingEvents is where this service publishes its events. Downstream
// consumers (financial summaries, cached booking views) invalidate and
// rebuild from these.
const TopicBillingEvents = "billing.events"

// Event type identifiers.
const (
	PaymentRecorded   = "billing.payment.recorded"
	PaymentRefunded   = "billing.payment.refunded"
	GiftCardRedeemed  = "billing.giftcard.redeemed"
	PromotionApplied  = "billing.promotion.applied"
	PaymentLinkIssued = "billing.paymentlink.issued"
)

// PaymentRecordedEvent is published after a payment is persisted.
type PaymentRecordedEvent struct {
	PaymentID   uuid.UUID   `json:"payment_id"`
	BookingID   uuid.UUID   `json:"booking_id"`
	ClientID    uuid.UUID   `json:"client_id"`
	AmountCents money.Cents `json:"amount_cents"`
	TipCents    money.Cents `json:"tip_cents"`
	Method      string      `json:"method"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// PaymentRefundedEvent is published after a refund is recorded locally.
type PaymentRefundedEvent struct {
	PaymentID     uuid.UUID   `json:"payment_id"`
	BookingID     uuid.UUID   `json:"booking_id"`
	AmountCents   money.Cents `json:"amount_cents"`
	RefundedCents money.Cents `json:"refunded_cents"`
	Status        string      `json:"status"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// GiftCardRedeemedEvent is published after a gift card redemption commits.
type GiftCardRedeemedEvent struct {
	GiftCardID   uuid.UUID   `json:"gift_card_id"`
	BookingID    uuid.UUID   `json:"booking_id"`
	AmountCents  money.Cents `json:"amount_cents"`
	BalanceCents money.Cents `json:"balance_cents"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

// PromotionAppliedEvent is published after a promotion application commits.
type PromotionAppliedEvent struct {
	PromotionID   uuid.UUID   `json:"promotion_id"`
	BookingID     uuid.UUID   `json:"booking_id"`
	Code          string      `json:"code"`
	DiscountCents money.Cents `json:"discount_cents"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// PaymentLinkIssuedEvent is published after a checkout link is issued.
type PaymentLinkIssuedEvent struct {
	BookingID   uuid.UUID   `json:"booking_id"`
	OrderID     string      `json:"order_id"`
	AmountCents money.Cents `json:"amount_cents"`
	LinkType    string      `json:"link_type"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// Publisher is the outbound event port used by the application services.
// *kafka.Producer satisfies it; tests substitute a recorder.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}
