package giftcard

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/domain/money"
	"github.com/hartley-studio/service-billing/pkg/domain"
)

// Status is the stored lifecycle of a gift card. Expiry is never stored as a
// transition; it is evaluated at read time via EffectiveStatus.
type Status string

const (
	StatusActive   Status = "active"
	StatusRedeemed Status = "redeemed"
	StatusExpired  Status = "expired"
)

// GiftCard is a stored-value instrument.
// Invariants: balance <= originalAmount; status is redeemed iff balance == 0.
type GiftCard struct {
	id            uuid.UUID
	code          string
	purchaserID   *uuid.UUID
	recipientName string
	originalCents money.Cents
	balanceCents  money.Cents
	status        Status
	purchasedAt   time.Time
	expiresAt     *time.Time
}

// New issues a gift card with its balance equal to the original value.
// The code is assigned by the issuer from the sequential series.
func New(code string, purchaserID *uuid.UUID, recipientName string, original money.Cents, expiresAt *time.Time) (*GiftCard, error) {
	if !original.IsPositive() {
		return nil, domain.NewValidationError("gift card value must be positive")
	}
	if code == "" {
		return nil, domain.NewValidationError("gift card code is required")
	}
	return &GiftCard{
		id:            uuid.New(),
		code:          code,
		purchaserID:   purchaserID,
		recipientName: recipientName,
		originalCents: original,
		balanceCents:  original,
		status:        StatusActive,
		purchasedAt:   time.Now().UTC(),
		expiresAt:     expiresAt,
	}, nil
}

// --- Getters ---

func (g *GiftCard) ID() uuid.UUID              { return g.id }
func (g *GiftCard) Code() string               { return g.code }
func (g *GiftCard) PurchaserID() *uuid.UUID    { return g.purchaserID }
func (g *GiftCard) RecipientName() string      { return g.recipientName }
func (g *GiftCard) OriginalCents() money.Cents { return g.originalCents }
func (g *GiftCard) BalanceCents() money.Cents  { return g.balanceCents }
func (g *GiftCard) Status() Status             { return g.status }
func (g *GiftCard) PurchasedAt() time.Time     { return g.purchasedAt }
func (g *GiftCard) ExpiresAt() *time.Time      { return g.expiresAt }

// EffectiveStatus is the status as seen at the given instant: an active card
// past its expiry reads as expired without any stored transition.
func (g *GiftCard) EffectiveStatus(now time.Time) Status {
	if g.status == StatusActive && g.expiresAt != nil && now.After(*g.expiresAt) {
		return StatusExpired
	}
	return g.status
}

// Redeem draws amount down from the balance. The status flips to redeemed
// exactly when the balance reaches zero.
func (g *GiftCard) Redeem(amount money.Cents, now time.Time) error {
	if !amount.IsPositive() {
		return domain.NewValidationError("redemption amount must be positive")
	}
	if g.EffectiveStatus(now) != StatusActive {
		return domain.NewInvalidStateError(string(g.EffectiveStatus(now)), string(StatusRedeemed))
	}
	if amount > g.balanceCents {
		return domain.NewConflictError(fmt.Sprintf("gift card balance is %s", g.balanceCents.Format()))
	}

	g.balanceCents -= amount
	if g.balanceCents == 0 {
		g.status = StatusRedeemed
	}
	return nil
}

// Reconstitute rebuilds a GiftCard from persisted data.
func Reconstitute(
	id uuid.UUID,
	code string,
	purchaserID *uuid.UUID,
	recipientName string,
	original, balance money.Cents,
	status Status,
	purchasedAt time.Time,
	expiresAt *time.Time,
) *GiftCard {
	return &GiftCard{
		id:            id,
		code:          code,
		purchaserID:   purchaserID,
		recipientName: recipientName,
		originalCents: original,
		balanceCents:  balance,
		status:        status,
		purchasedAt:   purchasedAt,
		expiresAt:     expiresAt,
	}
}
