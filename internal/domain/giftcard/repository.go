package giftcard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/domain/money"
)

// Repository defines the persistence contract for gift cards.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*GiftCard, error)
	FindByCode(ctx context.Context, code string) (*GiftCard, error)
	Save(ctx context.Context, g *GiftCard) error

	// MaxCodeSuffix returns the highest numeric suffix among existing codes
	// with the given prefix, or 0 when none exist. Issuance derives the next
	// sequential code from it.
	MaxCodeSuffix(ctx context.Context, prefix string) (int, error)

	// RedeemAgainstBooking atomically draws amount from the card (guarded by
	// status and sufficient balance, flipping to redeemed at zero) and sets
	// the booking's gift card reference and discount, as one transaction.
	RedeemAgainstBooking(ctx context.Context, cardID, bookingID uuid.UUID, amount money.Cents, now time.Time) (*GiftCard, error)
}
