package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hartley-studio/service-billing/internal/domain/booking"
	"github.com/hartley-studio/service-billing/internal/domain/giftcard"
	"github.com/hartley-studio/service-billing/internal/domain/money"
	"github.com/hartley-studio/service-billing/internal/events"
	"github.com/hartley-studio/service-billing/pkg/domain"
	"github.com/hartley-studio/service-billing/pkg/kafka"
)

// CreateGiftCardRequest carries the issuance input.
type CreateGiftCardRequest struct {
	AmountCents   int64      `json:"amount_cents" binding:"required,gt=0"`
	PurchaserID   *uuid.UUID `json:"purchaser_id"`
	RecipientName string     `json:"recipient_name"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

// GiftCardDTO is the outward representation of a gift card. Status reflects
// read-time expiry, not only the stored value.
type GiftCardDTO struct {
	ID            uuid.UUID  `json:"id"`
	Code          string     `json:"code"`
	RecipientName string     `json:"recipient_name,omitempty"`
	OriginalCents int64      `json:"original_cents"`
	BalanceCents  int64      `json:"balance_cents"`
	Status        string     `json:"status"`
	PurchasedAt   time.Time  `json:"purchased_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// RedeemResult reports a redemption outcome to the caller. Business
// rejections (unknown card, inactive, insufficient balance) land in Error.
type RedeemResult struct {
	Success      bool   `json:"success"`
	BalanceCents int64  `json:"balance_cents,omitempty"`
	Error        string `json:"error,omitempty"`
}

// GiftCardService issues gift cards with sequential codes and redeems them
// against bookings.
type GiftCardService struct {
	cards      giftcard.Repository
	bookings   booking.Repository
	publisher  events.Publisher
	codePrefix string
	logger     *zap.Logger
}

// NewGiftCardService creates a new GiftCardService.
func NewGiftCardService(
	cards giftcard.Repository,
	bookings booking.Repository,
	publisher events.Publisher,
	codePrefix string,
	logger *zap.Logger,
) *GiftCardService {
	return &GiftCardService{
		cards:      cards,
		bookings:   bookings,
		publisher:  publisher,
		codePrefix: codePrefix,
		logger:     logger,
	}
}

// giftCardCodeAttempts bounds retries when a concurrent issuance takes the
// code this call derived from the current series maximum.
const giftCardCodeAttempts = 3

// CreateGiftCard issues a card with the next sequential code in the series,
// zero-padded to three digits, starting at 001. Two concurrent issuances can
// read the same series maximum; the unique code index rejects the loser, so
// a code conflict re-reads the series and tries again.
func (s *GiftCardService) CreateGiftCard(ctx context.Context, req CreateGiftCardRequest) (*GiftCardDTO, error) {
	var card *giftcard.GiftCard
	for attempt := 0; ; attempt++ {
		suffix, err := s.cards.MaxCodeSuffix(ctx, s.codePrefix)
		if err != nil {
			return nil, err
		}
		code := fmt.Sprintf("%s-%03d", s.codePrefix, suffix+1)

		card, err = giftcard.New(code, req.PurchaserID, req.RecipientName, money.Cents(req.AmountCents), req.ExpiresAt)
		if err != nil {
			return nil, err
		}
		err = s.cards.Save(ctx, card)
		if err == nil {
			break
		}
		if !domain.IsConflict(err) || attempt+1 >= giftCardCodeAttempts {
			return nil, err
		}
		s.logger.Warn("gift card code taken, retrying",
			zap.String("code", code),
			zap.Int("attempt", attempt+1),
		)
	}

	s.logger.Info("gift card issued",
		zap.String("gift_card_id", card.ID().String()),
		zap.String("code", card.Code()),
		zap.Int64("amount_cents", int64(card.OriginalCents())),
	)
	return s.toDTO(card, time.Now().UTC()), nil
}

// GetGiftCard returns a card by ID.
func (s *GiftCardService) GetGiftCard(ctx context.Context, id uuid.UUID) (*GiftCardDTO, error) {
	card, err := s.cards.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(card, time.Now().UTC()), nil
}

// GetGiftCardByCode returns a card by its printed code.
func (s *GiftCardService) GetGiftCardByCode(ctx context.Context, code string) (*GiftCardDTO, error) {
	card, err := s.cards.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.toDTO(card, time.Now().UTC()), nil
}

// RedeemGiftCard draws amount from the card and applies it to the booking as
// its discount. The draw and the booking mutation commit together; a
// concurrent redemption that empties the card first turns this call into a
// failed result, never a partial write.
func (s *GiftCardService) RedeemGiftCard(ctx context.Context, bookingID, cardID uuid.UUID, amountCents int64) (RedeemResult, error) {
	amount := money.Cents(amountCents)
	now := time.Now().UTC()

	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		if domain.IsNotFound(err) {
			return RedeemResult{Success: false, Error: "Gift card not found"}, nil
		}
		return RedeemResult{}, err
	}
	if !amount.IsPositive() {
		return RedeemResult{Success: false, Error: "Redemption amount must be positive"}, nil
	}
	if st := card.EffectiveStatus(now); st != giftcard.StatusActive {
		return RedeemResult{Success: false, Error: fmt.Sprintf("Gift card is %s", st)}, nil
	}
	if amount > card.BalanceCents() {
		return RedeemResult{Success: false, Error: fmt.Sprintf("Gift card balance is %s", card.BalanceCents().Format())}, nil
	}

	if _, err := s.bookings.FindByID(ctx, bookingID); err != nil {
		if domain.IsNotFound(err) {
			return RedeemResult{Success: false, Error: "Booking not found"}, nil
		}
		return RedeemResult{}, err
	}

	updated, err := s.cards.RedeemAgainstBooking(ctx, cardID, bookingID, amount, now)
	if err != nil {
		// Conflicts and state checks inside the transaction are business
		// outcomes; anything else is an infrastructure failure.
		var domErr *domain.DomainError
		if errors.As(err, &domErr) {
			return RedeemResult{Success: false, Error: domErr.Message}, nil
		}
		return RedeemResult{}, err
	}

	s.logger.Info("gift card redeemed",
		zap.String("gift_card_id", updated.ID().String()),
		zap.String("booking_id", bookingID.String()),
		zap.Int64("amount_cents", int64(amount)),
		zap.Int64("balance_cents", int64(updated.BalanceCents())),
	)

	s.publishRedeemed(ctx, events.GiftCardRedeemedEvent{
		GiftCardID:   updated.ID(),
		BookingID:    bookingID,
		AmountCents:  amount,
		BalanceCents: updated.BalanceCents(),
		OccurredAt:   now,
	})

	return RedeemResult{Success: true, BalanceCents: int64(updated.BalanceCents())}, nil
}

func (s *GiftCardService) publishRedeemed(ctx context.Context, data events.GiftCardRedeemedEvent) {
	if s.publisher == nil {
		return
	}
	ce, err := kafka.NewCloudEvent("service-billing", events.GiftCardRedeemed, data)
	if err != nil {
		s.logger.Error("failed to build gift card event", zap.Error(err))
		return
	}
	if err := s.publisher.PublishEvent(ctx, events.TopicBillingEvents, ce); err != nil {
		s.logger.Error("failed to publish gift card event", zap.Error(err))
	}
}

func (s *GiftCardService) toDTO(g *giftcard.GiftCard, now time.Time) *GiftCardDTO {
	return &GiftCardDTO{
		ID:            g.ID(),
		Code:          g.Code(),
		RecipientName: g.RecipientName(),
		OriginalCents: int64(g.OriginalCents()),
		BalanceCents:  int64(g.BalanceCents()),
		Status:        string(g.EffectiveStatus(now)),
		PurchasedAt:   g.PurchasedAt(),
		ExpiresAt:     g.ExpiresAt(),
	}
}
