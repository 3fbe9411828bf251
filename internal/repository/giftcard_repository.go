package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	giftcardDomain "github.com/hartley-studio/service-billing/internal/domain/giftcard"
	"github.com/hartley-studio/service-billing/internal/domain/money"
	"github.com/hartley-studio/service-billing/pkg/domain"
)

// GormGiftCardRepository implements giftcard.Repository using GORM.
type GormGiftCardRepository struct {
	db *gorm.DB
}

// NewGormGiftCardRepository creates a new GORM-based gift card repository.
func NewGormGiftCardRepository(db *gorm.DB) *GormGiftCardRepository {
	return &GormGiftCardRepository{db: db}
}

// FindByID retrieves a gift card by its unique ID.
func (r *GormGiftCardRepository) FindByID(ctx context.Context, id uuid.UUID) (*giftcardDomain.GiftCard, error) {
	var model GiftCardModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("GiftCard", id.String())
		}
		return nil, err
	}
	return toGiftCardDomain(&model), nil
}

// FindByCode retrieves a gift card by its code.
func (r *GormGiftCardRepository) FindByCode(ctx context.Context, code string) (*giftcardDomain.GiftCard, error) {
	var model GiftCardModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("GiftCard", code)
		}
		return nil, err
	}
	return toGiftCardDomain(&model), nil
}

// Save persists a new gift card. A code taken by a concurrent issuance
// surfaces as a conflict via the unique code index.
func (r *GormGiftCardRepository) Save(ctx context.Context, g *giftcardDomain.GiftCard) error {
	model := toGiftCardModel(g)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError(fmt.Sprintf("gift card code %s already exists", g.Code()))
		}
		return err
	}
	return nil
}

// MaxCodeSuffix scans existing codes with the prefix and returns the highest
// numeric suffix, or 0 when none exist.
func (r *GormGiftCardRepository) MaxCodeSuffix(ctx context.Context, prefix string) (int, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&GiftCardModel{}).
		Where("code LIKE ?", prefix+"-%").
		Pluck("code", &codes).Error; err != nil {
		return 0, err
	}

	max := 0
	for _, code := range codes {
		suffix := strings.TrimPrefix(code, prefix+"-")
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

// RedeemAgainstBooking draws amount from the card and applies it to the
// booking as a discount, in one transaction. The card update is a conditional
// UPDATE guarded by active status, unexpired card and sufficient balance, so
// concurrent redemptions cannot take the balance negative.
func (r *GormGiftCardRepository) RedeemAgainstBooking(ctx context.Context, cardID, bookingID uuid.UUID, amount money.Cents, now time.Time) (*giftcardDomain.GiftCard, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&GiftCardModel{}).
			Where("id = ? AND status = ? AND balance_cents >= ? AND (expires_at IS NULL OR expires_at > ?)",
				cardID, string(giftcardDomain.StatusActive), int64(amount), now).
			Updates(map[string]interface{}{
				"balance_cents": gorm.Expr("balance_cents - ?", int64(amount)),
				"status": gorm.Expr(
					"CASE WHEN balance_cents - ? = 0 THEN 'redeemed' ELSE status END",
					int64(amount),
				),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.NewConflictError("gift card is not redeemable for this amount")
		}

		booked := tx.Model(&BookingModel{}).
			Where("id = ? AND total_cents >= ?", bookingID, int64(amount)).
			Updates(map[string]interface{}{
				"gift_card_id":   cardID,
				"discount_cents": int64(amount),
			})
		if booked.Error != nil {
			return booked.Error
		}
		if booked.RowsAffected == 0 {
			return domain.NewConflictError(fmt.Sprintf("discount %s exceeds booking total", amount.Format()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.FindByID(ctx, cardID)
}

// toGiftCardDomain maps a GiftCardModel to the domain GiftCard.
func toGiftCardDomain(m *GiftCardModel) *giftcardDomain.GiftCard {
	return giftcardDomain.Reconstitute(
		m.ID, m.Code, m.PurchaserID, m.RecipientName,
		money.Cents(m.OriginalCents), money.Cents(m.BalanceCents),
		giftcardDomain.Status(m.Status),
		m.PurchasedAt, m.ExpiresAt,
	)
}

// toGiftCardModel maps a domain GiftCard to a GiftCardModel for persistence.
func toGiftCardModel(g *giftcardDomain.GiftCard) *GiftCardModel {
	return &GiftCardModel{
		ID:            g.ID(),
		Code:          g.Code(),
		PurchaserID:   g.PurchaserID(),
		RecipientName: g.RecipientName(),
		OriginalCents: int64(g.OriginalCents()),
		BalanceCents:  int64(g.BalanceCents()),
		Status:        string(g.Status()),
		PurchasedAt:   g.PurchasedAt(),
		ExpiresAt:     g.ExpiresAt(),
	}
}
