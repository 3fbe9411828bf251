package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartley-studio/service-billing/internal/domain/money"
	promotionDomain "github.com/hartley-studio/service-billing/internal/domain/promotion"
	"github.com/hartley-studio/service-billing/pkg/domain"
)

// GormPromotionRepository implements promotion.Repository using GORM.
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewGormPromotionRepository creates a new GORM-based promotion repository.
func NewGormPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// FindByID retrieves a promotion by its unique ID.
func (r *GormPromotionRepository) FindByID(ctx context.Context, id uuid.UUID) (*promotionDomain.Promotion, error) {
	var model PromotionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Promotion", id.String())
		}
		return nil, err
	}
	return toPromotionDomain(&model), nil
}

// FindByCode retrieves a promotion by normalized code.
func (r *GormPromotionRepository) FindByCode(ctx context.Context, code string) (*promotionDomain.Promotion, error) {
	var model PromotionModel
	normalized := promotionDomain.NormalizeCode(code)
	if err := r.db.WithContext(ctx).Where("code = ?", normalized).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Promotion", normalized)
		}
		return nil, err
	}
	return toPromotionDomain(&model), nil
}

// Save persists a new promotion. Reusing an existing code surfaces as a
// conflict via the unique code index.
func (r *GormPromotionRepository) Save(ctx context.Context, p *promotionDomain.Promotion) error {
	model := toPromotionModel(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError(fmt.Sprintf("promo code %s already exists", p.Code()))
		}
		return err
	}
	return nil
}

// SetActive flips the active flag.
func (r *GormPromotionRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&PromotionModel{}).
		Where("id = ?", id).
		Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Promotion", id.String())
	}
	return nil
}

// ApplyToBooking writes the booking's promotion reference and discount and
// bumps the redemption counter, in one transaction. The counter bump is an
// atomic `redemption_count = redemption_count + 1`, so concurrent
// applications never lose an increment.
func (r *GormPromotionRepository) ApplyToBooking(ctx context.Context, promoID, bookingID uuid.UUID, discount money.Cents) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booked := tx.Model(&BookingModel{}).
			Where("id = ? AND total_cents >= ?", bookingID, int64(discount)).
			Updates(map[string]interface{}{
				"promotion_id":   promoID,
				"discount_cents": int64(discount),
			})
		if booked.Error != nil {
			return booked.Error
		}
		if booked.RowsAffected == 0 {
			return domain.NewConflictError("discount exceeds booking total")
		}

		bumped := tx.Model(&PromotionModel{}).
			Where("id = ?", promoID).
			Update("redemption_count", gorm.Expr("redemption_count + 1"))
		if bumped.Error != nil {
			return bumped.Error
		}
		if bumped.RowsAffected == 0 {
			return domain.NewNotFoundError("Promotion", promoID.String())
		}
		return nil
	})
}

// toPromotionDomain maps a PromotionModel to the domain Promotion.
func toPromotionDomain(m *PromotionModel) *promotionDomain.Promotion {
	return promotionDomain.Reconstitute(
		m.ID, m.Code,
		promotionDomain.DiscountType(m.DiscountType),
		m.DiscountValue,
		m.ServiceCategory,
		m.MaxUses, m.RedemptionCount,
		m.Active,
		m.StartsAt, m.EndsAt,
		m.CreatedAt, m.UpdatedAt,
	)
}

// toPromotionModel maps a domain Promotion to a PromotionModel.
func toPromotionModel(p *promotionDomain.Promotion) *PromotionModel {
	return &PromotionModel{
		ID:              p.ID(),
		Code:            p.Code(),
		DiscountType:    string(p.DiscountType()),
		DiscountValue:   p.DiscountValue(),
		ServiceCategory: p.ServiceCategory(),
		MaxUses:         p.MaxUses(),
		RedemptionCount: p.RedemptionCount(),
		Active:          p.Active(),
		StartsAt:        p.StartsAt(),
		EndsAt:          p.EndsAt(),
		CreatedAt:       p.CreatedAt(),
		UpdatedAt:       p.UpdatedAt(),
	}
}
