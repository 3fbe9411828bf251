package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hartley-studio/service-billing/internal/domain/booking"
	"github.com/hartley-studio/service-billing/internal/domain/promotion"
	"github.com/hartley-studio/service-billing/internal/events"
	"github.com/hartley-studio/service-billing/pkg/domain"
	"github.com/hartley-studio/service-billing/pkg/kafka"
)

// CreatePromotionRequest carries the promotion creation input.
type CreatePromotionRequest struct {
	Code            string     `json:"code" binding:"required"`
	DiscountType    string     `json:"discount_type" binding:"required,oneof=percent fixed bogo"`
	DiscountValue   int64      `json:"discount_value"`
	ServiceCategory string     `json:"service_category"`
	MaxUses         int        `json:"max_uses"`
	StartsAt        *time.Time `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
}

// PromotionDTO is the outward representation of a promotion.
type PromotionDTO struct {
	ID              uuid.UUID  `json:"id"`
	Code            string     `json:"code"`
	DiscountType    string     `json:"discount_type"`
	DiscountValue   int64      `json:"discount_value"`
	ServiceCategory string     `json:"service_category,omitempty"`
	MaxUses         int        `json:"max_uses"`
	RedemptionCount int        `json:"redemption_count"`
	Active          bool       `json:"active"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
}

// PromoVerdict is the read-only validation result. Invalid codes carry the
// first failing check's message; valid codes carry the discount shape.
type PromoVerdict struct {
	Valid         bool   `json:"valid"`
	Error         string `json:"error,omitempty"`
	DiscountType  string `json:"discount_type,omitempty"`
	DiscountValue int64  `json:"discount_value,omitempty"`
}

// ApplyPromoResult reports a promotion application to the caller.
type ApplyPromoResult struct {
	Success       bool   `json:"success"`
	DiscountCents int64  `json:"discount_cents,omitempty"`
	Error         string `json:"error,omitempty"`
}

// PromotionService validates and applies promo codes.
type PromotionService struct {
	promotions promotion.Repository
	bookings   booking.Repository
	publisher  events.Publisher
	logger     *zap.Logger
}

// NewPromotionService creates a new PromotionService.
func NewPromotionService(
	promotions promotion.Repository,
	bookings booking.Repository,
	publisher events.Publisher,
	logger *zap.Logger,
) *PromotionService {
	return &PromotionService{
		promotions: promotions,
		bookings:   bookings,
		publisher:  publisher,
		logger:     logger,
	}
}

// CreatePromotion registers a new active promo code.
func (s *PromotionService) CreatePromotion(ctx context.Context, req CreatePromotionRequest) (*PromotionDTO, error) {
	p, err := promotion.New(
		req.Code,
		promotion.DiscountType(req.DiscountType),
		req.DiscountValue,
		req.ServiceCategory,
		req.MaxUses,
		req.StartsAt,
		req.EndsAt,
	)
	if err != nil {
		return nil, err
	}
	if err := s.promotions.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("promotion created",
		zap.String("promotion_id", p.ID().String()),
		zap.String("code", p.Code()),
	)
	return toPromotionDTO(p), nil
}

// GetPromotion returns a promotion by ID.
func (s *PromotionService) GetPromotion(ctx context.Context, id uuid.UUID) (*PromotionDTO, error) {
	p, err := s.promotions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPromotionDTO(p), nil
}

// DeactivatePromotion turns a code off without deleting it.
func (s *PromotionService) DeactivatePromotion(ctx context.Context, id uuid.UUID) error {
	return s.promotions.SetActive(ctx, id, false)
}

// ValidatePromoCode runs the eligibility chain against the code and the
// optional service category. It is a pure read; redemption counts do not move.
func (s *PromotionService) ValidatePromoCode(ctx context.Context, code, serviceCategory string) (PromoVerdict, error) {
	p, err := s.promotions.FindByCode(ctx, promotion.NormalizeCode(code))
	if err != nil {
		if domain.IsNotFound(err) {
			return PromoVerdict{Valid: false, Error: "Invalid promo code"}, nil
		}
		return PromoVerdict{}, err
	}
	if ok, msg := p.Eligibility(time.Now().UTC(), serviceCategory); !ok {
		return PromoVerdict{Valid: false, Error: msg}, nil
	}
	return PromoVerdict{
		Valid:         true,
		DiscountType:  string(p.DiscountType()),
		DiscountValue: p.DiscountValue(),
	}, nil
}

// ApplyPromoCode computes the discount from the booking's effective total and
// commits the booking mutation together with the redemption counter bump.
// Existence is the only check re-run here; callers are expected to have
// validated the code immediately before.
func (s *PromotionService) ApplyPromoCode(ctx context.Context, bookingID uuid.UUID, code string) (ApplyPromoResult, error) {
	p, err := s.promotions.FindByCode(ctx, promotion.NormalizeCode(code))
	if err != nil {
		if domain.IsNotFound(err) {
			return ApplyPromoResult{Success: false, Error: "Invalid promo code"}, nil
		}
		return ApplyPromoResult{}, err
	}

	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if domain.IsNotFound(err) {
			return ApplyPromoResult{Success: false, Error: "Booking not found"}, nil
		}
		return ApplyPromoResult{}, err
	}

	discount := p.Discount(b.EffectiveTotal())
	if err := s.promotions.ApplyToBooking(ctx, p.ID(), b.ID(), discount); err != nil {
		var domErr *domain.DomainError
		if errors.As(err, &domErr) {
			return ApplyPromoResult{Success: false, Error: domErr.Message}, nil
		}
		return ApplyPromoResult{}, err
	}

	s.logger.Info("promotion applied",
		zap.String("promotion_id", p.ID().String()),
		zap.String("booking_id", b.ID().String()),
		zap.String("code", p.Code()),
		zap.Int64("discount_cents", int64(discount)),
	)

	s.publishApplied(ctx, events.PromotionAppliedEvent{
		PromotionID:   p.ID(),
		BookingID:     b.ID(),
		Code:          p.Code(),
		DiscountCents: discount,
		OccurredAt:    time.Now().UTC(),
	})

	return ApplyPromoResult{Success: true, DiscountCents: int64(discount)}, nil
}

func (s *PromotionService) publishApplied(ctx context.Context, data events.PromotionAppliedEvent) {
	if s.publisher == nil {
		return
	}
	ce, err := kafka.NewCloudEvent("service-billing", events.PromotionApplied, data)
	if err != nil {
		s.logger.Error("failed to build promotion event", zap.Error(err))
		return
	}
	if err := s.publisher.PublishEvent(ctx, events.TopicBillingEvents, ce); err != nil {
		s.logger.Error("failed to publish promotion event", zap.Error(err))
	}
}

func toPromotionDTO(p *promotion.Promotion) *PromotionDTO {
	return &PromotionDTO{
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
	}
}
