package promotion

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/domain/money"
	"github.com/hartley-studio/service-billing/pkg/domain"
)

// DiscountType selects how a promotion's discount is computed.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
	DiscountBOGO    DiscountType = "bogo"
)

// Promotion is a discount code. Codes are case-insensitive and stored
// upper-cased. Invariant: redemptionCount <= maxUses when maxUses is set
// (maxUses == 0 means unlimited).
type Promotion struct {
	id              uuid.UUID
	code            string
	discountType    DiscountType
	discountValue   int64
	serviceCategory string
	maxUses         int
	redemptionCount int
	active          bool
	startsAt        *time.Time
	endsAt          *time.Time
	createdAt       time.Time
	updatedAt       time.Time
}

// New creates an active promotion.
func New(code string, discountType DiscountType, discountValue int64, serviceCategory string, maxUses int, startsAt, endsAt *time.Time) (*Promotion, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, domain.NewValidationError("promo code is required")
	}
	switch discountType {
	case DiscountPercent:
		if discountValue < 0 || discountValue > 100 {
			return nil, domain.NewValidationError("percent discount must be between 0 and 100")
		}
	case DiscountFixed:
		if discountValue <= 0 {
			return nil, domain.NewValidationError("fixed discount must be positive")
		}
	case DiscountBOGO:
		// value unused
	default:
		return nil, domain.NewValidationError("unknown discount type: " + string(discountType))
	}
	if startsAt != nil && endsAt != nil && endsAt.Before(*startsAt) {
		return nil, domain.NewValidationError("promotion window ends before it starts")
	}

	now := time.Now().UTC()
	return &Promotion{
		id:              uuid.New(),
		code:            code,
		discountType:    discountType,
		discountValue:   discountValue,
		serviceCategory: serviceCategory,
		maxUses:         maxUses,
		active:          true,
		startsAt:        startsAt,
		endsAt:          endsAt,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// --- Getters ---

func (p *Promotion) ID() uuid.UUID              { return p.id }
func (p *Promotion) Code() string               { return p.code }
func (p *Promotion) DiscountType() DiscountType { return p.discountType }
func (p *Promotion) DiscountValue() int64       { return p.discountValue }
func (p *Promotion) ServiceCategory() string    { return p.serviceCategory }
func (p *Promotion) MaxUses() int               { return p.maxUses }
func (p *Promotion) RedemptionCount() int       { return p.redemptionCount }
func (p *Promotion) Active() bool               { return p.active }
func (p *Promotion) StartsAt() *time.Time       { return p.startsAt }
func (p *Promotion) EndsAt() *time.Time         { return p.endsAt }
func (p *Promotion) CreatedAt() time.Time       { return p.createdAt }
func (p *Promotion) UpdatedAt() time.Time       { return p.updatedAt }

// Eligibility runs the validation chain in order and returns the first
// failure message, or ok on a fully eligible code. Existence is checked by
// the caller; everything after that lives here.
func (p *Promotion) Eligibility(now time.Time, serviceCategory string) (bool, string) {
	if !p.active {
		return false, "Promo code is not active"
	}
	if p.endsAt != nil && p.endsAt.Before(now) {
		return false, "Promo code has expired"
	}
	if p.startsAt != nil && p.startsAt.After(now) {
		return false, "Promo code is not active yet"
	}
	if p.maxUses > 0 && p.redemptionCount >= p.maxUses {
		return false, "Promo code has reached max uses"
	}
	if p.serviceCategory != "" && serviceCategory != "" && !strings.EqualFold(p.serviceCategory, serviceCategory) {
		return false, "Promo code is not valid for this service"
	}
	return true, ""
}

// Discount computes the discount for a booking's effective total.
func (p *Promotion) Discount(effectiveTotal money.Cents) money.Cents {
	switch p.discountType {
	case DiscountPercent:
		return effectiveTotal.Percent(p.discountValue)
	case DiscountFixed:
		return money.Min(money.Cents(p.discountValue), effectiveTotal)
	case DiscountBOGO:
		return effectiveTotal.Half()
	default:
		return 0
	}
}

// Deactivate turns the code off. Promotions are never deleted.
func (p *Promotion) Deactivate() {
	p.active = false
	p.updatedAt = time.Now().UTC()
}

// NormalizeCode upper-cases and trims a user-supplied code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Reconstitute rebuilds a Promotion from persisted data.
func Reconstitute(
	id uuid.UUID,
	code string,
	discountType DiscountType,
	discountValue int64,
	serviceCategory string,
	maxUses, redemptionCount int,
	active bool,
	startsAt, endsAt *time.Time,
	createdAt, updatedAt time.Time,
) *Promotion {
	return &Promotion{
		id:              id,
		code:            code,
		discountType:    discountType,
		discountValue:   discountValue,
		serviceCategory: serviceCategory,
		maxUses:         maxUses,
		redemptionCount: redemptionCount,
		active:          active,
		startsAt:        startsAt,
		endsAt:          endsAt,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}
