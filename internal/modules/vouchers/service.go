package vouchers

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"marketly.com/app/internal/db"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,40}$`)

type Service struct {
	db   *gorm.DB
	repo *Repo
	now  func() time.Time
}

func NewService(gdb *gorm.DB) *Service {
	return &Service{db: gdb, repo: NewRepo(gdb), now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) List(ctx context.Context, in ListParams) (pagination.Page[Voucher], error) {
	if in.Now.IsZero() {
		in.Now = s.now()
	}
	items, total, err := s.repo.List(ctx, in)
	if err != nil {
		return pagination.Page[Voucher]{}, apperr.Wrap(err)
	}
	return pagination.NewPage(items, in.Page, total), nil
}

type CreateInput struct {
	Code          string
	Kind          string
	Value         int64
	MinOrderCents int64
	UsageLimit    int
	StartsAt      *time.Time
	EndsAt        *time.Time
}

func (in CreateInput) validate() error {
	fields := map[string]string{}
	if !codePattern.MatchString(in.Code) {
		fields["code"] = "Use 3 to 40 letters, digits, dashes or underscores."
	}
	switch in.Kind {
	case KindPercent:
		if in.Value < 1 || in.Value > 100 {
			fields["value"] = "Percent vouchers take a value between 1 and 100."
		}
	case KindFixed:
		if in.Value <= 0 {
			fields["value"] = "Fixed vouchers take a positive amount in cents."
		}
	default:
		fields["kind"] = "Must be percent or fixed."
	}
	if in.MinOrderCents < 0 {
		fields["min_order_cents"] = "Must not be negative."
	}
	if in.UsageLimit < 0 {
		fields["usage_limit"] = "Must not be negative."
	}
	if in.StartsAt != nil && in.EndsAt != nil && !in.EndsAt.After(*in.StartsAt) {
		fields["ends_at"] = "Must be after starts_at."
	}
	if len(fields) > 0 {
		return apperr.InvalidErr("Please check the highlighted fields.", fields)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, shopID string, in CreateInput) (Voucher, error) {
	in.Code = NormalizeCode(in.Code)
	if err := in.validate(); err != nil {
		return Voucher{}, err
	}

	now := s.now()
	v := Voucher{
		ID:            uuid.NewString(),
		ShopID:        shopID,
		Code:          in.Code,
		Kind:          in.Kind,
		Value:         in.Value,
		MinOrderCents: in.MinOrderCents,
		UsageLimit:    in.UsageLimit,
		StartsAt:      utcPtr(in.StartsAt),
		EndsAt:        utcPtr(in.EndsAt),
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, &v); err != nil {
		if db.IsDuplicateKey(err) {
			return Voucher{}, apperr.ConflictErr("A voucher with this code already exists.").WithErr(err)
		}
		return Voucher{}, apperr.Wrap(err)
	}
	return v, nil
}

func (s *Service) SetStatus(ctx context.Context, shopID, id, status string) (Voucher, error) {
	if status != StatusActive && status != StatusDisabled {
		return Voucher{}, apperr.InvalidErr("Unknown voucher status.", map[string]string{"status": "Must be active or disabled."})
	}
	n, err := s.repo.SetStatus(ctx, shopID, id, status)
	if err != nil {
		return Voucher{}, apperr.Wrap(err)
	}
	if n == 0 {
		return Voucher{}, apperr.NotFoundErr("Voucher not found.")
	}
	v, err := s.repo.GetForShop(ctx, shopID, id)
	if err != nil {
		return Voucher{}, apperr.Wrap(err)
	}
	return v, nil
}

type Quote struct {
	Code          string `json:"code"`
	SubtotalCents int64  `json:"subtotal_cents"`
	DiscountCents int64  `json:"discount_cents"`
	TotalCents    int64  `json:"total_cents"`
}

// Validate previews a voucher against a subtotal without consuming it.
func (s *Service) Validate(ctx context.Context, shopID, code string, subtotal int64) (Quote, error) {
	if subtotal < 0 {
		return Quote{}, apperr.InvalidErr("Invalid subtotal.", map[string]string{"subtotal_cents": "Must not be negative."})
	}
	v, err := s.repo.GetByCode(ctx, shopID, code)
	if err != nil {
		if db.IsNotFound(err) {
			return Quote{}, rejection(ReasonUnknown)
		}
		return Quote{}, apperr.Wrap(err)
	}
	if reason := v.Applicability(subtotal, s.now()); reason != "" {
		return Quote{}, rejection(reason)
	}
	d := v.Discount(subtotal)
	return Quote{Code: v.Code, SubtotalCents: subtotal, DiscountCents: d, TotalCents: subtotal - d}, nil
}

func (s *Service) CountActive(ctx context.Context, shopID string) (int64, error) {
	return s.repo.CountActive(ctx, shopID, s.now())
}

// RedeemTx applies code inside an order transaction: the voucher row is
// locked, checked and its used_count incremented.
func RedeemTx(ctx context.Context, tx *gorm.DB, shopID, code string, subtotal int64, now time.Time) (Voucher, int64, error) {
	v, err := lockByCode(ctx, tx, shopID, code)
	if err != nil {
		if db.IsNotFound(err) {
			return Voucher{}, 0, rejection(ReasonUnknown)
		}
		return Voucher{}, 0, err
	}
	if reason := v.Applicability(subtotal, now); reason != "" {
		return Voucher{}, 0, rejection(reason)
	}

	res := tx.WithContext(ctx).Model(&Voucher{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", v.ID).
		Updates(map[string]any{
			"used_count": gorm.Expr("used_count + 1"),
			"updated_at": now,
		})
	if res.Error != nil {
		return Voucher{}, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return Voucher{}, 0, rejection(ReasonExhausted)
	}
	v.UsedCount++
	return v, v.Discount(subtotal), nil
}

// ReleaseTx gives a use back when an order that consumed the voucher is cancelled.
func ReleaseTx(ctx context.Context, tx *gorm.DB, shopID, code string) error {
	return tx.WithContext(ctx).Model(&Voucher{}).
		Where("shop_id = ? AND code = ? AND used_count > 0", shopID, NormalizeCode(code)).
		Update("used_count", gorm.Expr("used_count - 1")).Error
}

func rejection(reason string) *apperr.AppError {
	return apperr.InvalidErr(reasonMessages[reason], map[string]string{"code": reason})
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
