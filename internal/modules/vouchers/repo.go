package vouchers

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketly.com/app/internal/db"
	"marketly.com/app/internal/shared/pagination"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

type ListParams struct {
	ShopID    string
	Status    string
	Q         string
	ActiveNow bool
	Now       time.Time
	Page      pagination.Params
}

func (r *Repo) List(ctx context.Context, in ListParams) ([]Voucher, int64, error) {
	base := r.db.WithContext(ctx).Model(&Voucher{}).Where("shop_id = ?", in.ShopID)
	if st := strings.TrimSpace(in.Status); st != "" {
		base = base.Where("status = ?", st)
	}
	if q := strings.ToUpper(strings.TrimSpace(in.Q)); q != "" {
		base = base.Where("code LIKE ?"+db.Escape, db.PrefixPattern(q))
	}
	if in.ActiveNow {
		base = base.
			Where("status = ?", StatusActive).
			Where("(starts_at IS NULL OR starts_at <= ?)", in.Now).
			Where("(ends_at IS NULL OR ends_at > ?)", in.Now).
			Where("(usage_limit = 0 OR used_count < usage_limit)")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []Voucher
	err := base.
		Order("created_at DESC, id DESC").
		Limit(in.Page.Limit()).
		Offset(in.Page.Within(total).Offset()).
		Find(&items).Error
	return items, total, err
}

func (r *Repo) Create(ctx context.Context, v *Voucher) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *Repo) GetForShop(ctx context.Context, shopID, id string) (Voucher, error) {
	var v Voucher
	err := r.db.WithContext(ctx).First(&v, "id = ? AND shop_id = ?", id, shopID).Error
	return v, err
}

func (r *Repo) GetByCode(ctx context.Context, shopID, code string) (Voucher, error) {
	var v Voucher
	err := r.db.WithContext(ctx).First(&v, "shop_id = ? AND code = ?", shopID, NormalizeCode(code)).Error
	return v, err
}

func (r *Repo) SetStatus(ctx context.Context, shopID, id, status string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Voucher{}).
		Where("id = ? AND shop_id = ?", id, shopID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *Repo) CountActive(ctx context.Context, shopID string, now time.Time) (int64, error) {
	_, total, err := r.List(ctx, ListParams{ShopID: shopID, ActiveNow: true, Now: now, Page: pagination.Params{Page: 1, PageSize: 1}})
	return total, err
}

// lockByCode loads the voucher FOR UPDATE inside an order transaction.
func lockByCode(ctx context.Context, tx *gorm.DB, shopID, code string) (Voucher, error) {
	var v Voucher
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&v, "shop_id = ? AND code = ?", shopID, NormalizeCode(code)).Error
	return v, err
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
