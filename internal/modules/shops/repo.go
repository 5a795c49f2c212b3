package shops

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"marketly.com/app/internal/db"
	"marketly.com/app/internal/shared/pagination"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) GetByID(ctx context.Context, id string) (Shop, error) {
	var s Shop
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return s, err
}

func (r *Repo) GetByOwner(ctx context.Context, ownerID string) (Shop, error) {
	var s Shop
	err := r.db.WithContext(ctx).First(&s, "owner_id = ?", ownerID).Error
	return s, err
}

func (r *Repo) GetActiveBySlug(ctx context.Context, slug string) (Shop, error) {
	var s Shop
	err := r.db.WithContext(ctx).
		First(&s, "slug = ? AND status = ?", slug, StatusActive).Error
	return s, err
}

func (r *Repo) CountActiveProducts(ctx context.Context, shopID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("products").
		Where("shop_id = ? AND status = ?", shopID, "active").
		Count(&n).Error
	return n, err
}

func (r *Repo) Update(ctx context.Context, id string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&Shop{}).Where("id = ?", id).Updates(fields).Error
}

type ListParams struct {
	Q      string
	Status string
	Page   pagination.Params
}

// List filters by status (empty means any) and a case-insensitive name match.
func (r *Repo) List(ctx context.Context, in ListParams) ([]Shop, int64, error) {
	base := r.db.WithContext(ctx).Model(&Shop{})
	if st := strings.TrimSpace(in.Status); st != "" {
		base = base.Where("status = ?", st)
	}
	if q := strings.ToLower(strings.TrimSpace(in.Q)); q != "" {
		base = base.Where("LOWER(name) LIKE ?"+db.Escape, db.ContainsPattern(q))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []Shop
	err := base.
		Order("created_at DESC").
		Limit(in.Page.Limit()).
		Offset(in.Page.Within(total).Offset()).
		Find(&items).Error
	return items, total, err
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func (r *Repo) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var out []StatusCount
	err := r.db.WithContext(ctx).Model(&Shop{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&out).Error
	return out, err
}

func slugTaken(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&Shop{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}
