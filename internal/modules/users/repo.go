package users

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

func (r *Repo) Create(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return u, err
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "email = ?", normalizeEmail(email)).Error
	return u, err
}

func (r *Repo) UpdateRole(ctx context.Context, id string, role Role) (int64, error) {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Updates(map[string]any{"role": role, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

type AdminListParams struct {
	Q    string
	Role string
	Page pagination.Params
}

func (r *Repo) AdminList(ctx context.Context, in AdminListParams) ([]User, int64, error) {
	base := r.db.WithContext(ctx).Model(&User{})
	if role := strings.TrimSpace(in.Role); role != "" {
		base = base.Where("role = ?", role)
	}
	if q := strings.ToLower(strings.TrimSpace(in.Q)); q != "" {
		like := db.ContainsPattern(q)
		base = base.Where("(LOWER(email) LIKE ?"+db.Escape+" OR LOWER(name) LIKE ?"+db.Escape+")", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []User
	err := base.
		Order("created_at DESC").
		Limit(in.Page.Limit()).
		Offset(in.Page.Within(total).Offset()).
		Find(&items).Error
	return items, total, err
}

type RoleCount struct {
	Role  Role  `json:"role"`
	Count int64 `json:"count"`
}

func (r *Repo) CountByRole(ctx context.Context) ([]RoleCount, error) {
	var out []RoleCount
	err := r.db.WithContext(ctx).Model(&User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Order("role").
		Scan(&out).Error
	return out, err
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
