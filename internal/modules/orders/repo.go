package orders

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"marketly.com/app/internal/db"
	"marketly.com/app/internal/shared/pagination"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// ListParams filters orders. CustomerID and ShopID scope the list when set;
// Q matches an order id prefix.
type ListParams struct {
	CustomerID string
	ShopID     string
	Status     string
	Q          string
	Page       pagination.Params
}

func (r *Repo) List(ctx context.Context, in ListParams) ([]Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&Order{})
	if in.CustomerID != "" {
		base = base.Where("customer_id = ?", in.CustomerID)
	}
	if in.ShopID != "" {
		base = base.Where("shop_id = ?", in.ShopID)
	}
	if st := strings.TrimSpace(in.Status); st != "" {
		base = base.Where("status = ?", st)
	}
	if q := strings.ToLower(strings.TrimSpace(in.Q)); q != "" {
		base = base.Where("LOWER(id) LIKE ?"+db.Escape, db.PrefixPattern(q))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []Order
	err := base.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Order("created_at DESC, id DESC").
		Limit(in.Page.Limit()).
		Offset(in.Page.Within(total).Offset()).
		Find(&items).Error
	return items, total, err
}

func (r *Repo) GetWithItems(ctx context.Context, id string) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&o, "id = ?", id).Error
	return o, err
}

func (r *Repo) Events(ctx context.Context, orderID string) ([]OrderEvent, error) {
	var ev []OrderEvent
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&ev, "order_id = ?", orderID).Error
	return ev, err
}
