package products

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketly.com/app/internal/db"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/shared/pagination"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func orderedImages(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") }

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	var items []Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *Repo) GetCategory(ctx context.Context, id string) (Category, error) {
	var c Category
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return c, err
}

func (r *Repo) CreateCategory(ctx context.Context, c *Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

type StorefrontFilter struct {
	Q        string
	Category string
	Shop     string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
	Page     pagination.Params
}

// Storefront lists active products of active shops.
func (r *Repo) Storefront(ctx context.Context, f StorefrontFilter) ([]Product, int64, error) {
	base := r.db.WithContext(ctx).Model(&Product{}).
		Joins("JOIN shops ON shops.id = products.shop_id AND shops.status = ?", shops.StatusActive).
		Where("products.status = ?", StatusActive)

	if q := strings.ToLower(strings.TrimSpace(f.Q)); q != "" {
		like := db.ContainsPattern(q)
		base = base.Where("(LOWER(products.name) LIKE ?"+db.Escape+" OR LOWER(products.description) LIKE ?"+db.Escape+")", like, like)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		base = base.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", c)
	}
	if s := strings.TrimSpace(f.Shop); s != "" {
		base = base.Where("shops.slug = ?", s)
	}
	if f.MinPrice != nil {
		base = base.Where("products.price_cents >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		base = base.Where("products.price_cents <= ?", *f.MaxPrice)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []Product
	err := base.
		Preload("Images", orderedImages).
		Preload("Shop").
		Order(storefrontOrder(f.Sort)).
		Limit(f.Page.Limit()).
		Offset(f.Page.Within(total).Offset()).
		Find(&items).Error
	return items, total, err
}

func storefrontOrder(sort string) string {
	switch sort {
	case SortPriceAsc:
		return "products.price_cents ASC, products.id ASC"
	case SortPriceDesc:
		return "products.price_cents DESC, products.id ASC"
	case SortName:
		return "products.name ASC, products.id ASC"
	default:
		return "products.created_at DESC, products.id DESC"
	}
}

func (r *Repo) GetActiveBySlug(ctx context.Context, slug string) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).Model(&Product{}).
		Joins("JOIN shops ON shops.id = products.shop_id AND shops.status = ?", shops.StatusActive).
		Where("products.slug = ? AND products.status = ?", slug, StatusActive).
		Preload("Images", orderedImages).
		Preload("Shop").
		Preload("Category").
		First(&p).Error
	return p, err
}

type SellerListParams struct {
	ShopID string
	Q      string
	Status string
	Page   pagination.Params
}

func (r *Repo) SellerList(ctx context.Context, in SellerListParams) ([]Product, int64, error) {
	base := r.db.WithContext(ctx).Model(&Product{}).Where("shop_id = ?", in.ShopID)
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

	var items []Product
	err := base.
		Preload("Images", orderedImages).
		Order("updated_at DESC, id DESC").
		Limit(in.Page.Limit()).
		Offset(in.Page.Within(total).Offset()).
		Find(&items).Error
	return items, total, err
}

// GetForShop scopes the lookup to the owning shop so sellers never see each
// other's products.
func (r *Repo) GetForShop(ctx context.Context, shopID, id string) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).
		Preload("Images", orderedImages).
		Preload("Category").
		First(&p, "id = ? AND shop_id = ?", id, shopID).Error
	return p, err
}

func (r *Repo) AllForShop(ctx context.Context, shopID string) ([]Product, error) {
	var items []Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("shop_id = ?", shopID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *Repo) Create(ctx context.Context, p *Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *Repo) Update(ctx context.Context, shopID, id string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND shop_id = ?", id, shopID).
		Updates(fields).Error
}

func (r *Repo) Delete(ctx context.Context, shopID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&Image{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND shop_id = ?", id, shopID).Delete(&Product{}).Error
	})
}

// HasOrders reports whether any order line still references the product.
func (r *Repo) HasOrders(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("order_items").Where("product_id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *Repo) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Product{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (r *Repo) AddImage(ctx context.Context, im *Image) error {
	return r.db.WithContext(ctx).Create(im).Error
}

func (r *Repo) CountImages(ctx context.Context, productID string) (int64, int, error) {
	var row struct {
		Total  int64
		MaxPos *int
	}
	err := r.db.WithContext(ctx).Model(&Image{}).
		Select("COUNT(*) AS total, MAX(position) AS max_pos").
		Where("product_id = ?", productID).
		Scan(&row).Error
	next := 0
	if row.MaxPos != nil {
		next = *row.MaxPos + 1
	}
	return row.Total, next, err
}

func (r *Repo) GetImage(ctx context.Context, productID, imageID string) (Image, error) {
	var im Image
	err := r.db.WithContext(ctx).First(&im, "id = ? AND product_id = ?", imageID, productID).Error
	return im, err
}

func (r *Repo) DeleteImage(ctx context.Context, productID, imageID string) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", imageID, productID).
		Delete(&Image{}).Error
}
