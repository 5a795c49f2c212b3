package products

import (
	"time"

	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/shared/money"
)

const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

const MaxImagesPerProduct = 10

type Category struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"size:120;not null" json:"name"`
	Slug string `gorm:"size:140;not null;uniqueIndex:ux_categories_slug" json:"slug"`
}

func (Category) TableName() string { return "categories" }

type Product struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ShopID         string     `gorm:"size:36;not null;index:ix_products_shop_status,priority:1" json:"shop_id"`
	CategoryID     *string    `gorm:"size:36;index:ix_products_category" json:"category_id"`
	Name           string     `gorm:"size:200;not null" json:"name"`
	Slug           string     `gorm:"size:220;not null;uniqueIndex:ux_products_slug" json:"slug"`
	Description    string     `gorm:"type:text;not null;default:''" json:"description"`
	PriceCents     int64      `gorm:"not null" json:"price_cents"`
	CompareAtCents int64      `gorm:"not null;default:0" json:"compare_at_cents"`
	Currency       string     `gorm:"size:3;not null;default:USD" json:"currency"`
	Stock          int        `gorm:"not null;default:0" json:"stock"`
	Status         string     `gorm:"size:16;not null;default:draft;index:ix_products_shop_status,priority:2" json:"status"`
	Images         []Image    `gorm:"foreignKey:ProductID" json:"images"`
	Shop           shops.Shop `gorm:"foreignKey:ShopID" json:"-"`
	Category       *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

type Image struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ProductID  string    `gorm:"size:36;not null;index:ix_product_images_product,priority:1" json:"product_id"`
	StorageKey string    `gorm:"size:512;not null" json:"-"`
	URL        string    `gorm:"size:1024;not null" json:"url"`
	Position   int       `gorm:"not null;default:0;index:ix_product_images_product,priority:2" json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Image) TableName() string { return "product_images" }

// Card is a storefront grid entry.
type Card struct {
	ID             string        `json:"id"`
	Slug           string        `json:"slug"`
	Name           string        `json:"name"`
	PriceCents     int64         `json:"price_cents"`
	CompareAtCents int64         `json:"compare_at_cents,omitempty"`
	Currency       string        `json:"currency"`
	Price          string        `json:"price"`
	CompareAt      string        `json:"compare_at,omitempty"`
	ImageURL       string        `json:"image_url,omitempty"`
	InStock        bool          `json:"in_stock"`
	Shop           shops.Summary `json:"shop"`
}

func (p Product) Card() Card {
	c := Card{
		ID:         p.ID,
		Slug:       p.Slug,
		Name:       p.Name,
		PriceCents: p.PriceCents,
		Currency:   p.Currency,
		Price:      money.Format(p.PriceCents, p.Currency),
		InStock:    p.Stock > 0,
		Shop:       p.Shop.Summary(),
	}
	if p.CompareAtCents > p.PriceCents {
		c.CompareAtCents = p.CompareAtCents
		c.CompareAt = money.Format(p.CompareAtCents, p.Currency)
	}
	if len(p.Images) > 0 {
		c.ImageURL = p.Images[0].URL
	}
	return c
}

// Detail is the product page payload.
type Detail struct {
	Card
	Description string    `json:"description"`
	Stock       int       `json:"stock"`
	Images      []Image   `json:"images"`
	Category    *Category `json:"category,omitempty"`
}

func (p Product) Detail() Detail {
	images := p.Images
	if images == nil {
		images = []Image{}
	}
	return Detail{
		Card:        p.Card(),
		Description: p.Description,
		Stock:       p.Stock,
		Images:      images,
		Category:    p.Category,
	}
}
