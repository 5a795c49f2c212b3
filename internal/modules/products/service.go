package products

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"marketly.com/app/internal/db"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
	"marketly.com/app/internal/shared/slug"
	"marketly.com/app/internal/storage"
)

const (
	maxSlugAttempts = 50
	// MaxPriceCents keeps order totals far from int64 overflow.
	MaxPriceCents int64 = 1_000_000_000_000
)

var errProductNotFound = apperr.NotFoundErr("Product not found.")

type Service struct {
	repo   *Repo
	store  storage.Storage
	logger *slog.Logger
}

func NewService(gdb *gorm.DB, store storage.Storage) *Service {
	return &Service{repo: NewRepo(gdb), store: store, logger: slog.Default()}
}

func (s *Service) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	items, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	if items == nil {
		items = []Category{}
	}
	return items, nil
}

// CreateCategory is used by the seed tool; the slug is derived from the name.
func (s *Service) CreateCategory(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, apperr.InvalidErr("Category name is required.", map[string]string{"name": "Required."})
	}
	c := Category{ID: uuid.NewString(), Name: name, Slug: slug.FromName(name, "category")}
	if err := s.repo.CreateCategory(ctx, &c); err != nil {
		if db.IsDuplicateKey(err) {
			return Category{}, apperr.ConflictErr("Category already exists.").WithErr(err)
		}
		return Category{}, apperr.Wrap(err)
	}
	return c, nil
}

func (s *Service) Storefront(ctx context.Context, f StorefrontFilter) (pagination.Page[Card], error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return pagination.Page[Card]{}, apperr.InvalidErr("Invalid price range.", map[string]string{
			"max_price": "Must be greater than or equal to min_price.",
		})
	}
	items, total, err := s.repo.Storefront(ctx, f)
	if err != nil {
		return pagination.Page[Card]{}, apperr.Wrap(err)
	}
	return pagination.Map(pagination.NewPage(items, f.Page, total), Product.Card), nil
}

func (s *Service) Detail(ctx context.Context, sl string) (Detail, error) {
	p, err := s.repo.GetActiveBySlug(ctx, sl)
	if err != nil {
		if db.IsNotFound(err) {
			return Detail{}, errProductNotFound
		}
		return Detail{}, apperr.Wrap(err)
	}
	return p.Detail(), nil
}

func (s *Service) SellerList(ctx context.Context, in SellerListParams) (pagination.Page[Product], error) {
	items, total, err := s.repo.SellerList(ctx, in)
	if err != nil {
		return pagination.Page[Product]{}, apperr.Wrap(err)
	}
	for i := range items {
		if items[i].Images == nil {
			items[i].Images = []Image{}
		}
	}
	return pagination.NewPage(items, in.Page, total), nil
}

func (s *Service) Get(ctx context.Context, shopID, id string) (Product, error) {
	p, err := s.repo.GetForShop(ctx, shopID, id)
	if err != nil {
		if db.IsNotFound(err) {
			return Product{}, errProductNotFound
		}
		return Product{}, apperr.Wrap(err)
	}
	if p.Images == nil {
		p.Images = []Image{}
	}
	return p, nil
}

type Input struct {
	Name           string
	Description    string
	CategoryID     *string
	PriceCents     int64
	CompareAtCents int64
	Currency       string
	Stock          int
	Status         string
}

func (in *Input) normalize(defaultCurrency string) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = defaultCurrency
	}
	in.Status = strings.TrimSpace(in.Status)
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if in.CategoryID != nil && strings.TrimSpace(*in.CategoryID) == "" {
		in.CategoryID = nil
	}
}

func (in Input) validate(allowArchived bool) error {
	fields := map[string]string{}
	if n := utf8.RuneCountInString(in.Name); n < 2 || n > 200 {
		fields["name"] = "Must be between 2 and 200 characters."
	}
	switch {
	case in.PriceCents < 0:
		fields["price_cents"] = "Must not be negative."
	case in.PriceCents > MaxPriceCents:
		fields["price_cents"] = "Is too large."
	}
	switch {
	case in.CompareAtCents < 0:
		fields["compare_at_cents"] = "Must not be negative."
	case in.CompareAtCents > MaxPriceCents:
		fields["compare_at_cents"] = "Is too large."
	}
	if in.Stock < 0 {
		fields["stock"] = "Must not be negative."
	}
	if !isCurrency(in.Currency) {
		fields["currency"] = "Must be a 3-letter currency code."
	}
	switch in.Status {
	case StatusDraft, StatusActive:
	case StatusArchived:
		if !allowArchived {
			fields["status"] = "Must be draft or active."
		}
	default:
		fields["status"] = "Must be draft, active or archived."
	}
	if len(fields) > 0 {
		return apperr.InvalidErr("Please check the highlighted fields.", fields)
	}
	return nil
}

func isCurrency(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (s *Service) checkCategory(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.repo.GetCategory(ctx, *id); err != nil {
		if db.IsNotFound(err) {
			return apperr.InvalidErr("Unknown category.", map[string]string{"category_id": "Unknown category."})
		}
		return apperr.Wrap(err)
	}
	return nil
}

// Create adds a product to shop. Slugs are unique across the marketplace; a
// collision gets a numeric suffix.
func (s *Service) Create(ctx context.Context, shop shops.Shop, in Input) (Product, error) {
	in.normalize(shop.Settings.Data().Currency)
	if err := in.validate(false); err != nil {
		return Product{}, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return Product{}, err
	}

	base := slug.FromName(in.Name, "product")
	now := time.Now().UTC()
	p := Product{
		ID:             uuid.NewString(),
		ShopID:         shop.ID,
		CategoryID:     in.CategoryID,
		Name:           in.Name,
		Description:    in.Description,
		PriceCents:     in.PriceCents,
		CompareAtCents: in.CompareAtCents,
		Currency:       in.Currency,
		Stock:          in.Stock,
		Status:         in.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := slug.WithSuffix(base, n)
		taken, err := s.repo.SlugTaken(ctx, candidate)
		if err != nil {
			return Product{}, apperr.Wrap(err)
		}
		if taken {
			continue
		}
		p.Slug = candidate
		err = s.repo.Create(ctx, &p)
		if err == nil {
			p.Images = []Image{}
			return p, nil
		}
		if !db.IsDuplicateKey(err) {
			return Product{}, apperr.Wrap(err)
		}
		// lost a race for this slug; try the next suffix
	}
	return Product{}, apperr.ConflictErr("Could not allocate a unique product slug.")
}

// Update replaces the editable fields. The slug is kept so links stay valid.
func (s *Service) Update(ctx context.Context, shopID, id string, in Input) (Product, error) {
	cur, err := s.Get(ctx, shopID, id)
	if err != nil {
		return Product{}, err
	}
	in.normalize(cur.Currency)
	if err := in.validate(true); err != nil {
		return Product{}, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return Product{}, err
	}

	err = s.repo.Update(ctx, shopID, id, map[string]any{
		"name":             in.Name,
		"description":      in.Description,
		"category_id":      in.CategoryID,
		"price_cents":      in.PriceCents,
		"compare_at_cents": in.CompareAtCents,
		"currency":         in.Currency,
		"stock":            in.Stock,
		"status":           in.Status,
	})
	if err != nil {
		return Product{}, apperr.Wrap(err)
	}
	return s.Get(ctx, shopID, id)
}

// Delete removes a product and its images. Products that already appear on
// orders are archived instead so order history keeps its references.
// The returned bool reports whether the row was removed.
func (s *Service) Delete(ctx context.Context, shopID, id string) (bool, error) {
	p, err := s.Get(ctx, shopID, id)
	if err != nil {
		return false, err
	}

	referenced, err := s.repo.HasOrders(ctx, id)
	if err != nil {
		return false, apperr.Wrap(err)
	}
	if referenced {
		if err := s.repo.Update(ctx, shopID, id, map[string]any{"status": StatusArchived}); err != nil {
			return false, apperr.Wrap(err)
		}
		return false, nil
	}

	if err := s.repo.Delete(ctx, shopID, id); err != nil {
		return false, apperr.Wrap(err)
	}
	for _, im := range p.Images {
		s.deleteObject(ctx, im.StorageKey)
	}
	return true, nil
}

type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s *Service) AddImage(ctx context.Context, shopID, productID string, up Upload) (Image, error) {
	if _, err := s.Get(ctx, shopID, productID); err != nil {
		return Image{}, err
	}
	if _, _, err := storage.ImageExt(up.Filename); err != nil {
		return Image{}, apperr.InvalidErr("Unsupported image type.", map[string]string{
			"image": "Only png, jpg, jpeg, webp and gif are allowed.",
		})
	}

	count, next, err := s.repo.CountImages(ctx, productID)
	if err != nil {
		return Image{}, apperr.Wrap(err)
	}
	if count >= MaxImagesPerProduct {
		return Image{}, apperr.InvalidErr("Too many images.", map[string]string{
			"image": "A product can have at most 10 images.",
		})
	}

	res, err := s.store.Put(ctx, up.Body, storage.PutInput{
		Dir:         "products/" + productID,
		Filename:    up.Filename,
		ContentType: up.ContentType,
		Size:        up.Size,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return Image{}, apperr.InvalidErr("Unsupported image type.", nil)
		}
		return Image{}, apperr.Wrap(err)
	}

	im := Image{
		ID:         uuid.NewString(),
		ProductID:  productID,
		StorageKey: res.Key,
		URL:        res.URL,
		Position:   next,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.AddImage(ctx, &im); err != nil {
		s.deleteObject(ctx, res.Key)
		return Image{}, apperr.Wrap(err)
	}
	return im, nil
}

func (s *Service) DeleteImage(ctx context.Context, shopID, productID, imageID string) error {
	if _, err := s.Get(ctx, shopID, productID); err != nil {
		return err
	}
	im, err := s.repo.GetImage(ctx, productID, imageID)
	if err != nil {
		if db.IsNotFound(err) {
			return apperr.NotFoundErr("Image not found.")
		}
		return apperr.Wrap(err)
	}
	if err := s.repo.DeleteImage(ctx, productID, imageID); err != nil {
		return apperr.Wrap(err)
	}
	s.deleteObject(ctx, im.StorageKey)
	return nil
}

// deleteObject is best effort: the row is already gone, an orphaned object
// only costs storage.
func (s *Service) deleteObject(ctx context.Context, key string) {
	if s.store == nil || key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("image_delete_failed", "key", key, "error", err)
	}
}
