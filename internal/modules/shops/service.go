package shops

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"marketly.com/app/internal/db"
	"marketly.com/app/internal/modules/users"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
	"marketly.com/app/internal/shared/slug"
)

const maxSlugAttempts = 50

var ErrNoShop = apperr.NotFoundErr("You do not have a shop yet.")

type Service struct {
	db   *gorm.DB
	repo *Repo
}

func NewService(gdb *gorm.DB) *Service {
	return &Service{db: gdb, repo: NewRepo(gdb)}
}

type CreateInput struct {
	Name        string
	Description string
	LogoURL     string
	Settings    *Settings
}

// Create opens the caller's shop and promotes a customer to seller in the
// same transaction. An owner can hold one shop.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (Shop, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Shop{}, apperr.InvalidErr("Shop name is required.", map[string]string{"name": "Required."})
	}
	settings := DefaultSettings()
	if in.Settings != nil {
		settings = normalizeSettings(*in.Settings)
	}

	now := time.Now().UTC()
	shop := Shop{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		LogoURL:     strings.TrimSpace(in.LogoURL),
		Status:      StatusActive,
		Settings:    datatypes.NewJSONType(settings),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Shop{}).Where("owner_id = ?", ownerID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.ConflictErr("You already have a shop.")
		}

		sl, err := uniqueSlug(ctx, tx, slug.FromName(name, "shop"))
		if err != nil {
			return err
		}
		shop.Slug = sl

		if err := tx.Create(&shop).Error; err != nil {
			return err
		}
		return users.PromoteToSellerTx(ctx, tx, ownerID)
	})
	if err != nil {
		if db.IsDuplicateKey(err) {
			return Shop{}, apperr.ConflictErr("You already have a shop.").WithErr(err)
		}
		return Shop{}, apperr.Wrap(err)
	}
	return shop, nil
}

func uniqueSlug(ctx context.Context, tx *gorm.DB, base string) (string, error) {
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := slug.WithSuffix(base, n)
		taken, err := slugTaken(ctx, tx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return slug.WithSuffix(base, int(time.Now().UnixNano()%100000)), nil
}

func (s *Service) Get(ctx context.Context, id string) (Shop, error) {
	sh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return Shop{}, apperr.NotFoundErr("Shop not found.")
		}
		return Shop{}, apperr.Wrap(err)
	}
	return sh, nil
}

// ForOwner returns the shop owned by userID or ErrNoShop.
func (s *Service) ForOwner(ctx context.Context, ownerID string) (Shop, error) {
	sh, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		if db.IsNotFound(err) {
			return Shop{}, ErrNoShop
		}
		return Shop{}, apperr.Wrap(err)
	}
	return sh, nil
}

type UpdateInput struct {
	Name        *string
	Description *string
	LogoURL     *string
	Settings    *SettingsPatch
}

// SettingsPatch changes only the settings that are set. An empty or
// malformed currency keeps the current one.
type SettingsPatch struct {
	Currency     *string
	AcceptsChat  *bool
	ReturnPolicy *string
}

// ReplaceSettings is a patch that sets every field of st.
func ReplaceSettings(st Settings) *SettingsPatch {
	return &SettingsPatch{Currency: &st.Currency, AcceptsChat: &st.AcceptsChat, ReturnPolicy: &st.ReturnPolicy}
}

func (p SettingsPatch) apply(cur Settings) Settings {
	if p.Currency != nil {
		if c := strings.ToUpper(strings.TrimSpace(*p.Currency)); len(c) == 3 {
			cur.Currency = c
		}
	}
	if p.AcceptsChat != nil {
		cur.AcceptsChat = *p.AcceptsChat
	}
	if p.ReturnPolicy != nil {
		cur.ReturnPolicy = *p.ReturnPolicy
	}
	return normalizeSettings(cur)
}

// Update changes the owner's shop. The slug stays stable once created.
func (s *Service) Update(ctx context.Context, ownerID string, in UpdateInput) (Shop, error) {
	sh, err := s.ForOwner(ctx, ownerID)
	if err != nil {
		return Shop{}, err
	}

	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Shop{}, apperr.InvalidErr("Shop name is required.", map[string]string{"name": "Required."})
		}
		fields["name"] = name
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.LogoURL != nil {
		fields["logo_url"] = strings.TrimSpace(*in.LogoURL)
	}
	if in.Settings != nil {
		fields["settings"] = datatypes.NewJSONType(in.Settings.apply(sh.Settings.Data()))
	}
	if len(fields) == 0 {
		return sh, nil
	}
	if err := s.repo.Update(ctx, sh.ID, fields); err != nil {
		return Shop{}, apperr.Wrap(err)
	}
	return s.Get(ctx, sh.ID)
}

// PublicBySlug is the storefront shop page lookup.
func (s *Service) PublicBySlug(ctx context.Context, sl string) (Public, error) {
	sh, err := s.repo.GetActiveBySlug(ctx, sl)
	if err != nil {
		if db.IsNotFound(err) {
			return Public{}, apperr.NotFoundErr("Shop not found.")
		}
		return Public{}, apperr.Wrap(err)
	}
	n, err := s.repo.CountActiveProducts(ctx, sh.ID)
	if err != nil {
		return Public{}, apperr.Wrap(err)
	}
	return Public{
		Summary:        sh.Summary(),
		Description:    sh.Description,
		Settings:       sh.Settings.Data(),
		ActiveProducts: n,
		CreatedAt:      sh.CreatedAt,
	}, nil
}

func (s *Service) ListActive(ctx context.Context, q string, p pagination.Params) (pagination.Page[Summary], error) {
	items, total, err := s.repo.List(ctx, ListParams{Q: q, Status: StatusActive, Page: p})
	if err != nil {
		return pagination.Page[Summary]{}, apperr.Wrap(err)
	}
	return pagination.Map(pagination.NewPage(items, p, total), Shop.Summary), nil
}

func (s *Service) AdminList(ctx context.Context, in ListParams) (pagination.Page[Shop], error) {
	items, total, err := s.repo.List(ctx, in)
	if err != nil {
		return pagination.Page[Shop]{}, apperr.Wrap(err)
	}
	return pagination.NewPage(items, in.Page, total), nil
}

func (s *Service) SetStatus(ctx context.Context, id, status string) (Shop, error) {
	if status != StatusActive && status != StatusSuspended {
		return Shop{}, apperr.InvalidErr("Unknown shop status.", map[string]string{"status": "Must be active or suspended."})
	}
	if _, err := s.Get(ctx, id); err != nil {
		return Shop{}, err
	}
	if err := s.repo.Update(ctx, id, map[string]any{"status": status}); err != nil {
		return Shop{}, apperr.Wrap(err)
	}
	return s.Get(ctx, id)
}

func (s *Service) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	return s.repo.CountByStatus(ctx)
}

func normalizeSettings(in Settings) Settings {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if len(in.Currency) != 3 {
		in.Currency = DefaultSettings().Currency
	}
	in.ReturnPolicy = strings.TrimSpace(in.ReturnPolicy)
	return in
}
