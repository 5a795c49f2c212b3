package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"marketly.com/app/internal/db"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
)

const MinPasswordLen = 8

var ErrInvalidCredentials = apperr.UnauthorizedErr("Invalid email or password.")

type Service struct {
	repo *Repo
	cost int
}

func NewService(gdb *gorm.DB) *Service {
	return &Service{repo: NewRepo(gdb), cost: bcrypt.DefaultCost}
}

// WithHashCost lowers bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if len(in.Password) < MinPasswordLen {
		return User{}, apperr.InvalidErr("Password is too short.", map[string]string{
			"password": "Must be at least 8 characters.",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, apperr.Wrap(err)
	}

	now := time.Now().UTC()
	u := User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(in.Email),
		PasswordHash: string(hash),
		Name:         in.Name,
		Role:         RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		if db.IsDuplicateKey(err) {
			return User{}, apperr.ConflictErr("An account with this email already exists.").WithErr(err)
		}
		return User{}, apperr.Wrap(err)
	}
	return u, nil
}

// Authenticate checks credentials. Unknown email and wrong password return the
// same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, apperr.Wrap(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return User{}, apperr.NotFoundErr("User not found.")
		}
		return User{}, apperr.Wrap(err)
	}
	return u, nil
}

// SetRole is the admin operation; it refuses unknown roles.
func (s *Service) SetRole(ctx context.Context, id string, role Role) (User, error) {
	if !role.Valid() {
		return User{}, apperr.InvalidErr("Unknown role.", map[string]string{"role": "Must be customer, seller or admin."})
	}
	n, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return User{}, apperr.Wrap(err)
	}
	if n == 0 {
		return User{}, apperr.NotFoundErr("User not found.")
	}
	return s.Get(ctx, id)
}

// PromoteToSellerTx upgrades a customer inside the shop-creation transaction.
// Admins keep their role.
func PromoteToSellerTx(ctx context.Context, tx *gorm.DB, userID string) error {
	res := tx.WithContext(ctx).Model(&User{}).
		Where("id = ? AND role = ?", userID, RoleCustomer).
		Updates(map[string]any{"role": RoleSeller, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var u User
		if err := tx.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundErr("User not found.")
			}
			return err
		}
	}
	return nil
}

func (s *Service) AdminList(ctx context.Context, in AdminListParams) (pagination.Page[User], error) {
	items, total, err := s.repo.AdminList(ctx, in)
	if err != nil {
		return pagination.Page[User]{}, apperr.Wrap(err)
	}
	return pagination.NewPage(items, in.Page, total), nil
}

func (s *Service) CountByRole(ctx context.Context) ([]RoleCount, error) {
	return s.repo.CountByRole(ctx)
}
