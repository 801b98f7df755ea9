package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"recipe-api/internal/domain"
	"recipe-api/internal/repo"
	"recipe-api/pkg/utils"
)

const minPasswordLen = 5

type UserService struct {
	store *repo.Store
	log   *zap.Logger
}

func NewUserService(store *repo.Store, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{store: store, log: l}
}

// CreateUser registers an active account. An empty password stores a hash
// that never verifies.
func (s *UserService) CreateUser(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	return s.create(ctx, s.store, in)
}

func (s *UserService) create(ctx context.Context, st *repo.Store, in domain.NewUser) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return nil, domain.NewValidationError("email", "this field is required")
	}
	hash := utils.UnusablePassword()
	if in.Password != "" {
		h, err := utils.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = h
	}
	u := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := st.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.Uint("id", u.ID))
	return u, nil
}

func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*domain.User, error) {
	var out *domain.User
	err := s.store.Tx(ctx, func(tx *repo.Store) error {
		u, err := s.create(ctx, tx, domain.NewUser{Email: email, Password: password})
		if err != nil {
			return err
		}
		u.IsStaff, u.IsSuperuser = true, true
		if err := tx.Users.Update(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("superuser created", zap.Uint("id", out.ID))
	return out, nil
}

// Authenticate returns the active user owning email and password.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.store.Users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	return s.store.Users.FindByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, id uint, p domain.UserPatch) (*domain.User, error) {
	u, err := s.store.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Password != nil {
		if len(*p.Password) < minPasswordLen {
			return nil, domain.NewValidationError("password", fmt.Sprintf("ensure this field has at least %d characters", minPasswordLen))
		}
		h, err := utils.HashPassword(*p.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = h
	}
	if err := s.store.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetActive bans or reinstates an account.
func (s *UserService) SetActive(ctx context.Context, id uint, active bool) (*domain.User, error) {
	return s.setFlag(ctx, id, func(u *domain.User) { u.IsActive = active })
}

func (s *UserService) SetStaff(ctx context.Context, id uint, staff bool) (*domain.User, error) {
	return s.setFlag(ctx, id, func(u *domain.User) { u.IsStaff = staff })
}

func (s *UserService) setFlag(ctx context.Context, id uint, set func(*domain.User)) (*domain.User, error) {
	u, err := s.store.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	set(u)
	if err := s.store.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user flags changed",
		zap.Uint("id", u.ID),
		zap.Bool("active", u.IsActive),
		zap.Bool("staff", u.IsStaff),
	)
	return u, nil
}
