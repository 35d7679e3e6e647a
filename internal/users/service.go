package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/config"
	dbpkg "github.com/lankapos/pos-backend/pkg/db"
	"github.com/lankapos/pos-backend/pkg/db/models"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/security"
)

// Roles a POS account can carry.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
)

func validRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleCashier:
		return true
	}
	return false
}

type userStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Service manages cashier and admin accounts.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error
}

type service struct {
	repo   userStore
	pwdCfg config.PasswordConfig
}

// NewService builds a user service.
func NewService(repo userStore, pwdCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo, pwdCfg: pwdCfg}, nil
}

// CreateInput is a new account request.
type CreateInput struct {
	Username string
	FullName string
	Password string
	Role     string
}

func (i CreateInput) validate() error {
	if strings.TrimSpace(i.Username) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if strings.TrimSpace(i.FullName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if len(i.Password) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	if !validRole(i.Role) {
		return pkgerrors.New(pkgerrors.CodeValidation, "role must be admin, manager or cashier")
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.User, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.pwdCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "hashing password")
	}

	user := &models.User{
		Username:     strings.ToLower(strings.TrimSpace(input.Username)),
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: hash,
		Role:         input.Role,
		IsActive:     true,
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "creating user")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading user")
	}
	return user, nil
}

func (s *service) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "listing users")
	}
	return rows, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "updating user")
	}
	return updated, nil
}

func (s *service) ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	if len(newPassword) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	hash, err := security.HashPassword(newPassword, s.pwdCfg)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "hashing password")
	}
	user.PasswordHash = hash
	if _, err := s.repo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "updating password")
	}
	return nil
}
