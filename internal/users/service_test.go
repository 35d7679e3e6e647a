package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/config"
	"github.com/lankapos/pos-backend/pkg/db/models"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/security"
)

type stubUserStore struct {
	byID      map[uuid.UUID]*models.User
	createErr error
	created   []*models.User
	updated   []*models.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{byID: make(map[uuid.UUID]*models.User)}
}

func (s *stubUserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.created = append(s.created, user)
	s.byID[user.ID] = user
	return user, nil
}

func (s *stubUserStore) Update(ctx context.Context, user *models.User) (*models.User, error) {
	s.updated = append(s.updated, user)
	s.byID[user.ID] = user
	return user, nil
}

func (s *stubUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range s.byID {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserStore) List(ctx context.Context) ([]models.User, error) {
	rows := make([]models.User, 0, len(s.byID))
	for _, user := range s.byID {
		rows = append(rows, *user)
	}
	return rows, nil
}

func (s *stubUserStore) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func newTestService(t *testing.T, store *stubUserStore) Service {
	t.Helper()
	svc, err := NewService(store, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateHashesPasswordAndNormalizesUsername(t *testing.T) {
	t.Parallel()

	store := newStubUserStore()
	svc := newTestService(t, store)

	created, err := svc.Create(context.Background(), CreateInput{
		Username: "  Nimal ",
		FullName: "Nimal Perera",
		Password: "correct horse",
		Role:     RoleCashier,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.Username != "nimal" {
		t.Fatalf("expected lowercased username, got %q", created.Username)
	}
	if created.PasswordHash == "correct horse" || created.PasswordHash == "" {
		t.Fatal("password was not hashed")
	}
	valid, err := security.VerifyPassword("correct horse", created.PasswordHash)
	if err != nil || !valid {
		t.Fatalf("stored hash does not verify: valid=%v err=%v", valid, err)
	}
	if !created.IsActive {
		t.Fatal("new accounts should start active")
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubUserStore())

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"blank username", CreateInput{FullName: "X", Password: "longenough", Role: RoleCashier}},
		{"blank full name", CreateInput{Username: "x", Password: "longenough", Role: RoleCashier}},
		{"short password", CreateInput{Username: "x", FullName: "X", Password: "short", Role: RoleCashier}},
		{"bad role", CreateInput{Username: "x", FullName: "X", Password: "longenough", Role: "owner"}},
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), tc.input)
		if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestCreateDuplicateUsernameConflicts(t *testing.T) {
	t.Parallel()

	store := newStubUserStore()
	store.createErr = errors.New(`duplicate key value violates unique constraint "idx_users_username"`)
	svc := newTestService(t, store)

	_, err := svc.Create(context.Background(), CreateInput{
		Username: "nimal",
		FullName: "Nimal Perera",
		Password: "correct horse",
		Role:     RoleCashier,
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSetActiveTogglesAccount(t *testing.T) {
	t.Parallel()

	store := newStubUserStore()
	svc := newTestService(t, store)

	created, err := svc.Create(context.Background(), CreateInput{
		Username: "kasun",
		FullName: "Kasun Silva",
		Password: "correct horse",
		Role:     RoleManager,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.SetActive(context.Background(), created.ID, false)
	if err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if updated.IsActive {
		t.Fatal("expected account to be deactivated")
	}
}

func TestChangePasswordRejectsShortAndUnknown(t *testing.T) {
	t.Parallel()

	store := newStubUserStore()
	svc := newTestService(t, store)

	if err := svc.ChangePassword(context.Background(), uuid.New(), "short"); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), uuid.New(), "longenough"); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
