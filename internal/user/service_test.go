package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
	createFn   func(ctx context.Context, user *model.User) error
	updateFn   func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

type stubHasher struct{}

func (stubHasher) Hash(plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

func strPtr(s string) *string { return &s }

func existingUser() *model.User {
	return &model.User{
		ID:        "user-1",
		Username:  "default",
		Email:     "default@test.com",
		ImageFile: model.DefaultImageFile,
	}
}

func assertAPIErrorCode(t *testing.T, err error, want string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != want {
		t.Errorf("code = %q, want %q", apiErr.Code, want)
	}
}

// --- Register ---

// TestService_Register はパスワードがハッシュ化されて保存されることを検証する。
func TestService_Register(t *testing.T) {
	var saved *model.User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			saved = user
			return nil
		},
	}
	svc := NewService(repo, stubHasher{})

	u, err := svc.Register(context.Background(), Registration{
		Username: "default",
		Email:    " default@test.com ",
		Password: "testing",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved == nil {
		t.Fatal("Create was not called")
	}
	if saved.PasswordHash != "hashed:testing" {
		t.Errorf("PasswordHash = %q", saved.PasswordHash)
	}
	if u.Email != "default@test.com" {
		t.Errorf("Email = %q, want trimmed", u.Email)
	}
	if u.ImageFile != model.DefaultImageFile {
		t.Errorf("ImageFile = %q, want %q", u.ImageFile, model.DefaultImageFile)
	}
	if u.ID == "" {
		t.Error("ID should be generated")
	}
}

func TestService_Register_InvalidEmail(t *testing.T) {
	svc := NewService(&mockUserRepo{}, stubHasher{})

	_, err := svc.Register(context.Background(), Registration{Username: "x1", Email: "not-an-email", Password: "pw"})
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
}

func TestService_Register_Duplicate(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			return model.ErrDuplicateUser
		},
	}
	svc := NewService(repo, stubHasher{})

	_, err := svc.Register(context.Background(), Registration{Username: "default", Email: "default@test.com", Password: "testing"})
	assertAPIErrorCode(t, err, model.ErrCodeUserConflict)
}

// --- GetMe ---

func TestService_GetMe_NotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, stubHasher{})

	_, err := svc.GetMe(context.Background(), "missing")
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

// --- UpdateMe ---

func TestService_UpdateMe_PartialUpdate(t *testing.T) {
	var updated *model.User
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return existingUser(), nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			updated = user
			return nil
		},
	}
	svc := NewService(repo, stubHasher{})

	u, err := svc.UpdateMe(context.Background(), "user-1", AccountUpdate{ImageFile: strPtr("me.png")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated == nil {
		t.Fatal("Update was not called")
	}
	if u.ImageFile != "me.png" {
		t.Errorf("ImageFile = %q, want me.png", u.ImageFile)
	}
	if u.Username != "default" || u.Email != "default@test.com" {
		t.Errorf("untouched fields changed: %+v", u)
	}
	if u.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
}

func TestAccountUpdate_Validate_RequiresAtLeastOneField(t *testing.T) {
	if err := (AccountUpdate{}).Validate(); !errors.Is(err, errEmptyUpdate) {
		t.Errorf("err = %v, want %v", err, errEmptyUpdate)
	}
	if err := (AccountUpdate{ImageFile: strPtr("pic.jpg")}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestService_UpdateMe_Validation(t *testing.T) {
	tests := []struct {
		name string
		upd  AccountUpdate
	}{
		{"no fields", AccountUpdate{}},
		{"empty username", AccountUpdate{Username: strPtr("")}},
		{"username too long", AccountUpdate{Username: strPtr(strings.Repeat("a", 21))}},
		{"invalid email", AccountUpdate{Email: strPtr("nope")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepo{
				findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
					return existingUser(), nil
				},
				updateFn: func(ctx context.Context, user *model.User) error {
					t.Fatal("Update should not be called")
					return nil
				},
			}
			svc := NewService(repo, stubHasher{})

			_, err := svc.UpdateMe(context.Background(), "user-1", tt.upd)
			assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
		})
	}
}

func TestService_UpdateMe_Conflict(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return existingUser(), nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			return model.ErrDuplicateUser
		},
	}
	svc := NewService(repo, stubHasher{})

	_, err := svc.UpdateMe(context.Background(), "user-1", AccountUpdate{Email: strPtr("second@test.com")})
	assertAPIErrorCode(t, err, model.ErrCodeUserConflict)
}

func TestService_UpdateMe_StoreError(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewService(repo, stubHasher{})

	_, err := svc.UpdateMe(context.Background(), "user-1", AccountUpdate{Username: strPtr("renamed")})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("store error should not be an APIError: %v", apiErr)
	}
}
