// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
	"github.com/carlosnatalino/simple-flask-blog/internal/repository"
)

// PasswordHasher はパスワードのハッシュ化インターフェース。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// usersテーブルの列長
const (
	maxUsernameLength  = 20
	maxEmailLength     = 120
	maxImageFileLength = 20
)

var errEmptyUpdate = errors.New("username, email, image_file のいずれかを指定してください")

// Registration はユーザー登録の入力。
type Registration struct {
	Username string
	Email    string
	Password string
}

// Validate は登録内容を検証する。
func (r Registration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(2, maxUsernameLength)),
		validation.Field(&r.Email, validation.Required, validation.Length(1, maxEmailLength), is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// AccountUpdate はアカウント情報の部分更新入力。nilの項目は変更しない。
type AccountUpdate struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	ImageFile *string `json:"image_file"`
}

// Validate は更新内容を検証する。
func (u AccountUpdate) Validate() error {
	if u.Username == nil && u.Email == nil && u.ImageFile == nil {
		return errEmptyUpdate
	}
	return validation.ValidateStruct(&u,
		validation.Field(&u.Username, validation.NilOrNotEmpty, validation.Length(2, maxUsernameLength)),
		validation.Field(&u.Email, validation.NilOrNotEmpty, validation.Length(1, maxEmailLength), is.Email),
		validation.Field(&u.ImageFile, validation.NilOrNotEmpty, validation.Length(1, maxImageFileLength)),
	)
}

// Service はユーザー管理のサービス層。
// 登録（シード用）、アカウント情報の取得・更新を提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, hasher PasswordHasher) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		now:      time.Now,
	}
}

// Register はユーザーを登録する。
// パスワードはbcryptでハッシュ化して保存し、平文は保持しない。
func (s *Service) Register(ctx context.Context, reg Registration) (*model.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	if err := reg.Validate(); err != nil {
		return nil, model.NewInvalidRequestError(err.Error())
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := s.now().UTC()
	u := &model.User{
		ID:           uuid.New().String(),
		Username:     reg.Username,
		Email:        reg.Email,
		ImageFile:    model.DefaultImageFile,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, model.ErrDuplicateUser) {
			return nil, model.NewUserConflictError()
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("ユーザーを登録しました",
		slog.String("user_id", u.ID),
	)
	return u, nil
}

// GetMe はトークンのユーザーのアカウント情報を返す。
func (s *Service) GetMe(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}

// UpdateMe はアカウント情報を部分更新する。
// usernameまたはemailが他のユーザーと重複する場合はUSER_CONFLICTを返す。
func (s *Service) UpdateMe(ctx context.Context, userID string, upd AccountUpdate) (*model.User, error) {
	u, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := upd.Validate(); err != nil {
		return nil, model.NewInvalidRequestError(err.Error())
	}

	if upd.Email != nil {
		trimmed := strings.TrimSpace(*upd.Email)
		upd.Email = &trimmed
	}
	model.UserPatch{Username: upd.Username, Email: upd.Email, ImageFile: upd.ImageFile}.Apply(u)
	u.UpdatedAt = s.now().UTC()

	if err := s.userRepo.Update(ctx, u); err != nil {
		if errors.Is(err, model.ErrDuplicateUser) {
			return nil, model.NewUserConflictError()
		}
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	return u, nil
}
