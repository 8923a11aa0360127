// Package auth はWeb API用Bearerトークンの発行・検証・失効を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
	"github.com/carlosnatalino/simple-flask-blog/internal/repository"
	"github.com/google/uuid"
)

// tokenBytes はトークン文字列の元になる乱数のバイト数。
const tokenBytes = 32

// defaultMaxIssueAttempts はトークン文字列が衝突した場合の最大試行回数。
const defaultMaxIssueAttempts = 3

// トークン検証の拒否理由。呼び出し側には区別せず返し、ログとメトリクスでのみ使う。
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenNotFound  = errors.New("token not found")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenRevoked   = errors.New("token revoked")
)

// ServiceConfig はトークンサービスの設定。
type ServiceConfig struct {
	TokenTTL         time.Duration // 発行から失効までの期間
	MaxIssueAttempts int           // 0の場合はdefaultMaxIssueAttempts
}

// Option はServiceの生成オプション。
type Option func(*Service)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithTokenGenerator はトークン文字列の生成関数を差し替える。
func WithTokenGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		s.generate = gen
	}
}

// Service はトークン発行（Token Issuer）と検証（Token Validator）の
// ビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	verifier  PasswordVerifier
	config    ServiceConfig
	now       func() time.Time
	generate  func() (string, error)
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	verifier PasswordVerifier,
	config ServiceConfig,
	opts ...Option,
) *Service {
	if config.MaxIssueAttempts <= 0 {
		config.MaxIssueAttempts = defaultMaxIssueAttempts
	}
	s := &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		verifier:  verifier,
		config:    config,
		now:       time.Now,
		generate:  generateTokenValue,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueToken は認証情報を検証し、成功した場合にユーザーに紐づくトークンを発行する。
// 未登録のメールアドレスとパスワード不一致は同じエラーを返し、トークンは保存しない。
// トークン文字列が既存と衝突した場合は新しい値で再試行する。
func (s *Service) IssueToken(ctx context.Context, email, password string) (*model.Token, error) {
	if email == "" || password == "" {
		return nil, model.NewInvalidRequestError("email と password は必須です")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.verifier.Verify(dummyHash, password)
		return nil, model.NewInvalidCredentialsError()
	}
	if !s.verifier.Verify(user.PasswordHash, password) {
		return nil, model.NewInvalidCredentialsError()
	}

	for attempt := 1; attempt <= s.config.MaxIssueAttempts; attempt++ {
		value, err := s.generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}

		now := s.now().UTC()
		token := &model.Token{
			ID:        uuid.New().String(),
			Value:     value,
			UserID:    user.ID,
			ExpiresAt: now.Add(s.config.TokenTTL),
			CreatedAt: now,
		}

		err = s.tokenRepo.Create(ctx, token)
		if errors.Is(err, model.ErrDuplicateToken) {
			slog.Warn("token value collision, retrying",
				slog.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save token: %w", err)
		}

		slog.Info("token issued",
			slog.String("user_id", user.ID),
			slog.String("token_id", token.ID),
			slog.Time("expires_at", token.ExpiresAt),
		)
		return token, nil
	}

	return nil, fmt.Errorf("failed to issue unique token after %d attempts", s.config.MaxIssueAttempts)
}

// ValidateToken はトークン文字列を検証し、有効な場合にトークンを返す。
// 拒否理由はErrTokenMalformed、ErrTokenNotFound、ErrTokenExpired、ErrTokenRevokedのいずれか。
// ストアの障害はそれ以外のエラーとして返す。
func (s *Service) ValidateToken(ctx context.Context, value string) (*model.Token, error) {
	if !isWellFormed(value) {
		return nil, ErrTokenMalformed
	}

	token, err := s.tokenRepo.FindByValue(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	if token == nil {
		return nil, ErrTokenNotFound
	}

	switch token.Status(s.now()) {
	case model.TokenStatusExpired:
		return nil, ErrTokenExpired
	case model.TokenStatusRevoked:
		return nil, ErrTokenRevoked
	}

	return token, nil
}

// RevokeToken はトークンを失効させる。有効期限は変更しない。
func (s *Service) RevokeToken(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return fmt.Errorf("token ID is required")
	}
	if err := s.tokenRepo.Revoke(ctx, tokenID, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	slog.Info("token revoked", slog.String("token_id", tokenID))
	return nil
}

// IsRejection はerrがトークン検証の拒否理由かどうかを返す。
// falseの場合はストア障害などの内部エラー。
func IsRejection(err error) bool {
	return errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenRevoked)
}

// isWellFormed はトークン文字列が発行形式（16進数64文字）かを判定する。
func isWellFormed(value string) bool {
	if len(value) != hex.EncodedLen(tokenBytes) {
		return false
	}
	_, err := hex.DecodeString(value)
	return err == nil
}

// generateTokenValue は暗号的に安全なトークン文字列を生成する。
func generateTokenValue() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
