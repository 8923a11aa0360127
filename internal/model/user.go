// Package model はドメインモデルを定義する。
package model

import "time"

// DefaultImageFile はプロフィール画像未設定時の画像ファイル名。
const DefaultImageFile = "default.jpg"

// User はブログの利用ユーザーを表す。
// PasswordHash はbcryptハッシュで、APIレスポンスには含めない。
type User struct {
	ID           string
	Username     string
	Email        string
	ImageFile    string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenStatus はトークンの有効状態を表す。
type TokenStatus string

const (
	// TokenStatusActive は有効期限内で失効していない状態。
	TokenStatusActive TokenStatus = "active"
	// TokenStatusExpired は有効期限を過ぎた状態。
	TokenStatusExpired TokenStatus = "expired"
	// TokenStatusRevoked は明示的に失効された状態。
	TokenStatusRevoked TokenStatus = "revoked"
)

// Token はWeb APIアクセス用のBearerトークンを表す。
// 発行後にExpiresAtが延長されることはない。
type Token struct {
	ID        string
	Value     string
	UserID    string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Status は指定時刻におけるトークンの状態を返す。
// 失効済みの判定を有効期限より優先する。
func (t *Token) Status(now time.Time) TokenStatus {
	if t.RevokedAt != nil {
		return TokenStatusRevoked
	}
	if !now.Before(t.ExpiresAt) {
		return TokenStatusExpired
	}
	return TokenStatusActive
}
