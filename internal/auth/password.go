package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword は空のパスワードをハッシュ化しようとした場合のエラー。
var ErrEmptyPassword = errors.New("password must not be empty")

// dummyHash はメールアドレス未登録時にも照合コストを払うためのbcryptハッシュ。
// 登録有無を応答時間から推測されにくくする。
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// PasswordVerifier はパスワードハッシュの照合インターフェース。
type PasswordVerifier interface {
	// Verify はplaintextがhashと一致する場合にtrueを返す。
	Verify(hash, plaintext string) bool
}

// BcryptHasher はbcryptによるパスワードのハッシュ化と照合を行う。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher はBcryptHasherを生成する。
// costが範囲外の場合はbcrypt.DefaultCostを使用する。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash はパスワードのbcryptハッシュを生成する。
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// Verify はパスワードとハッシュを照合する。
// ハッシュ形式の不正も不一致として扱う。
func (h *BcryptHasher) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// compile-time interface check
var _ PasswordVerifier = (*BcryptHasher)(nil)
