// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// 呼び出し側に表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, post, user, system
	Action   string // 利用者向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeAddressForbidden   = "ADDRESS_FORBIDDEN"
	ErrCodeNotPostOwner       = "NOT_POST_OWNER"
	ErrCodePostNotFound       = "POST_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeRouteNotFound      = "ROUTE_NOT_FOUND"
	ErrCodeUserConflict       = "USER_CONFLICT"
	ErrCodeInvalidFilter      = "INVALID_FILTER"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// リポジトリ層が返す番兵エラー。
var (
	// ErrDuplicateToken はトークン文字列の一意制約違反を表す。
	ErrDuplicateToken = errors.New("duplicate token value")
	// ErrDuplicateUser はusernameまたはemailの一意制約違反を表す。
	ErrDuplicateUser = errors.New("duplicate username or email")
)

// NewInvalidRequestError はリクエスト形式・必須項目の不備を表すエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "必須項目を含む正しい形式でリクエストしてください。",
	}
}

// NewInvalidCredentialsError は認証情報の不一致エラーを生成する。
// メールアドレスの存在有無は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Login Unsuccessful. Please check email and password.",
		Category: "auth",
		Action:   "メールアドレスとパスワードを確認してください。",
	}
}

// NewUnauthorizedError はトークン検証失敗エラーを生成する。
// 欠落・不正・期限切れ・失効のいずれも同じエラーで表す。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "有効なBearerトークンを付与し、JSON形式でリクエストしてください。",
	}
}

// NewAddressForbiddenError は許可されていない送信元アドレスのエラーを生成する。
func NewAddressForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeAddressForbidden,
		Message:  "このアドレスからのアクセスは許可されていません。",
		Category: "auth",
		Action:   "許可されたネットワークからアクセスしてください。",
	}
}

// NewNotPostOwnerError は投稿の所有者以外による変更のエラーを生成する。
func NewNotPostOwnerError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodeNotPostOwner,
		Message:  fmt.Sprintf("この投稿を変更する権限がありません: %s", postID),
		Category: "auth",
		Action:   "投稿の作成者のトークンでリクエストしてください。",
	}
}

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "post",
		Action:   "投稿IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "user",
		Action:   "トークンを再発行してください。",
	}
}

// NewRouteNotFoundError は/api配下の未定義ルートへのリクエストに対するエラーを生成する。
func NewRouteNotFoundError(method, path string) *APIError {
	return &APIError{
		Code:     ErrCodeRouteNotFound,
		Message:  fmt.Sprintf("エンドポイントが見つかりません: %s %s", method, path),
		Category: "system",
		Action:   "GET /api/ で利用可能なエンドポイントを確認してください。",
	}
}

// NewUserConflictError はusernameまたはemailの重複エラーを生成する。
func NewUserConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeUserConflict,
		Message:  "ユーザー名またはメールアドレスは既に使用されています。",
		Category: "user",
		Action:   "別のユーザー名またはメールアドレスを指定してください。",
	}
}

// NewInvalidFilterError は一覧の絞り込み条件が不正な場合のエラーを生成する。
func NewInvalidFilterError(param string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFilter,
		Message:  fmt.Sprintf("無効な絞り込み条件です: %s", param),
		Category: "validation",
		Action:   "日付は YYYY-MM-DD またはRFC3339形式で指定してください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Retry-Afterヘッダーの秒数だけ待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーの汎用レスポンス用エラーを生成する。
// 詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
