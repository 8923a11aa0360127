// Package middleware はHTTPミドルウェアとリクエスト判定ゲートを提供する。
package middleware

import (
	"context"
	"fmt"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userIDContextKey      = contextKey("user_id")
	tokenIDContextKey     = contextKey("token_id")
	userCaptureContextKey = contextKey("user_capture")
)

// userCapture は内側のミドルウェアで確定したユーザーIDを
// 外側のロギングミドルウェアへ受け渡す。
type userCapture struct {
	userID string
}

func contextWithUserCapture(ctx context.Context, c *userCapture) context.Context {
	return context.WithValue(ctx, userCaptureContextKey, c)
}

// UserIDFromContext はBearerゲートが注入したユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if c, ok := ctx.Value(userCaptureContextKey).(*userCapture); ok {
		c.userID = userID
	}
	return context.WithValue(ctx, userIDContextKey, userID)
}

// TokenIDFromContext はリクエストに使われたトークンのIDを取得する。
// トークン失効エンドポイントで使う。
func TokenIDFromContext(ctx context.Context) (string, error) {
	tokenID, ok := ctx.Value(tokenIDContextKey).(string)
	if !ok || tokenID == "" {
		return "", fmt.Errorf("token ID not found in context")
	}
	return tokenID, nil
}

// ContextWithTokenID はコンテキストにトークンIDを注入する。
func ContextWithTokenID(ctx context.Context, tokenID string) context.Context {
	return context.WithValue(ctx, tokenIDContextKey, tokenID)
}
