package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORSMiddleware は指定オリジンからのブラウザアクセスを許可するCORSミドルウェアを返す。
// 認証はAuthorizationヘッダーで行うため、Cookieの送信（credentials）は許可しない。
// プリフライト（OPTIONS）はrs/corsが204で応答する。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After", "WWW-Authenticate"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
	return c.Handler
}
