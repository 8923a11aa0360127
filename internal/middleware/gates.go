package middleware

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/carlosnatalino/simple-flask-blog/internal/auth"
	"github.com/carlosnatalino/simple-flask-blog/internal/model"
)

// ゲート名。ログとメトリクスのラベルに使う。
const (
	GatePerimeter = "perimeter"
	GateJSON      = "json"
	GateBearer    = "bearer"
)

// --- 送信元アドレス ---

// AddressMatcher は送信元アドレスの許可判定インターフェース。
// security.NetworkAllowListが実装する。
type AddressMatcher interface {
	AllowsAddr(remoteAddr string) bool
}

// PerimeterGate は送信元アドレスが許可ネットワーク内かを判定する。
// トークンの有無に関係なくすべてのリクエストに適用する。
type PerimeterGate struct {
	matcher AddressMatcher
}

// NewPerimeterGate はPerimeterGateを生成する。
func NewPerimeterGate(matcher AddressMatcher) *PerimeterGate {
	return &PerimeterGate{matcher: matcher}
}

func (g *PerimeterGate) Name() string { return GatePerimeter }

// Evaluate はRemoteAddrのみで判定する。X-Forwarded-Forは信用しない。
func (g *PerimeterGate) Evaluate(r *http.Request) Decision {
	if !g.matcher.AllowsAddr(r.RemoteAddr) {
		return Deny(http.StatusForbidden, model.NewAddressForbiddenError(), "address_not_allowed")
	}
	return Allow()
}

// --- JSON ---

const jsonMediaType = "application/json"

// JSONGate はリクエストがJSONを宣言しているかを判定する。
// Content-TypeまたはAcceptのいずれかが application/json であれば通過する。
type JSONGate struct{}

// NewJSONGate はJSONGateを生成する。
func NewJSONGate() *JSONGate {
	return &JSONGate{}
}

func (g *JSONGate) Name() string { return GateJSON }

func (g *JSONGate) Evaluate(r *http.Request) Decision {
	if isJSONMediaType(r.Header.Get("Content-Type")) {
		return Allow()
	}
	for _, accept := range r.Header.Values("Accept") {
		for _, part := range strings.Split(accept, ",") {
			if isJSONMediaType(part) {
				return Allow()
			}
		}
	}
	return Deny(http.StatusUnauthorized, model.NewUnauthorizedError(), "not_json")
}

func isJSONMediaType(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		return false
	}
	return mediaType == jsonMediaType
}

// --- Bearerトークン ---

// TokenValidator はトークン文字列の検証インターフェース。
// auth.Serviceが実装する。
type TokenValidator interface {
	ValidateToken(ctx context.Context, value string) (*model.Token, error)
}

// BearerTokenGate はAuthorizationヘッダーのBearerトークンを検証し、
// 有効な場合にユーザーIDとトークンIDをコンテキストに注入する。
// 欠落・不正・未登録・期限切れ・失効はすべて同じ401を返す。
type BearerTokenGate struct {
	validator TokenValidator
}

// NewBearerTokenGate はBearerTokenGateを生成する。
func NewBearerTokenGate(validator TokenValidator) *BearerTokenGate {
	return &BearerTokenGate{validator: validator}
}

func (g *BearerTokenGate) Name() string { return GateBearer }

func (g *BearerTokenGate) Evaluate(r *http.Request) Decision {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Deny(http.StatusUnauthorized, model.NewUnauthorizedError(), "missing_header")
	}

	value, ok := parseBearer(header)
	if !ok {
		return Deny(http.StatusUnauthorized, model.NewUnauthorizedError(), "malformed_header")
	}

	token, err := g.validator.ValidateToken(r.Context(), value)
	if err != nil {
		if auth.IsRejection(err) {
			return Deny(http.StatusUnauthorized, model.NewUnauthorizedError(), rejectionReason(err))
		}
		slog.Error("failed to validate token",
			slog.String("error", err.Error()),
		)
		return Deny(http.StatusInternalServerError, model.NewInternalError(), "store_error")
	}

	ctx := ContextWithUserID(r.Context(), token.UserID)
	ctx = ContextWithTokenID(ctx, token.ID)
	return AllowWithContext(ctx)
}

// parseBearer は "Bearer <token>" からトークン文字列を取り出す。
// スキーム名は大文字小文字を区別しない。
func parseBearer(header string) (string, bool) {
	scheme, value, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, auth.ErrTokenNotFound):
		return "not_found"
	default:
		return "malformed"
	}
}

// compile-time interface check
var (
	_ Gate = (*PerimeterGate)(nil)
	_ Gate = (*JSONGate)(nil)
	_ Gate = (*BearerTokenGate)(nil)
)
