package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/carlosnatalino/simple-flask-blog/internal/metrics"
	"github.com/carlosnatalino/simple-flask-blog/internal/middleware"
	"github.com/carlosnatalino/simple-flask-blog/internal/model"
)

// ExpireLayout はトークン発行レスポンスのexpireの書式（UTC）。
const ExpireLayout = "2006-01-02 15:04:05"

// maxTokenRequestBytes はトークン発行リクエストボディの上限。
const maxTokenRequestBytes = 4 << 10

// TokenServiceInterface はトークンハンドラーが必要とするサービスインターフェース。
type TokenServiceInterface interface {
	// IssueToken は認証情報を検証してトークンを発行する。
	IssueToken(ctx context.Context, email, password string) (*model.Token, error)
	// RevokeToken はトークンを失効させる。
	RevokeToken(ctx context.Context, tokenID string) error
}

// TokenHandler はトークンの発行・失効のHTTPハンドラー。
type TokenHandler struct {
	service   TokenServiceInterface
	collector metrics.MetricsCollector
}

// NewTokenHandler はTokenHandlerを生成する。collectorはnilでもよい。
func NewTokenHandler(service TokenServiceInterface, collector metrics.MetricsCollector) *TokenHandler {
	return &TokenHandler{
		service:   service,
		collector: collector,
	}
}

// tokenRequest はトークン発行リクエスト。フォームとJSONのどちらでも受け付ける。
type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req tokenRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required),
		validation.Field(&req.Password, validation.Required),
	)
}

// tokenResponse はトークン発行成功時のレスポンス。
type tokenResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Expire  string `json:"expire"`
}

// IssueToken は認証情報を検証してBearerトークンを発行する。
// POST /api/token/public
func (h *TokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTokenRequestBytes)

	req, err := parseTokenRequest(r)
	if err != nil {
		h.recordFailure("invalid_request")
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}
	if err := req.Validate(); err != nil {
		h.recordFailure("invalid_request")
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(err.Error()))
		return
	}

	token, err := h.service.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		h.recordFailure(issueFailureReason(err))
		handleServiceError(w, r, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordTokenIssued()
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:   token.Value,
		Message: "Login successful!",
		UserID:  token.UserID,
		Expire:  token.ExpiresAt.UTC().Format(ExpireLayout),
	})
}

// RevokeToken はリクエストに使われたトークンを失効させる。
// DELETE /api/token
func (h *TokenHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	tokenID, err := middleware.TokenIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.RevokeToken(r.Context(), tokenID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Token revoked"})
}

func (h *TokenHandler) recordFailure(reason string) {
	if h.collector != nil {
		h.collector.RecordTokenIssueFailure(reason)
	}
}

// parseTokenRequest はContent-Typeに応じてJSONまたはフォーム（マルチパートを含む）から認証情報を読み取る。
func parseTokenRequest(r *http.Request) (tokenRequest, error) {
	var req tokenRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxTokenRequestBytes); err != nil {
			return req, err
		}
	default:
		if err := r.ParseForm(); err != nil {
			return req, err
		}
	}
	req.Email = r.PostFormValue("email")
	req.Password = r.PostFormValue("password")
	return req, nil
}

// issueFailureReason はメトリクス用の失敗理由を返す。
func issueFailureReason(err error) string {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return "internal"
	}
	switch apiErr.Code {
	case model.ErrCodeInvalidCredentials:
		return "invalid_credentials"
	case model.ErrCodeInvalidRequest:
		return "invalid_request"
	default:
		return "internal"
	}
}
