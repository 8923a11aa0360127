package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/carlosnatalino/simple-flask-blog/internal/middleware"
	"github.com/carlosnatalino/simple-flask-blog/internal/model"
)

func issuedToken() *model.Token {
	return &model.Token{
		ID:        "tok-1",
		Value:     strings.Repeat("ab", 32),
		UserID:    "user-1",
		ExpiresAt: time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC),
	}
}

// TestTokenHandler_IssueToken_Form はフォームで送られた認証情報でトークンを発行できることを検証する。
func TestTokenHandler_IssueToken_Form(t *testing.T) {
	collector := &mockCollector{}
	svc := &mockTokenService{
		issueTokenFn: func(ctx context.Context, email, password string) (*model.Token, error) {
			if email != "default@test.com" || password != "testing" {
				t.Errorf("credentials = (%q, %q)", email, password)
			}
			return issuedToken(), nil
		},
	}
	h := NewTokenHandler(svc, collector)

	form := url.Values{"email": {"default@test.com"}, "password": {"testing"}}
	req := httptest.NewRequest(http.MethodPost, "/api/token/public", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	h.IssueToken(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body tokenResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Token != issuedToken().Value {
		t.Errorf("token = %q", body.Token)
	}
	if body.Expire != "2026-05-01 10:30:00" {
		t.Errorf("expire = %q, want %q", body.Expire, "2026-05-01 10:30:00")
	}
	if body.Message != "Login successful!" || body.UserID != "user-1" {
		t.Errorf("body = %+v", body)
	}
	if collector.issued != 1 {
		t.Errorf("issued metric = %d, want 1", collector.issued)
	}
}

func TestTokenHandler_IssueToken_JSON(t *testing.T) {
	svc := &mockTokenService{
		issueTokenFn: func(ctx context.Context, email, password string) (*model.Token, error) {
			return issuedToken(), nil
		},
	}
	h := NewTokenHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/token/public",
		strings.NewReader(`{"email":"default@test.com","password":"testing"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w := httptest.NewRecorder()

	h.IssueToken(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// 必須項目の欠落はサービスを呼ばずに400を返す
func TestTokenHandler_IssueToken_MultipartForm(t *testing.T) {
	svc := &mockTokenService{
		issueTokenFn: func(ctx context.Context, email, password string) (*model.Token, error) {
			if email != "default@test.com" || password != "testing" {
				t.Errorf("credentials = (%q, %q)", email, password)
			}
			return issuedToken(), nil
		},
	}
	h := NewTokenHandler(svc, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("email", "default@test.com"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := mw.WriteField("password", "testing"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/token/public", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	h.IssueToken(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestTokenHandler_IssueToken_MissingField(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"form without password", "application/x-www-form-urlencoded", "email=default%40test.com"},
		{"json without email", "application/json", `{"password":"testing"}`},
		{"broken json", "application/json", `{"email":`},
		{"empty body", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := &mockCollector{}
			svc := &mockTokenService{
				issueTokenFn: func(ctx context.Context, email, password string) (*model.Token, error) {
					t.Fatal("service should not be called")
					return nil, nil
				},
			}
			h := NewTokenHandler(svc, collector)

			req := httptest.NewRequest(http.MethodPost, "/api/token/public", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()

			h.IssueToken(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if body := decodeAPIError(t, w); body.Code != model.ErrCodeInvalidRequest {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidRequest)
			}
			if len(collector.failures) != 1 || collector.failures[0] != "invalid_request" {
				t.Errorf("failures = %v", collector.failures)
			}
		})
	}
}

func TestTokenHandler_IssueToken_InvalidCredentials(t *testing.T) {
	collector := &mockCollector{}
	svc := &mockTokenService{
		issueTokenFn: func(ctx context.Context, email, password string) (*model.Token, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewTokenHandler(svc, collector)

	form := url.Values{"email": {"nobody@test.com"}, "password": {"x"}}
	req := httptest.NewRequest(http.MethodPost, "/api/token/public", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	h.IssueToken(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	body := decodeAPIError(t, w)
	if body.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidCredentials)
	}
	if len(collector.failures) != 1 || collector.failures[0] != "invalid_credentials" {
		t.Errorf("failures = %v", collector.failures)
	}
}

// ストア障害は詳細を含まない500になる
func TestTokenHandler_IssueToken_StoreFailure(t *testing.T) {
	svc := &mockTokenService{
		issueTokenFn: func(ctx context.Context, email, password string) (*model.Token, error) {
			return nil, errors.New("pq: connection refused")
		},
	}
	h := NewTokenHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/token/public",
		strings.NewReader(`{"email":"default@test.com","password":"testing"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.IssueToken(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "pq:") {
		t.Errorf("response leaks internal error: %s", w.Body.String())
	}
}

func TestTokenHandler_RevokeToken(t *testing.T) {
	var revoked string
	svc := &mockTokenService{
		revokeTokenFn: func(ctx context.Context, tokenID string) error {
			revoked = tokenID
			return nil
		},
	}
	h := NewTokenHandler(svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/token", nil)
	req = req.WithContext(middleware.ContextWithTokenID(req.Context(), "tok-9"))
	w := httptest.NewRecorder()

	h.RevokeToken(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if revoked != "tok-9" {
		t.Errorf("revoked = %q, want tok-9", revoked)
	}
}

func TestTokenHandler_RevokeToken_NoTokenInContext(t *testing.T) {
	h := NewTokenHandler(&mockTokenService{}, nil)

	w := httptest.NewRecorder()
	h.RevokeToken(w, httptest.NewRequest(http.MethodDelete, "/api/token", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
