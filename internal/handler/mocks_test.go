package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carlosnatalino/simple-flask-blog/internal/middleware"
	"github.com/carlosnatalino/simple-flask-blog/internal/model"
	"github.com/carlosnatalino/simple-flask-blog/internal/post"
	"github.com/carlosnatalino/simple-flask-blog/internal/user"
)

// --- モック定義 ---

type mockTokenService struct {
	issueTokenFn  func(ctx context.Context, email, password string) (*model.Token, error)
	revokeTokenFn func(ctx context.Context, tokenID string) error
}

func (m *mockTokenService) IssueToken(ctx context.Context, email, password string) (*model.Token, error) {
	return m.issueTokenFn(ctx, email, password)
}

func (m *mockTokenService) RevokeToken(ctx context.Context, tokenID string) error {
	return m.revokeTokenFn(ctx, tokenID)
}

type mockPostService struct {
	listFn          func(ctx context.Context, filter model.PostFilter) ([]*model.Post, error)
	getFn           func(ctx context.Context, id string) (*model.Post, error)
	createFn        func(ctx context.Context, userID string, in post.Input) (*model.Post, error)
	replaceFn       func(ctx context.Context, userID, id string, in post.Input) (*model.Post, error)
	patchFn         func(ctx context.Context, userID, id string, in post.Input) (*model.Post, error)
	deleteFn        func(ctx context.Context, userID, id string) error
	listCommentsFn  func(ctx context.Context, postID string) ([]*model.Comment, error)
	createCommentFn func(ctx context.Context, userID, postID string, in post.CommentInput) (*model.Comment, error)
}

func (m *mockPostService) List(ctx context.Context, filter model.PostFilter) ([]*model.Post, error) {
	return m.listFn(ctx, filter)
}

func (m *mockPostService) Get(ctx context.Context, id string) (*model.Post, error) {
	return m.getFn(ctx, id)
}

func (m *mockPostService) Create(ctx context.Context, userID string, in post.Input) (*model.Post, error) {
	return m.createFn(ctx, userID, in)
}

func (m *mockPostService) Replace(ctx context.Context, userID, id string, in post.Input) (*model.Post, error) {
	return m.replaceFn(ctx, userID, id, in)
}

func (m *mockPostService) Patch(ctx context.Context, userID, id string, in post.Input) (*model.Post, error) {
	return m.patchFn(ctx, userID, id, in)
}

func (m *mockPostService) Delete(ctx context.Context, userID, id string) error {
	return m.deleteFn(ctx, userID, id)
}

func (m *mockPostService) ListComments(ctx context.Context, postID string) ([]*model.Comment, error) {
	return m.listCommentsFn(ctx, postID)
}

func (m *mockPostService) CreateComment(ctx context.Context, userID, postID string, in post.CommentInput) (*model.Comment, error) {
	return m.createCommentFn(ctx, userID, postID, in)
}

type mockUserService struct {
	getMeFn    func(ctx context.Context, userID string) (*model.User, error)
	updateMeFn func(ctx context.Context, userID string, upd user.AccountUpdate) (*model.User, error)
}

func (m *mockUserService) GetMe(ctx context.Context, userID string) (*model.User, error) {
	return m.getMeFn(ctx, userID)
}

func (m *mockUserService) UpdateMe(ctx context.Context, userID string, upd user.AccountUpdate) (*model.User, error) {
	return m.updateMeFn(ctx, userID, upd)
}

type mockCollector struct {
	issued   int
	failures []string
	denials  []string
}

func (m *mockCollector) RecordTokenIssued()                    { m.issued++ }
func (m *mockCollector) RecordTokenIssueFailure(reason string) { m.failures = append(m.failures, reason) }
func (m *mockCollector) RecordGateDenial(gate, reason string) {
	m.denials = append(m.denials, gate+"/"+reason)
}
func (m *mockCollector) RecordHTTPStatus(statusCode int)              {}
func (m *mockCollector) RecordRequestDuration(duration time.Duration) {}
func (m *mockCollector) RecordTokensPurged(count int64)               {}

// --- ヘルパー ---

const testPostID = "0f8c9f7e-5d7a-4c43-9b1e-6a2d1c3b4e5f"

func samplePost() *model.Post {
	return &model.Post{
		ID:          testPostID,
		Title:       "First post",
		Content:     "Hello",
		ContentType: model.ContentTypePlain,
		DatePosted:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UserID:      "user-1",
		Author: &model.Author{
			ID:        "user-1",
			Username:  "default",
			Email:     "default@test.com",
			ImageFile: model.DefaultImageFile,
		},
	}
}

// withUser はBearerゲート通過後と同じコンテキストを持つリクエストを返す。
func withUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}
