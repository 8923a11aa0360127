package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
	"github.com/carlosnatalino/simple-flask-blog/internal/post"
)

// 一覧の件数指定の上限
const maxListLimit = 100

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	List(ctx context.Context, filter model.PostFilter) ([]*model.Post, error)
	Get(ctx context.Context, id string) (*model.Post, error)
	Create(ctx context.Context, userID string, in post.Input) (*model.Post, error)
	// Replace は3項目すべてを置き換える。存在確認、所有者確認、入力検証の順に判定する。
	Replace(ctx context.Context, userID, id string, in post.Input) (*model.Post, error)
	// Patch は指定された項目だけを上書きする。判定順序はReplaceと同じ。
	Patch(ctx context.Context, userID, id string, in post.Input) (*model.Post, error)
	Delete(ctx context.Context, userID, id string) error
	ListComments(ctx context.Context, postID string) ([]*model.Comment, error)
	CreateComment(ctx context.Context, userID, postID string, in post.CommentInput) (*model.Comment, error)
}

// PostHandler は投稿とコメントのHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{
		service: service,
	}
}

// authorResponse は投稿・コメントに埋め込む作成者情報。
type authorResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	ImageFile string `json:"image_file"`
}

// postResponse は投稿のAPIレスポンス。
type postResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	DatePosted  time.Time       `json:"date_posted"`
	Content     string          `json:"content"`
	ContentType string          `json:"content_type"`
	UserID      string          `json:"user_id"`
	Author      *authorResponse `json:"author,omitempty"`
}

// commentResponse はコメントのAPIレスポンス。
type commentResponse struct {
	ID         string          `json:"id"`
	Content    string          `json:"content"`
	DatePosted time.Time       `json:"date_posted"`
	UserID     string          `json:"user_id"`
	PostID     string          `json:"post_id"`
	Author     *authorResponse `json:"author,omitempty"`
}

// ListPosts は投稿一覧を新しい順に返す。
// GET /api/posts?keyword=&from=&to=&user_id=&limit=
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	filter, apiErr := parsePostFilter(r.URL.Query())
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	posts, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]postResponse, len(posts))
	for i, p := range posts {
		resp[i] = toPostResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreatePost は投稿を作成する。作成者はトークンのユーザー。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in post.Input
	if !decodeJSONBody(w, r, &in) {
		return
	}

	p, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(p))
}

// GetPost は投稿を1件返す。
// GET /api/post/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(p))
}

// ReplacePost は投稿を全置換する。
// PUT /api/post/{id}
func (h *PostHandler) ReplacePost(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Replace)
}

// PatchPost は投稿を部分更新する。
// PATCH /api/post/{id}
func (h *PostHandler) PatchPost(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Patch)
}

// mutate はPUTとPATCHの共通処理。
// ボディの解析エラーもサービス側の判定順序（404→403→400）に従わせるため、
// 解析に失敗した場合は空の入力としてサービスに渡す。
func (h *PostHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, id string, in post.Input) (*model.Post, error)) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in post.Input
	if err := decodeOptionalJSON(w, r, &in); err != nil {
		in = post.Input{}
	}

	p, err := fn(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(p))
}

// DeletePost は投稿とそのコメントを削除する。
// DELETE /api/post/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Post %s deleted", id)})
}

// ListComments は投稿のコメント一覧を返す。
// GET /api/post/{id}/comments
func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]commentResponse, len(comments))
	for i, c := range comments {
		resp[i] = toCommentResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateComment は投稿にコメントを追加する。
// POST /api/post/{id}/comments
func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in post.CommentInput
	if err := decodeOptionalJSON(w, r, &in); err != nil {
		in = post.CommentInput{}
	}

	c, err := h.service.CreateComment(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(c))
}

// --- ヘルパー関数 ---

// parsePostFilter はクエリパラメータを一覧の絞り込み条件に変換する。
// 日付は YYYY-MM-DD またはRFC3339で指定する。日付のみのtoはその日を含む。
func parsePostFilter(q url.Values) (model.PostFilter, *model.APIError) {
	filter := model.PostFilter{
		Keyword: strings.TrimSpace(q.Get("keyword")),
	}

	if v := q.Get("from"); v != "" {
		t, _, err := parseFilterTime(v)
		if err != nil {
			return filter, model.NewInvalidFilterError("from")
		}
		filter.From = t
	}
	if v := q.Get("to"); v != "" {
		t, dateOnly, err := parseFilterTime(v)
		if err != nil {
			return filter, model.NewInvalidFilterError("to")
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		filter.To = t
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return filter, model.NewInvalidFilterError("from/to")
	}

	if v := q.Get("user_id"); v != "" {
		if _, err := uuid.Parse(v); err != nil {
			return filter, model.NewInvalidFilterError("user_id")
		}
		filter.UserID = v
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			return filter, model.NewInvalidFilterError("limit")
		}
		filter.Limit = n
	}

	return filter, nil
}

func parseFilterTime(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, false, err
}

func toAuthorResponse(a *model.Author) *authorResponse {
	if a == nil {
		return nil
	}
	return &authorResponse{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		ImageFile: a.ImageFile,
	}
}

// toPostResponse はmodel.PostからAPIレスポンスに変換する。
func toPostResponse(p *model.Post) postResponse {
	return postResponse{
		ID:          p.ID,
		Title:       p.Title,
		DatePosted:  p.DatePosted,
		Content:     p.Content,
		ContentType: string(p.ContentType),
		UserID:      p.UserID,
		Author:      toAuthorResponse(p.Author),
	}
}

func toCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:         c.ID,
		Content:    c.Content,
		DatePosted: c.DatePosted,
		UserID:     c.UserID,
		PostID:     c.PostID,
		Author:     toAuthorResponse(c.Author),
	}
}
