package handler

import (
	"context"
	"net/http"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
	"github.com/carlosnatalino/simple-flask-blog/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// GetMe はトークンのユーザーのアカウント情報を返す。
	GetMe(ctx context.Context, userID string) (*model.User, error)
	// UpdateMe はusername、email、image_fileを部分更新する。
	// 他のユーザーと重複する場合はUSER_CONFLICTを返す。
	UpdateMe(ctx context.Context, userID string, upd user.AccountUpdate) (*model.User, error)
}

// UserHandler はアカウント情報のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// userResponse はアカウント情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	ImageFile string `json:"image_file"`
}

// GetMe はアカウント情報を返す。
// GET /api/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	u, err := h.service.GetMe(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// UpdateMe はアカウント情報を部分更新する。
// PATCH /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var upd user.AccountUpdate
	if !decodeJSONBody(w, r, &upd) {
		return
	}

	u, err := h.service.UpdateMe(r.Context(), userID, upd)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		ImageFile: u.ImageFile,
	}
}
