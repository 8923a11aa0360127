package handler

import (
	"net/http"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
)

// serviceDescription はAPIインデックスに載せるエンドポイント1件。
type serviceDescription struct {
	URL         string `json:"url"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

type indexResponse struct {
	Message  string               `json:"message"`
	Services []serviceDescription `json:"services"`
}

var apiServices = []serviceDescription{
	{URL: "/api/token/public", Method: http.MethodPost, Description: "Issues a bearer token for email and password"},
	{URL: "/api/token", Method: http.MethodDelete, Description: "Revokes the token used for the request"},
	{URL: "/api/posts", Method: http.MethodGet, Description: "Gets a list of posts"},
	{URL: "/api/posts", Method: http.MethodPost, Description: "Creates a post"},
	{URL: "/api/post/{id}", Method: http.MethodGet, Description: "Gets a post"},
	{URL: "/api/post/{id}", Method: http.MethodPut, Description: "Replaces a post"},
	{URL: "/api/post/{id}", Method: http.MethodPatch, Description: "Updates some fields of a post"},
	{URL: "/api/post/{id}", Method: http.MethodDelete, Description: "Deletes a post and its comments"},
	{URL: "/api/post/{id}/comments", Method: http.MethodGet, Description: "Gets the comments of a post"},
	{URL: "/api/post/{id}/comments", Method: http.MethodPost, Description: "Comments on a post"},
	{URL: "/api/users/me", Method: http.MethodGet, Description: "Gets the account of the token owner"},
	{URL: "/api/users/me", Method: http.MethodPatch, Description: "Updates the account of the token owner"},
}

// APIIndex はWeb APIの説明を返す。
// GET /api/
func APIIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Message:  "This is the API to consume blog posts",
		Services: apiServices,
	})
}

// APINotFound は/api配下の未定義ルートに404を返す。
// ゲートの内側に登録し、トークンのないリクエストにはルートの有無を明かさない。
func APINotFound(w http.ResponseWriter, r *http.Request) {
	writeAPIErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError(r.Method, r.URL.Path))
}
