package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/carlosnatalino/simple-flask-blog/internal/metrics"
	"github.com/carlosnatalino/simple-flask-blog/internal/middleware"
	"github.com/carlosnatalino/simple-flask-blog/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ゲート
	AllowedNetworks middleware.AddressMatcher
	TokenValidator  middleware.TokenValidator

	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	RequestTimeout    time.Duration

	// メトリクス（nilの場合は/metricsを公開しない）
	Metrics         metrics.MetricsCollector
	MetricsGatherer prometheus.Gatherer

	HealthChecker HealthChecker

	// サービス
	TokenService TokenServiceInterface
	PostService  PostServiceInterface
	UserService  UserServiceInterface

	// 公開フィード
	Sanitizer security.ContentSanitizerService
	BaseURL   string
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → SecurityHeaders → Perimeter → CORS → Timeout
//
// /api 配下はトークン発行を除き、さらに JSON → Bearer → RateLimit(API) を通る。
// トークン発行は送信元アドレスごとのレート制限のみを通る。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	// 送信元アドレスの確認はすべてのルートに適用する
	r.Use(middleware.NewGateChain(deps.Metrics, middleware.NewPerimeterGate(deps.AllowedNetworks)))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.RequestTimeout > 0 {
		r.Use(chimw.Timeout(deps.RequestTimeout))
	}

	tokenHandler := NewTokenHandler(deps.TokenService, deps.Metrics)
	postHandler := NewPostHandler(deps.PostService)
	userHandler := NewUserHandler(deps.UserService)

	// --- Bearerトークン不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	if deps.Sanitizer != nil {
		feedHandler := NewFeedHandler(deps.PostService, deps.Sanitizer, deps.BaseURL)
		r.Get("/feed.atom", feedHandler.ServeAtom)
	}

	r.With(deps.RateLimiter.TokenIssuanceMiddleware()).Post("/api/token/public", tokenHandler.IssueToken)

	// --- Bearerトークンが必要なルート ---
	// ミドルウェアスタック: JSON → Bearer → RateLimit(API)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewGateChain(deps.Metrics,
			middleware.NewJSONGate(),
			middleware.NewBearerTokenGate(deps.TokenValidator),
		))
		r.Use(deps.RateLimiter.APIMiddleware())

		r.Get("/api/", APIIndex)
		r.Delete("/api/token", tokenHandler.RevokeToken)

		r.Route("/api/posts", func(r chi.Router) {
			r.Get("/", postHandler.ListPosts)
			r.Post("/", postHandler.CreatePost)
		})

		r.Route("/api/post/{id}", func(r chi.Router) {
			r.Get("/", postHandler.GetPost)
			r.Put("/", postHandler.ReplacePost)
			r.Patch("/", postHandler.PatchPost)
			r.Delete("/", postHandler.DeletePost)

			r.Get("/comments", postHandler.ListComments)
			r.Post("/comments", postHandler.CreateComment)
		})

		r.Route("/api/users", func(r chi.Router) {
			r.Get("/me", userHandler.GetMe)
			r.Patch("/me", userHandler.UpdateMe)
		})

		// 未定義の/api配下もゲートを通してから404にする
		r.HandleFunc("/api", APINotFound)
		r.HandleFunc("/api/*", APINotFound)
	})

	return r
}
