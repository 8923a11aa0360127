package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/carlosnatalino/simple-flask-blog/internal/auth"
	"github.com/carlosnatalino/simple-flask-blog/internal/config"
	"github.com/carlosnatalino/simple-flask-blog/internal/database"
	"github.com/carlosnatalino/simple-flask-blog/internal/handler"
	"github.com/carlosnatalino/simple-flask-blog/internal/logger"
	"github.com/carlosnatalino/simple-flask-blog/internal/metrics"
	"github.com/carlosnatalino/simple-flask-blog/internal/middleware"
	"github.com/carlosnatalino/simple-flask-blog/internal/post"
	"github.com/carlosnatalino/simple-flask-blog/internal/repository"
	"github.com/carlosnatalino/simple-flask-blog/internal/security"
	"github.com/carlosnatalino/simple-flask-blog/internal/seed"
	"github.com/carlosnatalino/simple-flask-blog/internal/user"
	"github.com/carlosnatalino/simple-flask-blog/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// rateLimiterConfig は設定のreq/minをreq/secのレートに変換する。
// バーストは1分間の上限と同じにする。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	rl := middleware.DefaultRateLimiterConfig()
	rl.TokenRate = rate.Limit(float64(cfg.RateLimitToken) / 60.0)
	rl.TokenBurst = cfg.RateLimitToken
	rl.APIRate = rate.Limit(float64(cfg.RateLimitAPI) / 60.0)
	rl.APIBurst = cfg.RateLimitAPI
	return rl
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(context.Background(), db); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	tokenRepo := repository.NewPostgresTokenRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)

	// 3. セキュリティ
	allowList, err := security.NewNetworkAllowList(cfg.AllowedNetworks)
	if err != nil {
		return fmt.Errorf("invalid ALLOWED_NETWORKS: %w", err)
	}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	// 4. メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. ドメインサービスの初期化
	authService := auth.NewService(userRepo, tokenRepo, hasher, auth.ServiceConfig{TokenTTL: cfg.TokenTTL})
	postService := post.NewService(postRepo, commentRepo)
	userService := user.NewService(userRepo, hasher)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(rateLimiterConfig(cfg))
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		AllowedNetworks:   allowList,
		TokenValidator:    authService,
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		RequestTimeout:    cfg.RequestTimeout,
		Metrics:           collector,
		MetricsGatherer:   registry,
		HealthChecker:     db,
		TokenService:      authService,
		PostService:       postService,
		UserService:       userService,
		Sanitizer:         security.NewContentSanitizer(),
		BaseURL:           cfg.BaseURL,
	})

	slog.Info("perimeter configured", slog.String("allowed_networks", allowList.String()))

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return serveUntilSignal(server)
}

// serveUntilSignal はサーバーを起動し、SIGINTまたはSIGTERMで停止する。
func serveUntilSignal(server *http.Server) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れトークンのクリーンアップをCLEANUP_INTERVALごとに実行し、
// /metricsでクリーンアップ件数を公開する。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(context.Background(), db); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	cleanupJob := cleanup.NewCleanupJob(repository.NewPostgresTokenRepo(db), slog.Default(), collector)
	cleanupJob.Retention = cfg.TokenRetention

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           metrics.SetupMetricsRoute(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
		slog.Duration("token_retention", cfg.TokenRetention),
	)

	// ctxがキャンセルされるまでブロックする
	cleanupJob.RunEvery(ctx, cfg.CleanupInterval)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsServer.Shutdown(shutdownCtx)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeed はデモ用のユーザー・投稿・コメントを投入する。
// 既に投入済みの場合は何もせず正常終了する。
func runSeed(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(context.Background(), db); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	userService := user.NewService(repository.NewPostgresUserRepo(db), auth.NewBcryptHasher(cfg.BcryptCost))
	seeder := seed.NewSeeder(
		userService,
		repository.NewPostgresPostRepo(db),
		repository.NewPostgresCommentRepo(db),
		slog.Default(),
		nil,
	)

	if _, err := seeder.Run(context.Background(), seed.DefaultUsers); err != nil {
		if errors.Is(err, seed.ErrAlreadySeeded) {
			slog.Info("demo data already present, skipping seed")
			return nil
		}
		return fmt.Errorf("seed failed: %w", err)
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
