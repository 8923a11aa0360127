package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
	"github.com/carlosnatalino/simple-flask-blog/internal/security"
	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	TokenRate       rate.Limit    // トークン発行のレート（req/sec、送信元アドレスごと）
	TokenBurst      int           // トークン発行のバーストサイズ
	APIRate         rate.Limit    // 認証済みAPIのレート（req/sec、ユーザーごと）
	APIBurst        int           // 認証済みAPIのバーストサイズ
	CleanupInterval time.Duration // 未使用エントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// トークン発行 10 req/min/address、API 120 req/min/user。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		TokenRate:       rate.Limit(10.0 / 60.0),
		TokenBurst:      10,
		APIRate:         rate.Limit(120.0 / 60.0),
		APIBurst:        120,
		CleanupInterval: 5 * time.Minute,
	}
}

// keyedLimiter はキーごとのレートリミッターと最終アクセス時刻を保持する。
type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterSet はキー（送信元アドレスまたはユーザーID）ごとのリミッターの集合。
type limiterSet struct {
	rate  rate.Limit
	burst int

	mu       sync.RWMutex
	limiters map[string]*keyedLimiter
}

func newLimiterSet(r rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		rate:     r,
		burst:    burst,
		limiters: make(map[string]*keyedLimiter),
	}
}

// get はキーのリミッターを取得または作成する。
func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.RLock()
	kl, exists := s.limiters[key]
	s.mu.RUnlock()

	if exists {
		s.mu.Lock()
		kl.lastAccess = time.Now()
		s.mu.Unlock()
		return kl.limiter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// ダブルチェック
	if kl, exists := s.limiters[key]; exists {
		kl.lastAccess = time.Now()
		return kl.limiter
	}

	limiter := rate.NewLimiter(s.rate, s.burst)
	s.limiters[key] = &keyedLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}
	return limiter
}

// evict は最終アクセスからttlを超えたエントリを削除する。
func (s *limiterSet) evict(now time.Time, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, kl := range s.limiters {
		if now.Sub(kl.lastAccess) > ttl {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterSet) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.limiters)
}

// RateLimiter はトークン発行と認証済みAPIのレート制限を管理する。
type RateLimiter struct {
	config RateLimiterConfig
	token  *limiterSet
	api    *limiterSet
	stopCh chan struct{}
	once   sync.Once
}

// NewRateLimiter は新しいRateLimiterを生成し、
// バックグラウンドで未使用エントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config: config,
		token:  newLimiterSet(config.TokenRate, config.TokenBurst),
		api:    newLimiterSet(config.APIRate, config.APIBurst),
		stopCh: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのゴルーチンを停止する。複数回呼んでもよい。
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// TokenIssuanceMiddleware はトークン発行エンドポイント用のレート制限ミドルウェアを返す。
// 送信元アドレスごとに制限し、パスワード総当たりを抑止する。
func (rl *RateLimiter) TokenIssuanceMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if ip := security.ParseRemoteIP(r.RemoteAddr); ip != nil {
				key = ip.String()
			}

			if !rl.token.get(key).Allow() {
				slog.Warn("rate limit exceeded",
					slog.String("remote_addr", key),
					slog.String("limit_type", "token_issuance"),
				)
				writeRateLimitResponse(w, rl.config.TokenRate)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// APIMiddleware は認証済みAPI用のレート制限ミドルウェアを返す。
// Bearerゲートの後に配置し、コンテキストのユーザーIDごとに制限する。
func (rl *RateLimiter) APIMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if !rl.api.get(userID).Allow() {
				slog.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("limit_type", "api"),
				)
				writeRateLimitResponse(w, rl.config.APIRate)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TokenLimiterCount はトークン発行リミッターのエントリ数を返す。テスト用。
func (rl *RateLimiter) TokenLimiterCount() int {
	return rl.token.count()
}

// APILimiterCount はAPIリミッターのエントリ数を返す。テスト用。
func (rl *RateLimiter) APILimiterCount() int {
	return rl.api.count()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセスがCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	now := time.Now()
	ttl := rl.config.CleanupInterval * 2
	rl.token.evict(now, ttl)
	rl.api.evict(now, ttl)
}

// writeRateLimitResponse は429を書き込む。
// Retry-Afterには1トークンが補充されるまでの秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := 1
	if r > 0 {
		retryAfterSec = int(math.Ceil(1.0 / float64(r)))
		if retryAfterSec < 1 {
			retryAfterSec = 1
		}
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitedError())
}
