package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/carlosnatalino/simple-flask-blog/internal/metrics"
	"github.com/carlosnatalino/simple-flask-blog/internal/model"
)

// Decision はゲートの判定結果。
// 拒否時のReasonはログとメトリクス専用で、レスポンスには含めない。
type Decision struct {
	Denied bool
	Status int
	Err    *model.APIError
	Reason string

	ctx context.Context
}

// Allow は通過を表すDecisionを返す。
func Allow() Decision {
	return Decision{}
}

// AllowWithContext は後続のハンドラーに渡すコンテキストを差し替えて通過させる。
func AllowWithContext(ctx context.Context) Decision {
	return Decision{ctx: ctx}
}

// Deny は拒否を表すDecisionを返す。
func Deny(status int, apiErr *model.APIError, reason string) Decision {
	return Decision{Denied: true, Status: status, Err: apiErr, Reason: reason}
}

// Gate はリクエストを後続に通すかどうかを判定する。
// 判定は同期的に行い、レスポンスは書き込まない。
type Gate interface {
	Name() string
	Evaluate(r *http.Request) Decision
}

// NewGateChain はゲートを指定順に評価するミドルウェアを返す。
// 最初に拒否したゲートで打ち切り、以降のゲートとハンドラーは呼ばない。
// collectorはnilでもよい。
func NewGateChain(collector metrics.MetricsCollector, gates ...Gate) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, g := range gates {
				d := g.Evaluate(r)
				if d.Denied {
					slog.Warn("request denied by gate",
						slog.String("gate", g.Name()),
						slog.String("reason", d.Reason),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("remote_addr", r.RemoteAddr),
					)
					if collector != nil {
						collector.RecordGateDenial(g.Name(), d.Reason)
					}
					if d.Status == http.StatusUnauthorized {
						w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
					}
					WriteErrorResponse(w, d.Status, d.Err)
					return
				}
				if d.ctx != nil {
					r = r.WithContext(d.ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
