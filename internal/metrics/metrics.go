// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ゲート、トークン発行ハンドラー、クリーンアップワーカーから利用する。
type MetricsCollector interface {
	RecordTokenIssued()
	RecordTokenIssueFailure(reason string)
	RecordGateDenial(gate, reason string)
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(duration time.Duration)
	RecordTokensPurged(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	tokensIssued    prometheus.Counter
	tokenIssueFail  *prometheus.CounterVec
	gateDenials     *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram
	tokensPurged    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogapi_tokens_issued_total",
			Help: "発行されたBearerトークンの合計数",
		}),
		tokenIssueFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogapi_token_issue_failures_total",
			Help: "理由別のトークン発行失敗数",
		}, []string{"reason"}),
		gateDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogapi_gate_denials_total",
			Help: "ゲートと理由別のリクエスト拒否数",
		}, []string{"gate", "reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogapi_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blogapi_request_duration_seconds",
			Help:    "APIリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		tokensPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogapi_tokens_purged_total",
			Help: "クリーンアップで削除された期限切れトークンの合計数",
		}),
	}

	reg.MustRegister(
		c.tokensIssued,
		c.tokenIssueFail,
		c.gateDenials,
		c.httpStatus,
		c.requestDuration,
		c.tokensPurged,
	)

	return c
}

// RecordTokenIssued はトークン発行成功を記録する。
func (c *Collector) RecordTokenIssued() {
	c.tokensIssued.Inc()
}

// RecordTokenIssueFailure はトークン発行失敗を記録する。
// reasonはエラーコード（INVALID_CREDENTIALSなど）を想定する。
func (c *Collector) RecordTokenIssueFailure(reason string) {
	c.tokenIssueFail.WithLabelValues(reason).Inc()
}

// RecordGateDenial はゲートによる拒否を記録する。
// 呼び出し側には返さない内部理由（expired、revokedなど）もここでは区別する。
func (c *Collector) RecordGateDenial(gate, reason string) {
	c.gateDenials.WithLabelValues(gate, reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// RecordTokensPurged は削除されたトークン数を記録する。
func (c *Collector) RecordTokensPurged(count int64) {
	c.tokensPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsのみを提供するHTTPハンドラーを返す。
// ワーカーモードでメトリクスを公開する場合に使う。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
