// Package cleanup は期限切れトークンの自動削除ジョブを提供する。
// 有効期限から保持期間（デフォルト7日）を過ぎたトークンを定期的に削除する。
// 失効済みトークンも有効期限を基準に同じ扱いとする。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/carlosnatalino/simple-flask-blog/internal/metrics"
)

// DefaultRetention は有効期限切れのトークンを保持する期間のデフォルト値。
const DefaultRetention = 7 * 24 * time.Hour

// TokenPurger は期限切れトークンを削除するインターフェース。
// repository.TokenRepositoryが満たす。
type TokenPurger interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupJob は期限切れトークンの削除ジョブ。
// 何度実行しても結果は変わらない。
type CleanupJob struct {
	tokens    TokenPurger
	logger    *slog.Logger
	collector metrics.MetricsCollector
	now       func() time.Time

	Retention time.Duration
}

// NewCleanupJob は新しいCleanupJobを生成する。collectorはnilでもよい。
func NewCleanupJob(tokens TokenPurger, logger *slog.Logger, collector metrics.MetricsCollector) *CleanupJob {
	return &CleanupJob{
		tokens:    tokens,
		logger:    logger,
		collector: collector,
		now:       time.Now,
		Retention: DefaultRetention,
	}
}

// Run はexpires_atがnow-Retentionより前のトークンを削除する。
// 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()
	cutoff := start.Add(-j.Retention)

	deleted, err := j.tokens.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("トークンクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Time("cutoff", cutoff),
		)
		return fmt.Errorf("トークンクリーンアップの実行に失敗: %w", err)
	}

	if j.collector != nil {
		j.collector.RecordTokensPurged(deleted)
	}

	j.logger.Info("トークンクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.String("retention", j.Retention.String()),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// RunEvery はintervalごとにRunを実行し、ctxがキャンセルされるまでブロックする。
// 起動直後に1回実行する。個々の実行の失敗はログに残して継続する。
func (j *CleanupJob) RunEvery(ctx context.Context, interval time.Duration) {
	_ = j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
