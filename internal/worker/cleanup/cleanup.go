// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 期限切れセッションと保持期間を超過したキャッシュ記事を
// 定期バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionDeleter は期限切れセッションの削除インターフェース。
type SessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// ArticleDeleter は古い記事の削除インターフェース。
type ArticleDeleter interface {
	DeleteOlderThan(ctx context.Context, t time.Time) (int64, error)
}

// MetricsRecorder はクリーンアップのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordSessionsCleaned(count int64)
}

// CleanupJob は期限切れセッションと古い記事の自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessions SessionDeleter
	articles ArticleDeleter
	metrics  MetricsRecorder
	logger   *slog.Logger

	// ArticleRetentionDays はキャッシュ記事の保持日数。
	ArticleRetentionDays int
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの記事保持日数は30日。
func NewCleanupJob(sessions SessionDeleter, articles ArticleDeleter, metrics MetricsRecorder, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions:             sessions,
		articles:             articles,
		metrics:              metrics,
		logger:               logger,
		ArticleRetentionDays: 30,
	}
}

// Run は期限切れセッションと保持期間を超過した記事を削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	sessionsDeleted, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}
	j.metrics.RecordSessionsCleaned(sessionsDeleted)

	cutoff := time.Now().AddDate(0, 0, -j.ArticleRetentionDays)
	articlesDeleted, err := j.articles.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("記事クリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.ArticleRetentionDays),
		)
		return fmt.Errorf("記事クリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("sessions_deleted", sessionsDeleted),
		slog.Int64("articles_deleted", articlesDeleted),
		slog.Int("retention_days", j.ArticleRetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start は指定間隔のティッカーでクリーンアップジョブを定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("クリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
	)

	if err := j.Run(ctx); err != nil {
		j.logger.Error("クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("クリーンアップジョブの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
