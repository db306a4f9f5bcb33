// Package fetch は記事ミッション用フィードのバックグラウンドフェッチ処理を提供する。
// スケジューラ、フェッチャー、リトライ/バックオフ戦略を含む。
package fetch

import (
	"context"
	"log/slog"
	"time"
)

// ArticleFetcherService は記事フェッチの実行インターフェース。
type ArticleFetcherService interface {
	// Fetch は指定URLのフィードをフェッチし、記事をキャッシュに保存する。
	Fetch(ctx context.Context, feedURL string) error
}

// Scheduler は単一の記事フィードを一定間隔でフェッチする。
// フェッチ失敗が続いた場合は指数バックオフで次回実行を遅らせる。
type Scheduler struct {
	fetcher ArticleFetcherService
	logger  *slog.Logger
	feedURL string

	consecutiveErrors int
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(fetcher ArticleFetcherService, logger *slog.Logger, feedURL string) *Scheduler {
	return &Scheduler{
		fetcher: fetcher,
		logger:  logger,
		feedURL: feedURL,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	s.logger.Info("記事フェッチスケジューラを開始しました",
		slog.String("feed_url", s.feedURL),
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	s.RunOnce(ctx)

	timer := time.NewTimer(s.nextDelay(interval))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("記事フェッチスケジューラを停止しました")
			return
		case <-timer.C:
			s.RunOnce(ctx)
			timer.Reset(s.nextDelay(interval))
		}
	}
}

// RunOnce はフェッチを1回実行し、連続エラー回数を更新する。
func (s *Scheduler) RunOnce(ctx context.Context) {
	if err := s.fetcher.Fetch(ctx, s.feedURL); err != nil {
		s.consecutiveErrors++
		s.logger.Error("記事フェッチに失敗しました",
			slog.String("feed_url", s.feedURL),
			slog.Int("consecutive_errors", s.consecutiveErrors),
			slog.String("error", err.Error()),
		)
		return
	}
	s.consecutiveErrors = 0
}

// nextDelay は通常間隔とバックオフ遅延のうち長い方を返す。
func (s *Scheduler) nextDelay(interval time.Duration) time.Duration {
	if s.consecutiveErrors == 0 {
		return interval
	}
	backoff := CalculateBackoff(s.consecutiveErrors - 1)
	if backoff > interval {
		return backoff
	}
	return interval
}
