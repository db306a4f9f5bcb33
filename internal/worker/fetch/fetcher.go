package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/vestgate/internal/model"
	"github.com/hitoshi/vestgate/internal/repository"
)

// SSRFValidator はフィードURLのSSRF検証インターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Sanitizer は記事コンテンツのサニタイズインターフェース。
type Sanitizer interface {
	Sanitize(rawHTML string) string
	StripTags(rawHTML string) string
}

// MetricsRecorder は記事フェッチのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordArticleFetchSuccess()
	RecordArticleFetchFailure(reason string)
}

// Fetcher は記事ミッション用フィードのHTTPフェッチとパースを行う。
// ETag/Last-Modifiedを使用した条件付きGET、SSRF検証、
// gofeedによるパース、サニタイズ済み記事の保存を実行する。
// 単一フィードを対象とするため、条件付きGETの状態はメモリに保持する。
type Fetcher struct {
	articleRepo repository.ArticleRepository
	ssrfGuard   SSRFValidator
	sanitizer   Sanitizer
	metrics     MetricsRecorder
	logger      *slog.Logger
	timeout     time.Duration
	maxBodySize int64

	etag         string
	lastModified string
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(
	articleRepo repository.ArticleRepository,
	ssrfGuard SSRFValidator,
	sanitizer Sanitizer,
	metrics MetricsRecorder,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
) *Fetcher {
	return &Fetcher{
		articleRepo: articleRepo,
		ssrfGuard:   ssrfGuard,
		sanitizer:   sanitizer,
		metrics:     metrics,
		logger:      logger,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// Fetch はフィードをフェッチし、記事をサニタイズして保存する。
// ArticleFetcherServiceインターフェースを実装する。
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) error {
	start := time.Now()

	if err := f.ssrfGuard.ValidateURL(feedURL); err != nil {
		f.logger.Error("SSRF検証に失敗しました",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		f.metrics.RecordArticleFetchFailure("ssrf")
		return fmt.Errorf("SSRF検証に失敗: %w", err)
	}

	client := f.ssrfGuard.NewSafeClient(f.timeout, f.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return fmt.Errorf("リクエスト作成に失敗: %w", err)
	}

	req.Header.Set("User-Agent", "Vestgate/1.0 Article Fetcher")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	if f.etag != "" {
		req.Header.Set("If-None-Match", f.etag)
	}
	if f.lastModified != "" {
		req.Header.Set("If-Modified-Since", f.lastModified)
	}

	resp, err := client.Do(req)
	if err != nil {
		f.logger.Error("HTTPリクエストに失敗しました",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		f.metrics.RecordArticleFetchFailure("network")
		return fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	switch ClassifyHTTPStatus(resp.StatusCode) {
	case FetchResultNotModified:
		f.logger.Info("フィードは未変更です（304）",
			slog.String("feed_url", feedURL),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
		return nil

	case FetchResultOK:
		// 200: 以下で処理を続行

	default:
		f.logger.Warn("フィードフェッチがエラーステータスを返しました",
			slog.String("feed_url", feedURL),
			slog.Int("http_status", resp.StatusCode),
		)
		f.metrics.RecordArticleFetchFailure("http_status")
		return fmt.Errorf("フェッチ失敗: HTTPステータス %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		f.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		f.metrics.RecordArticleFetchFailure("read")
		return fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		f.etag = etag
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		f.lastModified = lastMod
	}

	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(body))
	if err != nil {
		f.logger.Error("フィードのパースに失敗しました",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		f.metrics.RecordArticleFetchFailure("parse")
		return fmt.Errorf("フィードのパースに失敗: %w", err)
	}

	saved := 0
	for _, item := range parsedFeed.Items {
		article := f.convertItem(item)
		if article == nil {
			continue
		}
		if err := f.articleRepo.Upsert(ctx, article); err != nil {
			f.logger.Error("記事の保存に失敗しました",
				slog.String("link", article.Link),
				slog.String("error", err.Error()),
			)
			f.metrics.RecordArticleFetchFailure("store")
			continue
		}
		saved++
	}

	f.metrics.RecordArticleFetchSuccess()
	f.logger.Info("フィードフェッチが完了しました",
		slog.String("feed_url", feedURL),
		slog.Int("items_total", len(parsedFeed.Items)),
		slog.Int("items_saved", saved),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// convertItem はgofeedの記事をサニタイズ済みのmodel.Articleに変換する。
// リンクがない記事はキャッシュのキーを持たないためスキップする。
func (f *Fetcher) convertItem(item *gofeed.Item) *model.Article {
	if item == nil || item.Link == "" {
		return nil
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}

	article := &model.Article{
		ID:        uuid.New().String(),
		Title:     f.sanitizer.StripTags(item.Title),
		Link:      item.Link,
		Content:   f.sanitizer.Sanitize(content),
		Summary:   f.sanitizer.StripTags(item.Description),
		FetchedAt: time.Now(),
	}

	switch {
	case item.PublishedParsed != nil:
		article.PublishedAt = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		article.PublishedAt = *item.UpdatedParsed
	default:
		article.PublishedAt = article.FetchedAt
	}

	return article
}
