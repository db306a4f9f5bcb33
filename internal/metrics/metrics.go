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
// アップストリームクライアント、ミッションサービス、ワーカーから利用する。
type MetricsCollector interface {
	RecordUpstreamRequest(endpoint string, statusCode int)
	RecordUpstreamLatency(endpoint string, d time.Duration)
	RecordTokenRefresh(success bool)
	RecordMissionCompletion(kind string)
	RecordPointsAwarded(points int)
	RecordArticleFetchSuccess()
	RecordArticleFetchFailure(reason string)
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	upstreamRequests   *prometheus.CounterVec
	upstreamLatency    *prometheus.HistogramVec
	tokenRefresh       *prometheus.CounterVec
	missionCompletions *prometheus.CounterVec
	pointsAwarded      prometheus.Counter
	articleFetchOK     prometheus.Counter
	articleFetchFail   *prometheus.CounterVec
	sessionsCleaned    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vestgate_upstream_requests_total",
			Help: "アップストリームAPIリクエストのエンドポイント・ステータス別合計数",
		}, []string{"endpoint", "status_code"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vestgate_upstream_latency_seconds",
			Help:    "アップストリームAPIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		tokenRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vestgate_token_refresh_total",
			Help: "トークンリフレッシュの結果別合計数",
		}, []string{"result"}),
		missionCompletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vestgate_mission_completions_total",
			Help: "ミッションタスク完了の種別別合計数",
		}, []string{"kind"}),
		pointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vestgate_points_awarded_total",
			Help: "付与された報酬ポイントの合計",
		}),
		articleFetchOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vestgate_article_fetch_success_total",
			Help: "記事フィードフェッチ成功の合計数",
		}),
		articleFetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vestgate_article_fetch_fail_total",
			Help: "記事フィードフェッチ失敗の理由別合計数",
		}, []string{"reason"}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vestgate_sessions_cleaned_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.upstreamRequests,
		c.upstreamLatency,
		c.tokenRefresh,
		c.missionCompletions,
		c.pointsAwarded,
		c.articleFetchOK,
		c.articleFetchFail,
		c.sessionsCleaned,
	)

	return c
}

// RecordUpstreamRequest はアップストリームリクエストの結果を記録する。
func (c *Collector) RecordUpstreamRequest(endpoint string, statusCode int) {
	c.upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamLatency はアップストリームリクエストのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(endpoint string, d time.Duration) {
	c.upstreamLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordTokenRefresh はトークンリフレッシュの結果を記録する。
func (c *Collector) RecordTokenRefresh(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.tokenRefresh.WithLabelValues(result).Inc()
}

// RecordMissionCompletion はミッションタスクの完了を記録する。
func (c *Collector) RecordMissionCompletion(kind string) {
	c.missionCompletions.WithLabelValues(kind).Inc()
}

// RecordPointsAwarded は付与されたポイントを記録する。
func (c *Collector) RecordPointsAwarded(points int) {
	c.pointsAwarded.Add(float64(points))
}

// RecordArticleFetchSuccess は記事フィードのフェッチ成功を記録する。
func (c *Collector) RecordArticleFetchSuccess() {
	c.articleFetchOK.Inc()
}

// RecordArticleFetchFailure は記事フィードのフェッチ失敗を記録する。
func (c *Collector) RecordArticleFetchFailure(reason string) {
	c.articleFetchFail.WithLabelValues(reason).Inc()
}

// RecordSessionsCleaned は削除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
