package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/vestgate/internal/metrics"
	"github.com/hitoshi/vestgate/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// HealthChecker はヘルスチェックで疎通確認する依存を表す。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はルーターの組み立てに必要な依存をまとめる。
type RouterDeps struct {
	AuthHandler         *AuthHandler
	MissionHandler      *MissionHandler
	DepositHandler      *DepositHandler
	WithdrawalHandler   *WithdrawalHandler
	NotificationHandler *NotificationHandler
	PlanHandler         *PlanHandler
	PrefsHandler        *PrefsHandler

	SessionFinder middleware.SessionFinder
	RateLimiter   *middleware.RateLimiter
	CSRFConfig    middleware.CSRFConfig

	DB            HealthChecker
	Gatherer      prometheus.Gatherer
	Logger        *slog.Logger
	AllowedOrigin string
}

// NewRouter はBFFゲートウェイの全ルートを構築する。
//
// ミドルウェアの適用順:
//  1. リカバリー(panic保護)
//  2. アクセスログ
//  3. セキュリティヘッダー
//  4. CORS
//  5. CSRF(状態変更メソッドのみ検証)
//
// 認証が必要なルートはセッション検証とレート制限のグループに入れる。
func NewRouter(deps *RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.AllowedOrigin))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	// 運用エンドポイント
	r.Get("/health", newHealthHandler(deps.DB))
	r.Method(http.MethodGet, "/metrics", metrics.SetupMetricsRoute(deps.Gatherer))
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// セッション不要の認証エンドポイント
	r.Post("/auth/register", deps.AuthHandler.Register)
	r.Post("/auth/login", deps.AuthHandler.Login)
	r.Post("/auth/forgot-password", deps.AuthHandler.ForgotPassword)

	// プランカタログは静的情報のため認証不要
	r.Get("/api/plans", deps.PlanHandler.List)

	// 認証必須グループ
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/auth/logout", deps.AuthHandler.Logout)
		r.Get("/api/users/me", deps.AuthHandler.Me)
		r.Post("/auth/reset-password", deps.AuthHandler.ResetPassword)

		r.Get("/api/missions", deps.MissionHandler.List)
		r.Post("/api/missions/{kind}/start", deps.MissionHandler.Start)
		r.Post("/api/missions/{kind}/complete", deps.MissionHandler.Complete)
		r.Get("/api/missions/{kind}/elapsed", deps.MissionHandler.Elapsed)
		r.Get("/api/missions/points", deps.MissionHandler.Points)
		r.Get("/api/missions/article/content", deps.MissionHandler.ArticleContent)
		r.Get("/api/missions/survey", deps.MissionHandler.Survey)
		r.Post("/api/missions/survey/answer", deps.MissionHandler.SurveyAnswer)
		r.Delete("/api/missions/survey", deps.MissionHandler.SurveyReset)

		r.Get("/api/deposits", deps.DepositHandler.List)
		// 入金の作成は通常より厳しいレート制限をかける
		r.With(deps.RateLimiter.DepositMiddleware()).Post("/api/deposits", deps.DepositHandler.Create)

		r.Get("/api/withdrawals", deps.WithdrawalHandler.List)
		// 出金の作成も入金と同じ厳しいレート制限をかける
		r.With(deps.RateLimiter.DepositMiddleware()).Post("/api/withdrawals", deps.WithdrawalHandler.Create)

		r.Get("/api/notifications", deps.NotificationHandler.List)
		r.Post("/api/notifications/read-all", deps.NotificationHandler.ReadAll)
		r.Patch("/api/notifications/{id}/read", deps.NotificationHandler.MarkRead)

		r.Get("/api/preferences", deps.PrefsHandler.Get)
		r.Put("/api/preferences", deps.PrefsHandler.Update)
	})

	return r
}

func newHealthHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
