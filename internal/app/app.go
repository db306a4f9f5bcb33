// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/vestgate/internal/article"
	"github.com/hitoshi/vestgate/internal/auth"
	"github.com/hitoshi/vestgate/internal/config"
	"github.com/hitoshi/vestgate/internal/database"
	"github.com/hitoshi/vestgate/internal/handler"
	"github.com/hitoshi/vestgate/internal/logger"
	"github.com/hitoshi/vestgate/internal/metrics"
	"github.com/hitoshi/vestgate/internal/middleware"
	"github.com/hitoshi/vestgate/internal/mission"
	"github.com/hitoshi/vestgate/internal/plan"
	"github.com/hitoshi/vestgate/internal/platform"
	"github.com/hitoshi/vestgate/internal/prefs"
	"github.com/hitoshi/vestgate/internal/repository"
	"github.com/hitoshi/vestgate/internal/security"
	"github.com/hitoshi/vestgate/internal/token"
	"github.com/hitoshi/vestgate/internal/worker/cleanup"
	fetchpkg "github.com/hitoshi/vestgate/internal/worker/fetch"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w)

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
		slog.String("upstream", cfg.UpstreamBaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
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

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. トークン暗号化とリポジトリの初期化
	cipher, err := token.NewCipher(cfg.SessionSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize token cipher: %w", err)
	}

	sessionRepo := repository.NewPostgresSessionRepo(db, cipher)
	missionRepo := repository.NewPostgresMissionRepo(db)
	prefsRepo := repository.NewPostgresPrefsRepo(db)
	articleRepo := repository.NewPostgresArticleRepo(db)

	// 3. メトリクスの初期化
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	// 4. アップストリームクライアントの初期化
	platformClient := platform.NewClient(
		&http.Client{Timeout: cfg.UpstreamTimeout},
		cfg.UpstreamBaseURL,
		sessionRepo,
		collector,
		slog.Default(),
	)

	// 5. ドメインサービスの初期化
	authService := auth.NewService(
		platformClient, sessionRepo,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	missionService := mission.NewService(missionRepo, collector)
	prefsService := prefs.NewService(prefsRepo)
	articleService := article.NewService(articleRepo)
	planService := plan.NewService()
	sanitizer := security.NewContentSanitizer()

	// 6. レート制限の構築（configはreq/min単位、rate.Limitはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitDeposit > 0 {
		rateLimiterCfg.DepositRate = rate.Limit(float64(cfg.RateLimitDeposit) / 60.0)
		rateLimiterCfg.DepositBurst = cfg.RateLimitDeposit
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 7. ルーターの構築
	authConfig := handler.AuthHandlerConfig{
		CookieDomain:  cfg.CookieDomain,
		CookieSecure:  cfg.CookieSecure,
		SessionMaxAge: cfg.SessionMaxAge,
	}

	router := handler.NewRouter(&handler.RouterDeps{
		AuthHandler:         handler.NewAuthHandler(authService, authConfig),
		MissionHandler:      handler.NewMissionHandler(missionService, articleService),
		DepositHandler:      handler.NewDepositHandler(platformClient),
		WithdrawalHandler:   handler.NewWithdrawalHandler(platformClient),
		NotificationHandler: handler.NewNotificationHandler(platformClient, sanitizer),
		PlanHandler:         handler.NewPlanHandler(planService),
		PrefsHandler:        handler.NewPrefsHandler(prefsService),

		SessionFinder: sessionRepo,
		RateLimiter:   rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},

		DB:            db,
		Gatherer:      prometheus.DefaultGatherer,
		Logger:        slog.Default(),
		AllowedOrigin: cfg.CORSAllowedOrigin,
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 記事フェッチスケジューラとクリーンアップジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	cipher, err := token.NewCipher(cfg.SessionSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize token cipher: %w", err)
	}
	sessionRepo := repository.NewPostgresSessionRepo(db, cipher)
	articleRepo := repository.NewPostgresArticleRepo(db)

	// 3. メトリクスとセキュリティサービスの初期化
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(sessionRepo, articleRepo, collector, slog.Default())
	cleanupJob.ArticleRetentionDays = cfg.ArticleRetention

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	// 記事フィードが未設定の場合はクリーンアップのみ実行する
	if cfg.ArticleFeedURL == "" {
		slog.Info("worker starting (cleanup only)",
			slog.Int("article_retention_days", cfg.ArticleRetention),
		)
		cleanupJob.Start(ctx, time.Hour)
		slog.Info("worker stopped gracefully")
		return nil
	}

	// 5. フィードURLの解決（HTMLページが設定された場合は自動検出する）
	discoverer := fetchpkg.NewFeedDiscoverer(ssrfGuard)
	feedURL, err := discoverer.Discover(ctx, cfg.ArticleFeedURL)
	if err != nil {
		slog.Warn("feed discovery failed, using configured URL as-is",
			slog.String("url", cfg.ArticleFeedURL),
			slog.String("error", err.Error()),
		)
		feedURL = cfg.ArticleFeedURL
	}

	// 6. 記事フェッチャーの初期化
	fetcher := fetchpkg.NewFetcher(
		articleRepo, ssrfGuard, sanitizer, collector,
		slog.Default(), cfg.ArticleFetchTimeout, cfg.ArticleMaxSize,
	)
	scheduler := fetchpkg.NewScheduler(fetcher, slog.Default(), feedURL)

	slog.Info("worker starting",
		slog.String("article_feed_url", cfg.ArticleFeedURL),
		slog.Duration("fetch_interval", cfg.ArticleFetchInterval),
		slog.Int("article_retention_days", cfg.ArticleRetention),
	)

	// クリーンアップジョブをバックグラウンドで毎時実行
	go cleanupJob.Start(ctx, time.Hour)

	// フェッチスケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.ArticleFetchInterval)

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

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
