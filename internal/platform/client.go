// Package platform は投資プラットフォームAPI（アップストリーム）のクライアントを提供する。
// 全リクエストへのベアラートークン付与と、401時のリフレッシュ→1回だけのリトライを担う。
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/vestgate/internal/model"
)

// TokenStore はリフレッシュ結果の永続化とセッション破棄に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type TokenStore interface {
	// UpdateAccessToken はアクセストークンをインプレースで置換する。
	UpdateAccessToken(ctx context.Context, sessionID, accessToken string) error
	// DeleteByID はセッションを削除する。リフレッシュ不能時に呼ばれる。
	DeleteByID(ctx context.Context, sessionID string) error
}

// MetricsRecorder はアップストリーム呼び出しのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordUpstreamRequest(endpoint string, statusCode int)
	RecordUpstreamLatency(endpoint string, d time.Duration)
	RecordTokenRefresh(success bool)
}

// Client は投資プラットフォームAPIのクライアント。
// セッションのアクセストークンを全リクエストに付与し、
// 401応答時はリフレッシュトークンで再認証して元のリクエストを1回だけ再送する。
type Client struct {
	httpClient *http.Client
	baseURL    string
	store      TokenStore
	metrics    MetricsRecorder
	logger     *slog.Logger
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, baseURL string, store TokenStore, metrics MetricsRecorder, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      store,
		metrics:    metrics,
		logger:     logger,
	}
}

// do は認証付きリクエストを送出する。
// sessがアクセストークンを保持していればAuthorizationヘッダーを付与し、
// なければそのまま送出する（付与は常に成功する）。
// 401応答かつ未リトライの場合はリフレッシュを試み、新トークンの永続化が
// 完了してから元のリクエストを明示的なisRetryフラグ付きで1回だけ再送する。
// リトライ後の401、またはリフレッシュ自体の失敗は終端であり、
// セッションを完全に破棄してRefreshFailedを返す。
func (c *Client) do(ctx context.Context, sess *model.Session, method, path string, body []byte, isRetry bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sess.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("upstream request failed",
			slog.String("endpoint", path),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamUnreachableError(err.Error())
	}
	c.metrics.RecordUpstreamRequest(path, resp.StatusCode)
	c.metrics.RecordUpstreamLatency(path, time.Since(start))

	if resp.StatusCode != http.StatusUnauthorized || sess == nil || sess.RefreshToken == "" {
		return resp, nil
	}
	resp.Body.Close()

	if isRetry {
		// リトライ後の再度の401: 無限ループを防ぐためリフレッシュは繰り返さない
		c.logger.Warn("retried request still unauthorized, clearing session",
			slog.String("endpoint", path),
			slog.String("session_id", sess.ID),
		)
		c.clearSession(ctx, sess)
		return nil, model.NewRefreshFailedError("リトライ後も認可されませんでした")
	}

	accessToken, err := c.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		c.clearSession(ctx, sess)
		return nil, err
	}

	// リトライ送出前に新トークンの永続化を完了させる
	if err := c.store.UpdateAccessToken(ctx, sess.ID, accessToken); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	sess.AccessToken = accessToken

	c.logger.Info("access token refreshed, retrying request",
		slog.String("endpoint", path),
		slog.String("session_id", sess.ID),
	)

	return c.do(ctx, sess, method, path, body, true)
}

// Refresh はリフレッシュトークンをベアラーとしてauth/refreshを呼び、
// 新しいアクセストークンを取得する。
// リフレッシュトークンが無い、または拒否された場合はRefreshFailedを返す。
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		c.metrics.RecordTokenRefresh(false)
		return "", model.NewRefreshFailedError("リフレッシュトークンがありません")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordTokenRefresh(false)
		return "", model.NewRefreshFailedError(err.Error())
	}
	defer resp.Body.Close()
	c.metrics.RecordUpstreamRequest("auth/refresh", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordTokenRefresh(false)
		return "", model.NewRefreshFailedError(fmt.Sprintf("アップストリームがステータス %d を返しました", resp.StatusCode))
	}

	env, err := parseEnvelope(resp.Body)
	if err != nil {
		c.metrics.RecordTokenRefresh(false)
		return "", model.NewRefreshFailedError(err.Error())
	}

	var data refreshData
	if err := decodeData(env, "auth/refresh", &data); err != nil {
		c.metrics.RecordTokenRefresh(false)
		return "", model.NewRefreshFailedError(err.Error())
	}
	if data.AccessToken == "" {
		c.metrics.RecordTokenRefresh(false)
		return "", model.NewRefreshFailedError("アクセストークンが空です")
	}

	c.metrics.RecordTokenRefresh(true)
	return data.AccessToken, nil
}

// clearSession はセッションを完全に破棄する。
// 永続化層からの削除とメモリ上のトークンのクリアを行う。
func (c *Client) clearSession(ctx context.Context, sess *model.Session) {
	if sess == nil {
		return
	}
	if sess.ID != "" {
		if err := c.store.DeleteByID(ctx, sess.ID); err != nil {
			c.logger.Error("failed to delete session after refresh failure",
				slog.String("session_id", sess.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	sess.AccessToken = ""
	sess.RefreshToken = ""
}

// call はリクエストボディをJSONとして送出し、レスポンスをenvelopeとして読み取る。
// 非2xxの場合はアップストリームのメッセージを保持したままenvelopeとステータスを返す。
func (c *Client) call(ctx context.Context, sess *model.Session, method, path string, reqBody any) (*envelope, int, error) {
	var body []byte
	if reqBody != nil {
		var err error
		body, err = json.Marshal(reqBody)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	resp, err := c.do(ctx, sess, method, path, body, false)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	env, err := parseEnvelope(resp.Body)
	if err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, resp.StatusCode, model.NewUpstreamError(fmt.Sprintf("%s: %s", path, err.Error()))
		}
		// エラー応答のボディが読めない場合はステータスのみで表現する
		return &envelope{}, resp.StatusCode, nil
	}

	return env, resp.StatusCode, nil
}

// parseEnvelope はレスポンスボディを共通envelope形式として読み取る。
func parseEnvelope(r io.Reader) (*envelope, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %s", err.Error())
	}
	env := &envelope{}
	if len(raw) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %s", err.Error())
	}
	return env, nil
}

// Register はauth/registerを呼び出し、成功メッセージを返す。
// 失敗時はアップストリームのメッセージをそのまま保持したエラーを返す。
func (c *Client) Register(ctx context.Context, req *RegisterRequest) (string, error) {
	env, status, err := c.call(ctx, nil, http.MethodPost, "auth/register", req)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", model.NewUpstreamError(env.Message)
	}
	return env.Message, nil
}

// Login はauth/loginを呼び出し、発行されたトークンの組と成功メッセージを返す。
// 認証拒否の場合はInvalidCredentialsを返す。メッセージはアップストリームのまま。
func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, string, error) {
	env, status, err := c.call(ctx, nil, http.MethodPost, "auth/login", &loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, "", err
	}
	if status == http.StatusUnauthorized || status == http.StatusBadRequest {
		return nil, "", model.NewInvalidCredentialsError(env.Message)
	}
	if status < 200 || status >= 300 {
		return nil, "", model.NewUpstreamError(env.Message)
	}

	creds := &Credentials{}
	if err := decodeData(env, "auth/login", creds); err != nil {
		return nil, "", err
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return nil, "", model.NewUpstreamError("auth/login: トークンが欠落しています")
	}
	return creds, env.Message, nil
}

// Logout はauth/logoutを呼び出す。
// サーバー側セッションの無効化はベストエフォートであり、呼び出し元は
// このエラーに関わらずローカルセッションを破棄すること。
func (c *Client) Logout(ctx context.Context, sess *model.Session) error {
	env, status, err := c.call(ctx, sess, http.MethodPost, "auth/logout", struct{}{})
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return model.NewUpstreamError(env.Message)
	}
	return nil
}

// ForgotPassword はauth/forgot-passwordを呼び出し、メッセージを返す。
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	env, status, err := c.call(ctx, nil, http.MethodPost, "auth/forgot-password", &forgotPasswordRequest{Email: email})
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", model.NewUpstreamError(env.Message)
	}
	return env.Message, nil
}

// ResetPassword はauth/reset-passwordを呼び出し、メッセージを返す。
func (c *Client) ResetPassword(ctx context.Context, sess *model.Session, password string) (string, error) {
	env, status, err := c.call(ctx, sess, http.MethodPost, "auth/reset-password", &resetPasswordRequest{Password: password})
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", model.NewUpstreamError(env.Message)
	}
	return env.Message, nil
}

// Profile はauth/profileを呼び出し、ユーザープロフィールを返す。
func (c *Client) Profile(ctx context.Context, sess *model.Session) (*model.UserProfile, error) {
	env, status, err := c.call(ctx, sess, http.MethodGet, "auth/profile", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, model.NewUpstreamError(env.Message)
	}

	profile := &model.UserProfile{}
	if err := decodeData(env, "auth/profile", profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ListDeposits はGET depositsを呼び出し、入金履歴を返す。
func (c *Client) ListDeposits(ctx context.Context, sess *model.Session) ([]*model.Deposit, error) {
	env, status, err := c.call(ctx, sess, http.MethodGet, "deposits", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, model.NewUpstreamError(env.Message)
	}

	var deposits []*model.Deposit
	if err := decodeData(env, "deposits", &deposits); err != nil {
		return nil, err
	}
	return deposits, nil
}

// CreateDeposit はPOST depositsを呼び出し、作成された入金レコードを返す。
func (c *Client) CreateDeposit(ctx context.Context, sess *model.Session, amount float64, method string) (*model.Deposit, error) {
	env, status, err := c.call(ctx, sess, http.MethodPost, "deposits", &depositRequest{Amount: amount, Method: method})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, model.NewUpstreamError(env.Message)
	}

	deposit := &model.Deposit{}
	if err := decodeData(env, "deposits", deposit); err != nil {
		return nil, err
	}
	return deposit, nil
}

// ListWithdrawals はGET withdrawalsを呼び出し、出金履歴を返す。
func (c *Client) ListWithdrawals(ctx context.Context, sess *model.Session) ([]*model.Withdrawal, error) {
	env, status, err := c.call(ctx, sess, http.MethodGet, "withdrawals", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, model.NewUpstreamError(env.Message)
	}

	var withdrawals []*model.Withdrawal
	if err := decodeData(env, "withdrawals", &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// CreateWithdrawal はPOST withdrawalsを呼び出し、作成された出金レコードを返す。
func (c *Client) CreateWithdrawal(ctx context.Context, sess *model.Session, amount float64, method, destination string) (*model.Withdrawal, error) {
	env, status, err := c.call(ctx, sess, http.MethodPost, "withdrawals", &withdrawalRequest{Amount: amount, Method: method, Destination: destination})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, model.NewUpstreamError(env.Message)
	}

	withdrawal := &model.Withdrawal{}
	if err := decodeData(env, "withdrawals", withdrawal); err != nil {
		return nil, err
	}
	return withdrawal, nil
}

// ListNotifications はGET notificationsを呼び出し、通知一覧を返す。
func (c *Client) ListNotifications(ctx context.Context, sess *model.Session) ([]*model.Notification, error) {
	env, status, err := c.call(ctx, sess, http.MethodGet, "notifications", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, model.NewUpstreamError(env.Message)
	}

	var notifications []*model.Notification
	if err := decodeData(env, "notifications", &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead はPATCH notifications/is-read/{id}を呼び出す。
func (c *Client) MarkNotificationRead(ctx context.Context, sess *model.Session, id string) error {
	env, status, err := c.call(ctx, sess, http.MethodPatch, "notifications/is-read/"+id, struct{}{})
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return model.NewUpstreamError(env.Message)
	}
	return nil
}
