package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/vestgate/internal/auth"
	"github.com/hitoshi/vestgate/internal/middleware"
	"github.com/hitoshi/vestgate/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, input *auth.RegisterInput) (string, error)
	Login(ctx context.Context, email, password string) (*model.Session, *model.UserProfile, error)
	Logout(ctx context.Context, sess *model.Session) error
	Profile(ctx context.Context, sess *model.Session) (*model.UserProfile, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, sess *model.Session, password string) (string, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// --- リクエスト/レスポンス型 ---

type registerRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"dateOfBirth"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Message string             `json:"message"`
	User    *model.UserProfile `json:"user"`
}

// Register は新規ユーザー登録をアップストリームへ委譲する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	message, err := h.service.Register(r.Context(), &auth.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Password:    req.Password,
	})
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: message})
}

// Login は認証を行い、セッションCookieを発行する。
// トークンの組はサーバー側に保持され、ブラウザには渡らない。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess, profile, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	http.SetCookie(w, middleware.SessionCookie(sess.ID, h.config.SessionMaxAge, h.config.CookieSecure, h.config.CookieDomain))

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "ログインしました。",
		User:    profile,
	})
}

// Logout はセッションを破棄し、Cookieを失効させる。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	if err := h.service.Logout(r.Context(), sess); err != nil {
		slog.Error("logout failed", slog.String("error", err.Error()))
		middleware.WriteAPIError(w, err)
		return
	}

	http.SetCookie(w, middleware.ExpiredSessionCookie(h.config.CookieSecure, h.config.CookieDomain))

	writeJSON(w, http.StatusOK, messageResponse{Message: "ログアウトしました。"})
}

// Me は現在のユーザープロフィールを返す。
// GET /api/users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	profile, err := h.service.Profile(r.Context(), sess)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// ForgotPassword はパスワード再設定メールの送信を依頼する。
// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	message, err := h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: message})
}

// ResetPassword はパスワードを再設定する。
// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	var req passwordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	message, err := h.service.ResetPassword(r.Context(), sess, req.Password)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: message})
}
