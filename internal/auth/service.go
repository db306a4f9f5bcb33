// Package auth はゲートウェイの認証フローとセッション管理を提供する。
// 資格情報の検証自体はアップストリームAPIが行い、本パッケージは
// トークンの組をサーバー側セッションとして保持する責務を持つ。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/vestgate/internal/model"
	"github.com/hitoshi/vestgate/internal/platform"
	"github.com/hitoshi/vestgate/internal/repository"
)

// PlatformClient は認証フローが必要とするアップストリーム操作のインターフェース。
type PlatformClient interface {
	Register(ctx context.Context, req *platform.RegisterRequest) (string, error)
	Login(ctx context.Context, email, password string) (*platform.Credentials, string, error)
	Logout(ctx context.Context, sess *model.Session) error
	Profile(ctx context.Context, sess *model.Session) (*model.UserProfile, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, sess *model.Session, password string) (string, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	client      PlatformClient
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(client PlatformClient, sessionRepo repository.SessionRepository, config ServiceConfig) *Service {
	return &Service{
		client:      client,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// RegisterInput は新規登録フォームの入力。
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	DateOfBirth string
	Password    string
}

// Register は入力を検証し、アップストリームへユーザー登録を委譲する。
// バリデーションエラーはネットワーク層に到達する前に返す。
func (s *Service) Register(ctx context.Context, input *RegisterInput) (string, error) {
	if err := ValidateRegisterInput(input); err != nil {
		return "", err
	}

	message, err := s.client.Register(ctx, &platform.RegisterRequest{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		Phone:       input.Phone,
		DateOfBirth: input.DateOfBirth,
		Password:    input.Password,
	})
	if err != nil {
		return "", err
	}

	slog.Info("user registered", slog.String("email", input.Email))
	return message, nil
}

// Login はアップストリームで認証し、新しいセッションを発行する。
// 発行されたトークンの組は暗号化されてセッションストアに保存され、
// ブラウザにはセッションIDのみが渡る。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, *model.UserProfile, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, nil, err
	}
	if password == "" {
		return nil, nil, model.NewValidationError("password", "パスワードを入力してください。")
	}

	creds, _, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	// 発行直後のトークンでプロフィールを取得し、ユーザーIDを確定する
	pending := &model.Session{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}
	profile, err := s.client.Profile(ctx, pending)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch profile after login: %w", err)
	}

	now := time.Now()
	sess := &model.Session{
		ID:           uuid.New().String(),
		UserID:       profile.ID,
		AccessToken:  pending.AccessToken,
		RefreshToken: pending.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt:    now,
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", profile.ID),
		slog.String("session_id", sess.ID),
	)
	return sess, profile, nil
}

// Logout はセッションを破棄する。
// アップストリーム側の無効化はベストエフォートであり、失敗しても
// ローカルセッションは必ず削除する。
func (s *Service) Logout(ctx context.Context, sess *model.Session) error {
	if err := s.client.Logout(ctx, sess); err != nil {
		slog.Warn("upstream logout failed, clearing local session anyway",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.sessionRepo.DeleteByID(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sess.ID))
	return nil
}

// Profile は現在のセッションに対応するユーザープロフィールを取得する。
func (s *Service) Profile(ctx context.Context, sess *model.Session) (*model.UserProfile, error) {
	return s.client.Profile(ctx, sess)
}

// ForgotPassword はパスワード再設定メールの送信をアップストリームへ委譲する。
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	if err := ValidateEmail(email); err != nil {
		return "", err
	}
	return s.client.ForgotPassword(ctx, email)
}

// ResetPassword は新しいパスワードを検証し、アップストリームへ委譲する。
func (s *Service) ResetPassword(ctx context.Context, sess *model.Session, password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	return s.client.ResetPassword(ctx, sess, password)
}
