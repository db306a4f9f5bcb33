// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, network, server, system
	Action   string // ユーザー向け対処方法
	Field    string // validationカテゴリの場合のみ: 対象フィールド名
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeRefreshFailed       = "REFRESH_FAILED"
	ErrCodeSessionExpired      = "SESSION_EXPIRED"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeUpstreamUnreachable = "UPSTREAM_UNREACHABLE"
	ErrCodeUpstreamError       = "UPSTREAM_ERROR"
	ErrCodeTaskNotFound        = "TASK_NOT_FOUND"
	ErrCodeSurveyAnswerMissing = "SURVEY_ANSWER_MISSING"
	ErrCodeArticleNotAvailable = "ARTICLE_NOT_AVAILABLE"
)

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// messageにはアップストリームが返したメッセージをそのまま渡す。
// 空の場合は汎用メッセージにフォールバックする。
func NewInvalidCredentialsError(message string) *APIError {
	if message == "" {
		message = "メールアドレスまたはパスワードが正しくありません。"
	}
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  message,
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewRefreshFailedError はトークンリフレッシュ失敗エラーを生成する。
// このエラーだけがセッション破棄という状態変更を伴う。
func NewRefreshFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeRefreshFailed,
		Message:  fmt.Sprintf("認証情報の更新に失敗しました: %s", reason),
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewSessionExpiredError はセッション失効エラーを生成する。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "セッションの有効期限が切れています。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewValidationError はフィールド単位のバリデーションエラーを生成する。
// フォームバリデーションエラーはネットワーク層に到達しない。
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を修正してください。",
		Field:    field,
	}
}

// NewUpstreamUnreachableError はアップストリームAPIへの接続失敗エラーを生成する。
func NewUpstreamUnreachableError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnreachable,
		Message:  fmt.Sprintf("プラットフォームAPIに接続できませんでした: %s", reason),
		Category: "network",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUpstreamError はアップストリームAPIのエラー応答を表すエラーを生成する。
// messageにはアップストリームのレスポンスボディのメッセージをそのまま渡す。
// レスポンス形状が契約と一致しない場合もこのエラーで表現する。
func NewUpstreamError(message string) *APIError {
	if message == "" {
		message = "プラットフォームAPIがエラーを返しました。"
	}
	return &APIError{
		Code:     ErrCodeUpstreamError,
		Message:  message,
		Category: "server",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewTaskNotFoundError は未知のタスク種別エラーを生成する。
func NewTaskNotFoundError(kind string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", kind),
		Category: "validation",
		Action:   "video、article、checkin、survey のいずれかを指定してください。",
	}
}

// NewSurveyAnswerMissingError は未回答のまま次の設問へ進もうとした場合のエラーを生成する。
func NewSurveyAnswerMissingError(questionIndex int) *APIError {
	return &APIError{
		Code:     ErrCodeSurveyAnswerMissing,
		Message:  fmt.Sprintf("設問%dが未回答です。", questionIndex+1),
		Category: "validation",
		Action:   "選択肢を選んでから次へ進んでください。",
	}
}

// NewArticleNotAvailableError は配信可能な記事が存在しない場合のエラーを生成する。
func NewArticleNotAvailableError() *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotAvailable,
		Message:  "現在配信できる記事がありません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
