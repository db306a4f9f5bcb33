// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/vestgate/internal/model"
)

// SessionRepository はゲートウェイセッションの永続化インターフェース。
// トークンは実装側で暗号化してから保存する。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。期限切れまたは未登録の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// UpdateAccessToken はアクセストークンをインプレースで置換する。
	// リフレッシュ成功時に呼ばれる。リトライ送出前に永続化が完了していること。
	UpdateAccessToken(ctx context.Context, id, accessToken string) error

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// MissionRepository はミッションタスクとポイント台帳の永続化インターフェース。
type MissionRepository interface {
	// GetTask は指定ユーザー・種別のタスクを取得する。未登録の場合はnilを返す。
	GetTask(ctx context.Context, userID string, kind model.TaskKind) (*model.Task, error)

	// ListTasks は指定ユーザーの全タスクを返す。未登録の種別は含まれない。
	ListTasks(ctx context.Context, userID string) ([]*model.Task, error)

	// StartTask はタスクの開始時刻を記録する。
	// すでに開始済みの場合は最初の開始時刻を保持する（冪等）。
	// すでに完了済みの場合は何もしない。
	StartTask(ctx context.Context, userID string, kind model.TaskKind, startedAt time.Time) error

	// CompleteTask はタスクを完了にし、同一トランザクションで台帳にrewardを加算する。
	// completed = false のガードが効いた場合のみ加算し、awarded = true を返す。
	// すでに完了済みの場合は何も変更せず awarded = false を返す。
	CompleteTask(ctx context.Context, userID string, kind model.TaskKind, completedAt time.Time, durationSeconds, reward int) (awarded bool, err error)

	// GetLedger は指定ユーザーのポイント台帳を返す。未登録の場合はポイント0の台帳を返す。
	GetLedger(ctx context.Context, userID string) (*model.Ledger, error)
}

// PreferencesRepository はユーザー表示設定の永続化インターフェース。
type PreferencesRepository interface {
	// Find は指定ユーザーの設定を取得する。未登録の場合はnilを返す。
	Find(ctx context.Context, userID string) (*model.Preferences, error)

	// Upsert は設定を作成または更新する。
	Upsert(ctx context.Context, prefs *model.Preferences) error
}

// ArticleRepository はキャッシュ記事の永続化インターフェース。
type ArticleRepository interface {
	// Upsert はリンクをキーに記事を作成または更新する。
	Upsert(ctx context.Context, article *model.Article) error

	// FindLatest は公開日時が最新の記事を返す。記事がない場合はnilを返す。
	FindLatest(ctx context.Context) (*model.Article, error)

	// DeleteOlderThan は取得日時がtより古い記事を削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, t time.Time) (int64, error)
}
