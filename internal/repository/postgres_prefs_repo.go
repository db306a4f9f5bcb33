package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/vestgate/internal/model"
)

// PostgresPrefsRepo はPostgreSQLを使用した表示設定リポジトリ。
type PostgresPrefsRepo struct {
	db *sql.DB
}

// NewPostgresPrefsRepo はPostgresPrefsRepoを生成する。
func NewPostgresPrefsRepo(db *sql.DB) *PostgresPrefsRepo {
	return &PostgresPrefsRepo{db: db}
}

// Find は指定ユーザーの設定を取得する。未登録の場合はnilを返す。
func (r *PostgresPrefsRepo) Find(ctx context.Context, userID string) (*model.Preferences, error) {
	prefs := &model.Preferences{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, dark_mode, lang, user_currency, user_locale, updated_at
		 FROM preferences
		 WHERE user_id = $1`,
		userID,
	).Scan(&prefs.UserID, &prefs.DarkMode, &prefs.Lang, &prefs.UserCurrency, &prefs.UserLocale, &prefs.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find preferences: %w", err)
	}

	return prefs, nil
}

// Upsert は設定を作成または更新する。
func (r *PostgresPrefsRepo) Upsert(ctx context.Context, prefs *model.Preferences) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO preferences (user_id, dark_mode, lang, user_currency, user_locale, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (user_id) DO UPDATE
		 SET dark_mode = EXCLUDED.dark_mode,
		     lang = EXCLUDED.lang,
		     user_currency = EXCLUDED.user_currency,
		     user_locale = EXCLUDED.user_locale,
		     updated_at = now()`,
		prefs.UserID, prefs.DarkMode, prefs.Lang, prefs.UserCurrency, prefs.UserLocale,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PreferencesRepository = (*PostgresPrefsRepo)(nil)
