package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/vestgate/internal/model"
)

// PostgresArticleRepo はPostgreSQLを使用した記事キャッシュリポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

// Upsert はリンクをキーに記事を作成または更新する。
func (r *PostgresArticleRepo) Upsert(ctx context.Context, article *model.Article) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO articles (id, title, link, content, summary, published_at, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (link) DO UPDATE
		 SET title = EXCLUDED.title,
		     content = EXCLUDED.content,
		     summary = EXCLUDED.summary,
		     published_at = EXCLUDED.published_at,
		     fetched_at = EXCLUDED.fetched_at`,
		article.ID, article.Title, article.Link, article.Content, article.Summary,
		article.PublishedAt, article.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert article: %w", err)
	}
	return nil
}

// FindLatest は公開日時が最新の記事を返す。記事がない場合はnilを返す。
func (r *PostgresArticleRepo) FindLatest(ctx context.Context) (*model.Article, error) {
	article := &model.Article{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, link, content, summary, published_at, fetched_at
		 FROM articles
		 ORDER BY published_at DESC
		 LIMIT 1`,
	).Scan(&article.ID, &article.Title, &article.Link, &article.Content, &article.Summary,
		&article.PublishedAt, &article.FetchedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest article: %w", err)
	}

	return article, nil
}

// DeleteOlderThan は取得日時がtより古い記事を削除し、削除件数を返す。
func (r *PostgresArticleRepo) DeleteOlderThan(ctx context.Context, t time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM articles WHERE fetched_at < $1`,
		t,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old articles: %w", err)
	}
	return result.RowsAffected()
}

// compile-time interface check
var _ ArticleRepository = (*PostgresArticleRepo)(nil)
