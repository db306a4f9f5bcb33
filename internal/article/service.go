// Package article は記事ミッションで表示するコンテンツを提供する。
// 記事の取得とキャッシュはワーカーが行い、本パッケージは読み取り側を担う。
package article

import (
	"context"
	"fmt"

	"github.com/hitoshi/vestgate/internal/model"
	"github.com/hitoshi/vestgate/internal/repository"
)

// Service は記事キャッシュへの読み取りアクセスを提供する。
type Service struct {
	repo repository.ArticleRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.ArticleRepository) *Service {
	return &Service{repo: repo}
}

// Latest は公開日時が最新のキャッシュ記事を返す。
// ワーカーがまだ記事を取得できていない場合はArticleNotAvailableを返す。
func (s *Service) Latest(ctx context.Context) (*model.Article, error) {
	a, err := s.repo.FindLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest article: %w", err)
	}
	if a == nil {
		return nil, model.NewArticleNotAvailableError()
	}
	return a, nil
}
