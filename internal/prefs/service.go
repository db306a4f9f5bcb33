// Package prefs はユーザーの表示設定を提供する。
// テーマ、言語、通貨、ロケールの4項目をユーザー単位で永続化する。
package prefs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/vestgate/internal/model"
	"github.com/hitoshi/vestgate/internal/repository"
)

// UpdateInput は設定の部分更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	DarkMode     *bool   `json:"darkMode"`
	Lang         *string `json:"lang"`
	UserCurrency *string `json:"userCurrency"`
	UserLocale   *string `json:"userLocale"`
}

// Service は表示設定に関するビジネスロジックを提供する。
type Service struct {
	repo repository.PreferencesRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.PreferencesRepository) *Service {
	return &Service{repo: repo}
}

// Get は指定ユーザーの設定を返す。
// 未保存のユーザーにはデフォルト設定（ライトテーマ、en、USD、en-US）を返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.Preferences, error) {
	prefs, err := s.repo.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find preferences: %w", err)
	}
	if prefs == nil {
		return model.DefaultPreferences(userID), nil
	}
	return prefs, nil
}

// Update は指定されたフィールドのみを更新し、更新後の設定を返す。
// 空文字列への更新はバリデーションエラーとして拒否する。
func (s *Service) Update(ctx context.Context, userID string, input *UpdateInput) (*model.Preferences, error) {
	if input.Lang != nil && *input.Lang == "" {
		return nil, model.NewValidationError("lang", "言語コードを指定してください。")
	}
	if input.UserCurrency != nil && *input.UserCurrency == "" {
		return nil, model.NewValidationError("userCurrency", "通貨コードを指定してください。")
	}
	if input.UserLocale != nil && *input.UserLocale == "" {
		return nil, model.NewValidationError("userLocale", "ロケールを指定してください。")
	}

	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.DarkMode != nil {
		prefs.DarkMode = *input.DarkMode
	}
	if input.Lang != nil {
		prefs.Lang = *input.Lang
	}
	if input.UserCurrency != nil {
		prefs.UserCurrency = *input.UserCurrency
	}
	if input.UserLocale != nil {
		prefs.UserLocale = *input.UserLocale
	}
	prefs.UpdatedAt = time.Now()

	if err := s.repo.Upsert(ctx, prefs); err != nil {
		return nil, fmt.Errorf("failed to upsert preferences: %w", err)
	}

	slog.Info("preferences updated", slog.String("user_id", userID))
	return prefs, nil
}
