package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/vestgate/internal/middleware"
	"github.com/hitoshi/vestgate/internal/model"
	"github.com/hitoshi/vestgate/internal/prefs"
)

// PrefsServiceInterface はユーザー表示設定のサービスインターフェース。
type PrefsServiceInterface interface {
	Get(ctx context.Context, userID string) (*model.Preferences, error)
	Update(ctx context.Context, userID string, input *prefs.UpdateInput) (*model.Preferences, error)
}

// PrefsHandler はユーザー表示設定のHTTPハンドラー。
type PrefsHandler struct {
	service PrefsServiceInterface
}

// NewPrefsHandler はPrefsHandlerを生成する。
func NewPrefsHandler(service PrefsServiceInterface) *PrefsHandler {
	return &PrefsHandler{service: service}
}

// Get は現在の表示設定を返す。未保存の場合は既定値を返す。
// GET /api/preferences
func (h *PrefsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewSessionExpiredError())
		return
	}

	preferences, err := h.service.Get(r.Context(), userID)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, preferences)
}

// Update は表示設定を部分更新する。指定されなかったフィールドは維持される。
// PUT /api/preferences
func (h *PrefsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewSessionExpiredError())
		return
	}

	var input prefs.UpdateInput
	if !decodeBody(w, r, &input) {
		return
	}

	preferences, err := h.service.Update(r.Context(), userID, &input)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, preferences)
}
