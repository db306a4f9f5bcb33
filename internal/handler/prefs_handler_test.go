package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/vestgate/internal/model"
	"github.com/hitoshi/vestgate/internal/prefs"
)

// mockPrefsService はPrefsServiceInterfaceのモック実装。
type mockPrefsService struct {
	getFunc    func(ctx context.Context, userID string) (*model.Preferences, error)
	updateFunc func(ctx context.Context, userID string, input *prefs.UpdateInput) (*model.Preferences, error)
}

var _ PrefsServiceInterface = (*mockPrefsService)(nil)

func (m *mockPrefsService) Get(ctx context.Context, userID string) (*model.Preferences, error) {
	return m.getFunc(ctx, userID)
}

func (m *mockPrefsService) Update(ctx context.Context, userID string, input *prefs.UpdateInput) (*model.Preferences, error) {
	return m.updateFunc(ctx, userID, input)
}

func TestPrefsHandler_Get(t *testing.T) {
	service := &mockPrefsService{
		getFunc: func(ctx context.Context, userID string) (*model.Preferences, error) {
			return model.DefaultPreferences(userID), nil
		},
	}
	h := NewPrefsHandler(service)

	rec := httptest.NewRecorder()
	h.Get(rec, sessionRequest(http.MethodGet, "/api/preferences", "", missionSession()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp model.Preferences
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Lang != "en" || resp.UserCurrency != "USD" {
		t.Errorf("resp = %+v, want defaults", resp)
	}
}

// 部分更新: 指定したフィールドだけがサービスに渡ることを確認する。
func TestPrefsHandler_Update_Partial(t *testing.T) {
	service := &mockPrefsService{
		updateFunc: func(ctx context.Context, userID string, input *prefs.UpdateInput) (*model.Preferences, error) {
			if input.DarkMode == nil || !*input.DarkMode {
				t.Errorf("darkMode = %v, want true", input.DarkMode)
			}
			if input.Lang != nil {
				t.Errorf("lang = %v, want nil", *input.Lang)
			}
			p := model.DefaultPreferences(userID)
			p.DarkMode = true
			return p, nil
		},
	}
	h := NewPrefsHandler(service)

	rec := httptest.NewRecorder()
	h.Update(rec, sessionRequest(http.MethodPut, "/api/preferences", `{"darkMode":true}`, missionSession()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestPrefsHandler_Update_ValidationError(t *testing.T) {
	service := &mockPrefsService{
		updateFunc: func(ctx context.Context, userID string, input *prefs.UpdateInput) (*model.Preferences, error) {
			return nil, model.NewValidationError("lang", "言語コードを指定してください。")
		},
	}
	h := NewPrefsHandler(service)

	rec := httptest.NewRecorder()
	h.Update(rec, sessionRequest(http.MethodPut, "/api/preferences", `{"lang":""}`, missionSession()))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPrefsHandler_RequiresSession(t *testing.T) {
	h := NewPrefsHandler(&mockPrefsService{})

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/preferences", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
