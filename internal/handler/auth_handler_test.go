package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/vestgate/internal/auth"
	"github.com/hitoshi/vestgate/internal/middleware"
	"github.com/hitoshi/vestgate/internal/model"
)

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFunc       func(ctx context.Context, input *auth.RegisterInput) (string, error)
	loginFunc          func(ctx context.Context, email, password string) (*model.Session, *model.UserProfile, error)
	logoutFunc         func(ctx context.Context, sess *model.Session) error
	profileFunc        func(ctx context.Context, sess *model.Session) (*model.UserProfile, error)
	forgotPasswordFunc func(ctx context.Context, email string) (string, error)
	resetPasswordFunc  func(ctx context.Context, sess *model.Session, password string) (string, error)
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

func (m *mockAuthService) Register(ctx context.Context, input *auth.RegisterInput) (string, error) {
	return m.registerFunc(ctx, input)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.Session, *model.UserProfile, error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) Logout(ctx context.Context, sess *model.Session) error {
	return m.logoutFunc(ctx, sess)
}

func (m *mockAuthService) Profile(ctx context.Context, sess *model.Session) (*model.UserProfile, error) {
	return m.profileFunc(ctx, sess)
}

func (m *mockAuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	return m.forgotPasswordFunc(ctx, email)
}

func (m *mockAuthService) ResetPassword(ctx context.Context, sess *model.Session, password string) (string, error) {
	return m.resetPasswordFunc(ctx, sess, password)
}

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		CookieDomain:  "",
		CookieSecure:  false,
		SessionMaxAge: 3600,
	}
}

// sessionRequest はセッションをコンテキストに積んだリクエストを作る。
func sessionRequest(method, target, body string, sess *model.Session) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if sess != nil {
		req = req.WithContext(middleware.ContextWithSession(req.Context(), sess))
	}
	return req
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestAuthHandler_Login_SetsSessionCookie(t *testing.T) {
	service := &mockAuthService{
		loginFunc: func(ctx context.Context, email, password string) (*model.Session, *model.UserProfile, error) {
			if email != "taro@example.com" {
				t.Errorf("email = %s", email)
			}
			return &model.Session{ID: "sess-123", UserID: "user-1"},
				&model.UserProfile{ID: "user-1", Email: email}, nil
		},
	}
	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"taro@example.com","password":"Secret123!"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	cookie := findCookie(t, rec, "session_id")
	if cookie.Value != "sess-123" {
		t.Errorf("cookie value = %s, want sess-123", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", cookie.SameSite)
	}

	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.User == nil || resp.User.ID != "user-1" {
		t.Errorf("user = %+v", resp.User)
	}
}

// トークンの組がレスポンスボディに漏れていないことを確認する。
func TestAuthHandler_Login_DoesNotLeakTokens(t *testing.T) {
	service := &mockAuthService{
		loginFunc: func(ctx context.Context, email, password string) (*model.Session, *model.UserProfile, error) {
			return &model.Session{
				ID:           "sess-123",
				AccessToken:  "top-secret-access",
				RefreshToken: "top-secret-refresh",
			}, &model.UserProfile{ID: "user-1"}, nil
		},
	}
	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"a@b.co","password":"x"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	body := rec.Body.String()
	if strings.Contains(body, "top-secret-access") || strings.Contains(body, "top-secret-refresh") {
		t.Errorf("tokens leaked in response body: %s", body)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	service := &mockAuthService{
		loginFunc: func(ctx context.Context, email, password string) (*model.Session, *model.UserProfile, error) {
			return nil, nil, model.NewInvalidCredentialsError("Invalid email or password")
		},
	}
	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"a@b.co","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	var errBody middleware.ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody.Message != "Invalid email or password" {
		t.Errorf("message = %s, want upstream message passthrough", errBody.Message)
	}
}

func TestAuthHandler_Login_MalformedBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAuthHandler_Register_Created(t *testing.T) {
	var got *auth.RegisterInput
	service := &mockAuthService{
		registerFunc: func(ctx context.Context, input *auth.RegisterInput) (string, error) {
			got = input
			return "Registration successful", nil
		},
	}
	h := NewAuthHandler(service, testAuthConfig())

	body := `{"firstName":"Taro","lastName":"Yamada","email":"taro@example.com","phone":"09012345678","dateOfBirth":"1990-04-01","password":"Secret123!"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if got == nil || got.Email != "taro@example.com" || got.FirstName != "Taro" {
		t.Errorf("input = %+v", got)
	}
}

func TestAuthHandler_Register_ValidationError(t *testing.T) {
	service := &mockAuthService{
		registerFunc: func(ctx context.Context, input *auth.RegisterInput) (string, error) {
			return "", model.NewValidationError("email", "メールアドレスの形式が不正です。")
		},
	}
	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"bad"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	var errBody middleware.ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody.Field != "email" {
		t.Errorf("field = %s, want email", errBody.Field)
	}
}

func TestAuthHandler_Logout_ExpiresCookie(t *testing.T) {
	service := &mockAuthService{
		logoutFunc: func(ctx context.Context, sess *model.Session) error {
			return nil
		},
	}
	h := NewAuthHandler(service, testAuthConfig())

	sess := &model.Session{ID: "sess-123", UserID: "user-1"}
	rec := httptest.NewRecorder()
	h.Logout(rec, sessionRequest(http.MethodPost, "/auth/logout", "", sess))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	cookie := findCookie(t, rec, "session_id")
	if cookie.MaxAge != -1 {
		t.Errorf("MaxAge = %d, want -1", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Errorf("value = %s, want empty", cookie.Value)
	}
}

func TestAuthHandler_Logout_WithoutSession(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	service := &mockAuthService{
		profileFunc: func(ctx context.Context, sess *model.Session) (*model.UserProfile, error) {
			return &model.UserProfile{ID: sess.UserID, Email: "taro@example.com"}, nil
		},
	}
	h := NewAuthHandler(service, testAuthConfig())

	sess := &model.Session{ID: "sess-123", UserID: "user-1", AccessToken: "tok"}
	rec := httptest.NewRecorder()
	h.Me(rec, sessionRequest(http.MethodGet, "/api/users/me", "", sess))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var profile model.UserProfile
	if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.ID != "user-1" {
		t.Errorf("id = %s, want user-1", profile.ID)
	}
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	service := &mockAuthService{
		forgotPasswordFunc: func(ctx context.Context, email string) (string, error) {
			return "Reset email sent", nil
		},
	}
	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/forgot-password",
		strings.NewReader(`{"email":"taro@example.com"}`))
	rec := httptest.NewRecorder()
	h.ForgotPassword(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp messageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Reset email sent" {
		t.Errorf("message = %s", resp.Message)
	}
}

func TestAuthHandler_ResetPassword_RequiresSession(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/reset-password",
		strings.NewReader(`{"password":"NewSecret123!"}`))
	rec := httptest.NewRecorder()
	h.ResetPassword(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
