package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
)

// --- モック定義 ---

type mockAccountService struct {
	registerFn  func(ctx context.Context, username, email, password string) (string, error)
	loginFn     func(ctx context.Context, email, password string) (string, error)
	logoutFn    func(ctx context.Context, userID string) error
	dashboardFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAccountService) Register(ctx context.Context, username, email, password string) (string, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, username, email, password)
	}
	return "", nil
}

func (m *mockAccountService) Login(ctx context.Context, email, password string) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return "", nil
}

func (m *mockAccountService) Logout(ctx context.Context, userID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, userID)
	}
	return nil
}

func (m *mockAccountService) Dashboard(ctx context.Context, userID string) (*model.User, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx, userID)
	}
	return nil, nil
}

type mockAuthMetrics struct {
	registrations int
	logins        int
	loginFailures int
}

func (m *mockAuthMetrics) RecordRegistration() { m.registrations++ }
func (m *mockAuthMetrics) RecordLogin()        { m.logins++ }
func (m *mockAuthMetrics) RecordLoginFailure() { m.loginFailures++ }

// decodeErrorBody は統一エラーフォーマットのレスポンスをデコードする。
func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) apiErrorResponse {
	t.Helper()
	var body apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

// --- テスト ---

func TestAuthHandler_Register_Success(t *testing.T) {
	svc := &mockAccountService{
		registerFn: func(ctx context.Context, username, email, password string) (string, error) {
			if username != "taro" || email != "taro@example.com" || password != "secret123" {
				t.Errorf("unexpected args: %s %s %s", username, email, password)
			}
			return "user-id-123", nil
		},
	}
	m := &mockAuthMetrics{}
	h := NewAuthHandler(svc, m)

	body := `{"username":"taro","email":"taro@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp accountResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserID != "user-id-123" {
		t.Errorf("userId = %q, want %q", resp.UserID, "user-id-123")
	}
	if resp.Msg == "" {
		t.Error("expected confirmation message")
	}
	if m.registrations != 1 {
		t.Errorf("registrations = %d, want 1", m.registrations)
	}
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	svc := &mockAccountService{
		registerFn: func(ctx context.Context, username, email, password string) (string, error) {
			return "", model.NewEmailTakenError()
		},
	}
	m := &mockAuthMetrics{}
	h := NewAuthHandler(svc, m)

	body := `{"username":"taro","email":"taken@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	errBody := decodeErrorBody(t, w)
	if errBody.Code != model.ErrCodeEmailTaken {
		t.Errorf("code = %q, want %q", errBody.Code, model.ErrCodeEmailTaken)
	}
	if m.registrations != 0 {
		t.Errorf("registrations = %d, want 0", m.registrations)
	}
}

func TestAuthHandler_Register_InvalidJSON(t *testing.T) {
	h := NewAuthHandler(&mockAccountService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader("{invalid"))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	errBody := decodeErrorBody(t, w)
	if errBody.Code != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", errBody.Code, model.ErrCodeInvalidRequest)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &mockAccountService{
		loginFn: func(ctx context.Context, email, password string) (string, error) {
			return "user-id-123", nil
		},
	}
	m := &mockAuthMetrics{}
	h := NewAuthHandler(svc, m)

	body := `{"email":"taro@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp accountResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserID != "user-id-123" {
		t.Errorf("userId = %q, want %q", resp.UserID, "user-id-123")
	}
	if m.logins != 1 {
		t.Errorf("logins = %d, want 1", m.logins)
	}
	if m.loginFailures != 0 {
		t.Errorf("loginFailures = %d, want 0", m.loginFailures)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAccountService{
		loginFn: func(ctx context.Context, email, password string) (string, error) {
			return "", model.NewInvalidCredentialsError()
		},
	}
	m := &mockAuthMetrics{}
	h := NewAuthHandler(svc, m)

	body := `{"email":"taro@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	errBody := decodeErrorBody(t, w)
	if errBody.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %q, want %q", errBody.Code, model.ErrCodeInvalidCredentials)
	}
	if m.loginFailures != 1 {
		t.Errorf("loginFailures = %d, want 1", m.loginFailures)
	}
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	var loggedOut string
	svc := &mockAccountService{
		logoutFn: func(ctx context.Context, userID string) error {
			loggedOut = userID
			return nil
		},
	}
	h := NewAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/users/logout", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-id-123"))
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if loggedOut != "user-id-123" {
		t.Errorf("logged out user = %q, want %q", loggedOut, "user-id-123")
	}
}

func TestAuthHandler_Logout_NoIdentity(t *testing.T) {
	h := NewAuthHandler(&mockAccountService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/users/logout", nil)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthHandler_Dashboard_Success(t *testing.T) {
	svc := &mockAccountService{
		dashboardFn: func(ctx context.Context, userID string) (*model.User, error) {
			return &model.User{ID: userID, Username: "taro"}, nil
		},
	}
	h := NewAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/dashboard", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-id-123"))
	w := httptest.NewRecorder()

	h.Dashboard(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp accountResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(resp.Msg, "taro") {
		t.Errorf("msg = %q, should contain username", resp.Msg)
	}
}

func TestAuthHandler_Dashboard_UserNotFound(t *testing.T) {
	svc := &mockAccountService{
		dashboardFn: func(ctx context.Context, userID string) (*model.User, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/dashboard", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "missing-user"))
	w := httptest.NewRecorder()

	h.Dashboard(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// 予期しないエラーは詳細を漏らさず一般的な内部エラーを返すこと。
func TestAuthHandler_Register_UnexpectedErrorIsOpaque(t *testing.T) {
	svc := &mockAccountService{
		registerFn: func(ctx context.Context, username, email, password string) (string, error) {
			return "", errors.New("pq: connection refused")
		},
	}
	h := NewAuthHandler(svc, nil)

	body := `{"username":"taro","email":"taro@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Error("internal error detail leaked to response body")
	}
}
