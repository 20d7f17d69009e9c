// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
)

// AccountServiceInterface はアカウントハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	// Register は新規ユーザーを登録し、ユーザーIDを返す。
	Register(ctx context.Context, username, email, password string) (string, error)
	// Login は資格情報を検証し、セッションを開始してユーザーIDを返す。
	Login(ctx context.Context, email, password string) (string, error)
	// Logout はユーザーのセッションを終了する。
	Logout(ctx context.Context, userID string) error
	// Dashboard は認証済みユーザーの情報を返す。
	Dashboard(ctx context.Context, userID string) (*model.User, error)
}

// AuthMetrics は認証系メトリクスの記録インターフェース。
// metrics.Collectorの部分集合として定義する。nilの場合は記録しない。
type AuthMetrics interface {
	RecordRegistration()
	RecordLogin()
	RecordLoginFailure()
}

// AuthHandler はアカウント管理のHTTPハンドラー。
type AuthHandler struct {
	service AccountServiceInterface
	metrics AuthMetrics
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AccountServiceInterface, metrics AuthMetrics) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: metrics,
	}
}

// --- リクエスト/レスポンス型 ---

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// accountResponse はユーザーID付きの確認メッセージレスポンス。
type accountResponse struct {
	Msg    string `json:"msg"`
	UserID string `json:"userId,omitempty"`
}

// Register は新規ユーザー登録を処理する。
// POST /users/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	userID, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRegistration()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(accountResponse{
		Msg:    "ユーザー登録が完了しました。",
		UserID: userID,
	})
}

// Login はログインを処理する。
// POST /users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	userID, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordLoginFailure()
		}
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLogin()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountResponse{
		Msg:    "ログインしました。",
		UserID: userID,
	})
}

// Logout はログアウトを処理する。
// POST /users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountResponse{
		Msg: "ログアウトしました。",
	})
}

// Dashboard は認証済みユーザーの確認情報を返す。副作用はない。
// GET /users/dashboard
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.Dashboard(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountResponse{
		Msg: fmt.Sprintf("ようこそ、%s さんのダッシュボードへ。", user.Username),
	})
}
