// Package auth はアカウント管理（登録・ログイン・ログアウト）のドメインロジックを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
	"github.com/hitoshi/taskman/internal/session"
)

// ServiceConfig はアカウントサービスの設定。
type ServiceConfig struct {
	BcryptCost int // bcryptのコストパラメータ
}

// Service はアカウント管理のビジネスロジックを提供する。
// パスワードの検証はログイン時のみ行い、以後のリクエストの認証は
// セッションレジストリへの所属確認（認証ゲート）に委ねる。
type Service struct {
	userRepo repository.UserRepository
	registry session.Registry
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, registry session.Registry, config ServiceConfig) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo: userRepo,
		registry: registry,
		config:   config,
	}
}

// Register は新規ユーザーを登録し、ユーザーIDを返す。
// メールアドレス、ユーザー名の順で重複を確認し、重複があればConflictエラーを返す。
// パスワードはbcryptでソルト付きハッシュ化して保存する。
func (s *Service) Register(ctx context.Context, username, email, password string) (string, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return "", model.NewEmailTakenError()
	}

	existing, err = s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return "", model.NewUsernameTakenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	// 事前チェックと挿入の間の同時登録はリポジトリが一意制約違反として検出し、
	// 同じConflictエラーに写像する。
	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", err
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", username),
	)

	return user.ID, nil
}

// Login は資格情報を検証し、成功時にユーザーIDをセッションレジストリへ登録して返す。
// ユーザー不在とパスワード不一致は区別せず、同一のInvalidCredentialsエラーを返す。
// 失敗時にレジストリの状態は変化しない。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", model.NewInvalidCredentialsError()
		}
		return "", fmt.Errorf("failed to verify password: %w", err)
	}

	if err := s.registry.Add(ctx, user.ID); err != nil {
		return "", fmt.Errorf("failed to register session: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return user.ID, nil
}

// Logout はユーザーIDをセッションレジストリから削除する。
// 認証済みの呼び出しに対しては常に成功する（未登録IDの削除はno-op）。
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.registry.Remove(ctx, userID); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}

	slog.Info("user logged out", slog.String("user_id", userID))
	return nil
}

// Dashboard は認証済みユーザーの情報を返す。副作用はない。
func (s *Service) Dashboard(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}
