// Package task はタスク管理（所有権チェック付きCRUD）のドメインロジックを提供する。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// Service はタスク管理のサービス層。
// すべての操作は認証ゲートを通過済みの呼び出しユーザーIDを前提とする。
type Service struct {
	taskRepo repository.TaskRepository
}

// NewService はServiceを生成する。
func NewService(taskRepo repository.TaskRepository) *Service {
	return &Service{taskRepo: taskRepo}
}

// authorize はタスクIDを解決し、所有権を検証する共通の認可述語。
// Get/Update/Deleteはすべてこの1つの述語を通る。
// タスク不在（不正な形式のIDを含む）はTASK_NOT_FOUND、
// 所有者が呼び出しユーザーでない場合はTASK_FORBIDDENを返す。
func (s *Service) authorize(ctx context.Context, callerUserID, taskID string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	if task.UserID != callerUserID {
		return nil, model.NewTaskForbiddenError()
	}
	return task, nil
}

// List は呼び出しユーザーが所有する全タスクを作成日時の新しい順で返す。
func (s *Service) List(ctx context.Context, callerUserID string) ([]*model.Task, error) {
	tasks, err := s.taskRepo.ListByUserID(ctx, callerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Create は呼び出しユーザーを所有者とする新規タスクを作成して返す。
// completedはfalseで初期化される。
func (s *Service) Create(ctx context.Context, callerUserID, title, description string) (*model.Task, error) {
	now := time.Now()
	task := &model.Task{
		ID:          uuid.New().String(),
		UserID:      callerUserID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	slog.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("user_id", callerUserID),
	)

	return task, nil
}

// Get は指定タスクを返す。所有者以外の呼び出しは拒否される。
func (s *Service) Get(ctx context.Context, callerUserID, taskID string) (*model.Task, error) {
	return s.authorize(ctx, callerUserID, taskID)
}

// Update はタスクを部分更新して返す。
// patchのnilフィールドは変更せず、既存の値が維持される。
// 不在・所有権チェックは更新前のレコードに対して行う。
func (s *Service) Update(ctx context.Context, callerUserID, taskID string, patch model.TaskPatch) (*model.Task, error) {
	task, err := s.authorize(ctx, callerUserID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	task.UpdatedAt = time.Now()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// Delete はタスクを削除する。所有者以外の呼び出しは拒否される。
func (s *Service) Delete(ctx context.Context, callerUserID, taskID string) error {
	task, err := s.authorize(ctx, callerUserID, taskID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.DeleteByID(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	slog.Info("task deleted",
		slog.String("task_id", task.ID),
		slog.String("user_id", callerUserID),
	)

	return nil
}
