package model

import "time"

// Task はユーザーが所有するタスクを表す。
// 所有者（UserID）は作成時に決まり、以後変更されない。
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch はタスクの部分更新を表す。
// nilのフィールドは変更せず、既存の値を維持する。
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}
