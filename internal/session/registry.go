// Package session はログイン中ユーザーを追跡するセッションレジストリを提供する。
// セッションは永続エンティティではなく、レジストリへのユーザーIDの所属のみで表現される。
package session

import (
	"context"
	"sync"
)

// Registry はセッションレジストリのインターフェース。
// 認証ゲートはこのインターフェースのみに依存し、
// バックエンド（インメモリ / Redis）を差し替えても契約は変わらない。
type Registry interface {
	// Add はユーザーIDをログイン中として登録する。冪等。
	Add(ctx context.Context, userID string) error
	// Contains はユーザーIDがログイン中かどうかを返す。
	Contains(ctx context.Context, userID string) (bool, error)
	// Remove はユーザーIDをログアウト状態にする。冪等（未登録のIDを削除しても何も起きない）。
	Remove(ctx context.Context, userID string) error
}

// MemoryRegistry はプロセス内のインメモリセッションレジストリ。
// プロセス再起動で状態は失われる（受容済みの制約）。
// 複数リクエストからの同時アクセスに対して安全。
type MemoryRegistry struct {
	mu    sync.RWMutex
	users map[string]struct{}
}

// NewMemoryRegistry はMemoryRegistryを生成する。
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		users: make(map[string]struct{}),
	}
}

// Add はユーザーIDをログイン中として登録する。冪等。
func (r *MemoryRegistry) Add(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = struct{}{}
	return nil
}

// Contains はユーザーIDがログイン中かどうかを返す。
func (r *MemoryRegistry) Contains(ctx context.Context, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[userID]
	return ok, nil
}

// Remove はユーザーIDをログアウト状態にする。冪等。
func (r *MemoryRegistry) Remove(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, userID)
	return nil
}

// compile-time interface check
var _ Registry = (*MemoryRegistry)(nil)
