package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// defaultRedisKey はログイン中ユーザーIDを保持するRedis SETのキー。
const defaultRedisKey = "taskman:sessions"

// RedisRegistry はRedisのSETを使用したセッションレジストリ。
// 複数サーバーインスタンス間でログイン状態を共有でき、
// プロセス再起動でも状態が失われない。
type RedisRegistry struct {
	rdb *redis.Client
	key string
}

// NewRedisRegistry はRedisRegistryを生成する。
func NewRedisRegistry(rdb *redis.Client) *RedisRegistry {
	return &RedisRegistry{
		rdb: rdb,
		key: defaultRedisKey,
	}
}

// Add はユーザーIDをログイン中として登録する。SADDのため冪等。
func (r *RedisRegistry) Add(ctx context.Context, userID string) error {
	if err := r.rdb.SAdd(ctx, r.key, userID).Err(); err != nil {
		return fmt.Errorf("failed to add session member: %w", err)
	}
	return nil
}

// Contains はユーザーIDがログイン中かどうかを返す。
func (r *RedisRegistry) Contains(ctx context.Context, userID string) (bool, error) {
	ok, err := r.rdb.SIsMember(ctx, r.key, userID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session member: %w", err)
	}
	return ok, nil
}

// Remove はユーザーIDをログアウト状態にする。SREMのため冪等。
func (r *RedisRegistry) Remove(ctx context.Context, userID string) error {
	if err := r.rdb.SRem(ctx, r.key, userID).Err(); err != nil {
		return fmt.Errorf("failed to remove session member: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Registry = (*RedisRegistry)(nil)
