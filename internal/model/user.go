package model

import "time"

// User はサービス利用ユーザーを表す。
// 登録時に作成され、以後は変更されない（更新・削除の経路は存在しない）。
// UsernameとEmailはそれぞれグローバルに一意。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
