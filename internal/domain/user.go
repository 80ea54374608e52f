package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// User 持久化的用户记录；Password 永远是哈希值
type User struct {
	ID        string
	Email     string
	Password  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserPatch 部分更新；nil 字段保持不变
type UserPatch struct {
	Email    *string
	Password *string
}

func (p UserPatch) Empty() bool { return p.Email == nil && p.Password == nil }

// UserStore 持久化层；ID/CreatedAt/UpdatedAt 由存储层分配，email 唯一性由存储层约束保证。
// 失败时返回 *StoreError（见 errors.go）。
type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindAll(ctx context.Context) ([]User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	UpdateByID(ctx context.Context, id string, patch UserPatch) (*User, error)
	DeleteByID(ctx context.Context, id string) (*User, error)
}

// Hasher 单向密码变换；同一明文多次哈希结果可以不同（加盐）
type Hasher interface {
	Hash(ctx context.Context, plain string) (string, error)
}
