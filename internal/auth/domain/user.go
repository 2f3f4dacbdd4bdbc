package domain

import (
	"context"
	"errors"
)

var (
	ErrUsernameTaken      = errors.New("Error: Username is already taken!")
	ErrEmailInUse         = errors.New("Error: Email is already in use!")
	ErrInvalidCredentials = errors.New("Invalid username or password!")
)

// User 注册用户。PasswordHash 为 bcrypt 哈希，永不出现在响应中。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
}

// UserRepository 用户仓储接口。Find 未命中返回 (nil, nil)。
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
}
