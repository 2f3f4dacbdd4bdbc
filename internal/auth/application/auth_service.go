package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wyfcoding/quickcart/internal/auth/domain"
	"github.com/wyfcoding/quickcart/pkg/logger"
)

// RegisterCommand 注册请求
type RegisterCommand struct {
	Username string
	Email    string
	Password string
}

// LoginCommand 登录请求
type LoginCommand struct {
	Username string
	Password string
}

// AuthService 注册登录用例。密码使用 bcrypt 哈希后存储。
type AuthService struct {
	users domain.UserRepository
}

func NewAuthService(users domain.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Register 创建新用户。用户名或邮箱重复时返回领域错误，错误文案即响应文案。
func (s *AuthService) Register(ctx context.Context, cmd RegisterCommand) error {
	username := strings.TrimSpace(cmd.Username)
	email := strings.TrimSpace(cmd.Email)
	if username == "" || email == "" || cmd.Password == "" {
		return fmt.Errorf("username, email and password are required")
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return domain.ErrUsernameTaken
	}

	existing, err = s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return domain.ErrEmailInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	logger.Info(ctx, "User registered", "username", username)
	return nil
}

// Login 校验凭据并返回用户名。用户不存在和密码错误返回同一个错误，不泄露差别。
func (s *AuthService) Login(ctx context.Context, cmd LoginCommand) (string, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(cmd.Username))
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return "", domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.Password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return user.Username, nil
}
