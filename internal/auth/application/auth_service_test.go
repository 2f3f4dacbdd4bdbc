package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wyfcoding/quickcart/internal/auth/domain"
)

type stubUserRepo struct {
	byUsername map[string]*domain.User
	byEmail    map[string]*domain.User
	saved      []*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byUsername: map[string]*domain.User{},
		byEmail:    map[string]*domain.User{},
	}
}

func (s *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.byUsername[username], nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.byEmail[email], nil
}

func (s *stubUserRepo) Save(_ context.Context, user *domain.User) error {
	s.byUsername[user.Username] = user
	s.byEmail[user.Email] = user
	s.saved = append(s.saved, user)
	return nil
}

func TestRegister(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo)

	err := svc.Register(context.Background(), RegisterCommand{
		Username: "alice", Email: "alice@example.com", Password: "s3cret",
	})

	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	user := repo.saved[0]
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "s3cret", user.PasswordHash, "password must never be stored in clear")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo)
	require.NoError(t, svc.Register(context.Background(), RegisterCommand{
		Username: "alice", Email: "alice@example.com", Password: "s3cret",
	}))

	err := svc.Register(context.Background(), RegisterCommand{
		Username: "alice", Email: "other@example.com", Password: "s3cret",
	})

	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
	assert.Len(t, repo.saved, 1)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo)
	require.NoError(t, svc.Register(context.Background(), RegisterCommand{
		Username: "alice", Email: "alice@example.com", Password: "s3cret",
	}))

	err := svc.Register(context.Background(), RegisterCommand{
		Username: "bob", Email: "alice@example.com", Password: "s3cret",
	})

	assert.ErrorIs(t, err, domain.ErrEmailInUse)
}

func TestRegister_MissingFields(t *testing.T) {
	svc := NewAuthService(newStubUserRepo())

	assert.Error(t, svc.Register(context.Background(), RegisterCommand{Username: "", Email: "a@b.c", Password: "x"}))
	assert.Error(t, svc.Register(context.Background(), RegisterCommand{Username: "a", Email: "", Password: "x"}))
	assert.Error(t, svc.Register(context.Background(), RegisterCommand{Username: "a", Email: "a@b.c", Password: ""}))
}

func TestLogin(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo)
	require.NoError(t, svc.Register(context.Background(), RegisterCommand{
		Username: "alice", Email: "alice@example.com", Password: "s3cret",
	}))

	username, err := svc.Login(context.Background(), LoginCommand{Username: "alice", Password: "s3cret"})

	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo)
	require.NoError(t, svc.Register(context.Background(), RegisterCommand{
		Username: "alice", Email: "alice@example.com", Password: "s3cret",
	}))

	_, err := svc.Login(context.Background(), LoginCommand{Username: "alice", Password: "wrong"})

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := NewAuthService(newStubUserRepo())

	_, err := svc.Login(context.Background(), LoginCommand{Username: "ghost", Password: "x"})

	// 未知用户和错误密码返回同一个错误
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
