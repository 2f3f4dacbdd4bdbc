package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/quickcart/internal/auth/application"
	"github.com/wyfcoding/quickcart/internal/auth/domain"
)

type memUserRepo struct {
	byUsername map[string]*domain.User
	byEmail    map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byUsername: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.byUsername[username], nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.byEmail[email], nil
}

func (r *memUserRepo) Save(_ context.Context, user *domain.User) error {
	r.byUsername[user.Username] = user
	r.byEmail[user.Email] = user
	return nil
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(application.NewAuthService(newMemUserRepo())).RegisterRoutes(router.Group("/api"))
	return router
}

func post(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	router := newAuthRouter()

	w := post(router, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"s3cret"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "User registered successfully!")
}

func TestRegisterEndpoint_DuplicateUsername(t *testing.T) {
	router := newAuthRouter()
	require.Equal(t, http.StatusOK, post(router, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"s3cret"}`).Code)

	w := post(router, "/api/auth/register",
		`{"username":"alice","email":"other@example.com","password":"s3cret"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error: Username is already taken!")
}

func TestRegisterEndpoint_DuplicateEmail(t *testing.T) {
	router := newAuthRouter()
	require.Equal(t, http.StatusOK, post(router, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"s3cret"}`).Code)

	w := post(router, "/api/auth/register",
		`{"username":"bob","email":"alice@example.com","password":"s3cret"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error: Email is already in use!")
}

func TestLoginEndpoint(t *testing.T) {
	router := newAuthRouter()
	require.Equal(t, http.StatusOK, post(router, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"s3cret"}`).Code)

	w := post(router, "/api/auth/login", `{"username":"alice","password":"s3cret"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"Login successful"`)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	router := newAuthRouter()
	require.Equal(t, http.StatusOK, post(router, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"s3cret"}`).Code)

	for _, body := range []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"ghost","password":"s3cret"}`,
	} {
		w := post(router, "/api/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "body: %s", body)
		assert.Contains(t, w.Body.String(), "Invalid username or password!")
	}
}
