package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridloal/toko-storefront/internal/platform/auth"
	"github.com/ridloal/toko-storefront/internal/user/domain"
	"github.com/ridloal/toko-storefront/internal/user/repository"
	"github.com/ridloal/toko-storefront/internal/user/repository/mocks"
	"github.com/ridloal/toko-storefront/internal/user/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupRouter(repo *mocks.MockUserRepository, adminID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewUserHandler(service.NewUserService(repo, auth.NewTokens("secret", time.Hour)))
	v1 := r.Group("/api/v1")
	h.RegisterRoutes(v1)
	h.RegisterAdminRoutes(v1.Group("/admin", auth.WithUser(adminID, true)))
	return r
}

func send(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUserHandler_Register(t *testing.T) {
	repo := new(mocks.MockUserRepository)
	r := setupRouter(repo, 1)

	repo.On("CreateUser", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil).Once()
	w := send(r, http.MethodPost, "/api/v1/users/register", `{"email":"a@toko.id","password":"password123"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	repo.On("CreateUser", mock.Anything, mock.AnythingOfType("*domain.User")).Return(repository.ErrUserConflict).Once()
	w = send(r, http.MethodPost, "/api/v1/users/register", `{"email":"a@toko.id","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = send(r, http.MethodPost, "/api/v1/users/register", `{"email":"not-an-email","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandler_Login(t *testing.T) {
	repo := new(mocks.MockUserRepository)
	r := setupRouter(repo, 1)

	repo.On("GetUserByIdentifier", mock.Anything, "ghost@toko.id").Return(nil, repository.ErrUserNotFound).Once()
	w := send(r, http.MethodPost, "/api/v1/users/login", `{"identifier":"ghost@toko.id","password":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandler_Admin(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		repo := new(mocks.MockUserRepository)
		r := setupRouter(repo, 1)
		repo.On("ListUsers", mock.Anything).Return([]domain.User{{ID: 1, Email: "admin@toko.id", IsAdmin: true}}, nil).Once()

		w := send(r, http.MethodGet, "/api/v1/admin/users", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "admin@toko.id")
	})

	t.Run("Promote", func(t *testing.T) {
		repo := new(mocks.MockUserRepository)
		r := setupRouter(repo, 1)
		repo.On("SetAdmin", mock.Anything, int64(4), true).Return(nil).Once()
		repo.On("GetUserByID", mock.Anything, int64(4)).Return(&domain.User{ID: 4, IsAdmin: true}, nil).Once()

		w := send(r, http.MethodPut, "/api/v1/admin/users/4/admin", `{"is_admin":true}`)

		assert.Equal(t, http.StatusOK, w.Code)
		repo.AssertExpectations(t)
	})

	t.Run("Cannot demote self", func(t *testing.T) {
		repo := new(mocks.MockUserRepository)
		r := setupRouter(repo, 1)

		w := send(r, http.MethodPut, "/api/v1/admin/users/1/admin", `{"is_admin":false}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "SetAdmin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Delete missing", func(t *testing.T) {
		repo := new(mocks.MockUserRepository)
		r := setupRouter(repo, 1)
		repo.On("DeleteUser", mock.Anything, int64(9)).Return(repository.ErrUserNotFound).Once()

		w := send(r, http.MethodDelete, "/api/v1/admin/users/9", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Delete self", func(t *testing.T) {
		repo := new(mocks.MockUserRepository)
		r := setupRouter(repo, 1)

		w := send(r, http.MethodDelete, "/api/v1/admin/users/1", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

