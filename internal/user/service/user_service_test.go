package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ridloal/toko-storefront/internal/platform/auth"
	"github.com/ridloal/toko-storefront/internal/user/domain"
	"github.com/ridloal/toko-storefront/internal/user/repository"
	"github.com/ridloal/toko-storefront/internal/user/repository/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTokens() *auth.Tokens {
	return auth.NewTokens("test-secret", 72*time.Hour)
}

func TestUserService_Register(t *testing.T) {
	mockRepo := new(mocks.MockUserRepository)
	userServiceInstance := NewUserService(mockRepo, newTokens())

	ctx := context.TODO()
	registerReq := domain.RegisterRequest{
		Email:    "  Test@Example.com ",
		Password: "password123",
	}

	t.Run("Successful registration", func(t *testing.T) {
		mockRepo.On("CreateUser", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "test@example.com" && !u.IsAdmin &&
				bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
		})).Return(nil).Once()

		user, err := userServiceInstance.Register(ctx, registerReq)

		assert.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "test@example.com", user.Email)
		assert.Equal(t, int64(11), user.ID)
		assert.Empty(t, user.PasswordHash)
		mockRepo.AssertExpectations(t)
	})

	t.Run("User already exists", func(t *testing.T) {
		mockRepo.On("CreateUser", ctx, mock.AnythingOfType("*domain.User")).Return(repository.ErrUserConflict).Once()

		user, err := userServiceInstance.Register(ctx, registerReq)

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Repository error on CreateUser", func(t *testing.T) {
		mockRepo.On("CreateUser", ctx, mock.AnythingOfType("*domain.User")).Return(errors.New("database error")).Once()

		user, err := userServiceInstance.Register(ctx, registerReq)

		assert.Nil(t, user)
		assert.Contains(t, err.Error(), "could not save user")
		mockRepo.AssertExpectations(t)
	})
}

func TestUserService_Login(t *testing.T) {
	mockRepo := new(mocks.MockUserRepository)
	tokens := newTokens()
	userServiceInstance := NewUserService(mockRepo, tokens)
	ctx := context.TODO()

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	storedUser := func() *domain.User {
		return &domain.User{ID: 5, Email: "test@example.com", PasswordHash: string(hashedPassword), IsAdmin: true}
	}

	loginReq := domain.LoginRequest{Identifier: "test@example.com", Password: "password123"}

	t.Run("Successful login", func(t *testing.T) {
		mockRepo.On("GetUserByIdentifier", ctx, loginReq.Identifier).Return(storedUser(), nil).Once()

		resp, err := userServiceInstance.Login(ctx, loginReq)

		require.NoError(t, err)
		assert.Equal(t, int64(5), resp.User.ID)
		assert.Empty(t, resp.User.PasswordHash)

		claims, err := tokens.Parse(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(5), claims.UserID)
		assert.True(t, claims.IsAdmin)
		mockRepo.AssertExpectations(t)
	})

	t.Run("User not found", func(t *testing.T) {
		mockRepo.On("GetUserByIdentifier", ctx, loginReq.Identifier).Return(nil, repository.ErrUserNotFound).Once()

		resp, err := userServiceInstance.Login(ctx, loginReq)

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Incorrect password", func(t *testing.T) {
		mockRepo.On("GetUserByIdentifier", ctx, loginReq.Identifier).Return(storedUser(), nil).Once()

		resp, err := userServiceInstance.Login(ctx, domain.LoginRequest{Identifier: "test@example.com", Password: "wrongpassword"})

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Repository error on GetUserByIdentifier", func(t *testing.T) {
		mockRepo.On("GetUserByIdentifier", ctx, loginReq.Identifier).Return(nil, errors.New("some db error")).Once()

		resp, err := userServiceInstance.Login(ctx, loginReq)

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserService_EnsureAdmin(t *testing.T) {
	ctx := context.TODO()

	t.Run("Creates missing admin", func(t *testing.T) {
		mockRepo := new(mocks.MockUserRepository)
		svc := NewUserService(mockRepo, newTokens())
		mockRepo.On("GetUserByEmail", ctx, "admin@toko.id").Return(nil, repository.ErrUserNotFound).Once()
		mockRepo.On("CreateUser", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.IsAdmin && u.PhoneNumber != nil && *u.PhoneNumber == "0800"
		})).Return(nil).Once()

		user, err := svc.EnsureAdmin(ctx, "Admin@Toko.id", "s3cret-pass", "0800")

		require.NoError(t, err)
		assert.True(t, user.IsAdmin)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Promotes existing user", func(t *testing.T) {
		mockRepo := new(mocks.MockUserRepository)
		svc := NewUserService(mockRepo, newTokens())
		mockRepo.On("GetUserByEmail", ctx, "admin@toko.id").Return(&domain.User{ID: 3, Email: "admin@toko.id"}, nil).Once()
		mockRepo.On("SetAdmin", ctx, int64(3), true).Return(nil).Once()

		user, err := svc.EnsureAdmin(ctx, "admin@toko.id", "whatever", "")

		require.NoError(t, err)
		assert.True(t, user.IsAdmin)
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Already admin is a no-op", func(t *testing.T) {
		mockRepo := new(mocks.MockUserRepository)
		svc := NewUserService(mockRepo, newTokens())
		mockRepo.On("GetUserByEmail", ctx, "admin@toko.id").Return(&domain.User{ID: 3, IsAdmin: true}, nil).Once()

		_, err := svc.EnsureAdmin(ctx, "admin@toko.id", "whatever", "")

		require.NoError(t, err)
		mockRepo.AssertNotCalled(t, "SetAdmin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing configuration", func(t *testing.T) {
		svc := NewUserService(new(mocks.MockUserRepository), newTokens())

		_, err := svc.EnsureAdmin(ctx, "", "", "")

		assert.ErrorIs(t, err, ErrAdminNotConfigured)
	})
}

func TestUserService_SetAdmin(t *testing.T) {
	ctx := context.TODO()
	mockRepo := new(mocks.MockUserRepository)
	svc := NewUserService(mockRepo, newTokens())

	mockRepo.On("SetAdmin", ctx, int64(8), false).Return(nil).Once()
	mockRepo.On("GetUserByID", ctx, int64(8)).Return(&domain.User{ID: 8, PasswordHash: "x"}, nil).Once()

	user, err := svc.SetAdmin(ctx, 8, false)

	require.NoError(t, err)
	assert.False(t, user.IsAdmin)
	assert.Empty(t, user.PasswordHash)

	mockRepo.On("SetAdmin", ctx, int64(99), true).Return(repository.ErrUserNotFound).Once()
	_, err = svc.SetAdmin(ctx, 99, true)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserService_IsAdmin(t *testing.T) {
	ctx := context.TODO()
	mockRepo := new(mocks.MockUserRepository)
	svc := NewUserService(mockRepo, newTokens())

	mockRepo.On("GetUserByID", ctx, int64(1)).Return(&domain.User{ID: 1, IsAdmin: true}, nil).Once()
	mockRepo.On("GetUserByID", ctx, int64(2)).Return(nil, repository.ErrUserNotFound).Once()
	mockRepo.On("GetUserByID", ctx, int64(3)).Return(nil, errors.New("db down")).Once()

	ok, err := svc.IsAdmin(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAdmin(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.IsAdmin(ctx, 3)
	assert.Error(t, err)
}
