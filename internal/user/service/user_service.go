package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ridloal/toko-storefront/internal/platform/auth"
	"github.com/ridloal/toko-storefront/internal/platform/logger"
	"github.com/ridloal/toko-storefront/internal/user/domain"
	"github.com/ridloal/toko-storefront/internal/user/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email/phone or password")
	ErrUserAlreadyExists  = errors.New("user with this email or phone number already exists")
	ErrAdminNotConfigured = errors.New("admin email and password must both be set")
)

type UserService interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	EnsureAdmin(ctx context.Context, email, password, phone string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	SetAdmin(ctx context.Context, id int64, isAdmin bool) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
	IsAdmin(ctx context.Context, id int64) (bool, error)
}

type userService struct {
	repo   repository.UserRepository
	tokens *auth.Tokens
}

func NewUserService(repo repository.UserRepository, tokens *auth.Tokens) UserService {
	return &userService{repo: repo, tokens: tokens}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	if req.PhoneNumber != nil {
		*req.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	return s.create(ctx, req.Email, req.PhoneNumber, req.Password, false)
}

func (s *userService) create(ctx context.Context, email string, phone *string, password string, isAdmin bool) (*domain.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Register: failed to hash password", err)
		return nil, fmt.Errorf("could not process registration: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PhoneNumber:  phone,
		PasswordHash: string(hashedPassword),
		IsAdmin:      isAdmin,
	}

	err = s.repo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrUserConflict) {
			return nil, ErrUserAlreadyExists
		}
		logger.Error("Register: failed to create user in repo", err)
		return nil, fmt.Errorf("could not save user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Identifier = strings.TrimSpace(req.Identifier)

	user, err := s.repo.GetUserByIdentifier(ctx, req.Identifier)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			logger.Error("Login: failed to get user by identifier", err)
		}
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		logger.Error("Login: failed to sign token", err)
		return nil, fmt.Errorf("could not generate token: %w", err)
	}

	user.PasswordHash = ""
	return &domain.LoginResponse{
		User:  *user,
		Token: token,
	}, nil
}

// EnsureAdmin creates the configured administrator, or promotes the account
// if it already exists. The stored password of an existing account is left alone.
func (s *userService) EnsureAdmin(ctx context.Context, email, password, phone string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrAdminNotConfigured
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsAdmin {
			if err := s.repo.SetAdmin(ctx, existing.ID, true); err != nil {
				return nil, fmt.Errorf("could not promote %s: %w", email, err)
			}
			existing.IsAdmin = true
			logger.Info("EnsureAdmin: promoted existing user %s", email)
		}
		existing.PasswordHash = ""
		return existing, nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, fmt.Errorf("could not look up admin: %w", err)
	}

	var phonePtr *string
	if phone = strings.TrimSpace(phone); phone != "" {
		phonePtr = &phone
	}
	user, err := s.create(ctx, email, phonePtr, password, true)
	if err != nil {
		return nil, err
	}
	logger.Info("EnsureAdmin: created admin user %s", email)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list users: %w", err)
	}
	return users, nil
}

func (s *userService) SetAdmin(ctx context.Context, id int64, isAdmin bool) (*domain.User, error) {
	if err := s.repo.SetAdmin(ctx, id, isAdmin); err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}

// IsAdmin reads the flag from storage. A deleted account is simply not an admin.
func (s *userService) IsAdmin(ctx context.Context, id int64) (bool, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}
