package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/serenespa/membership/internal/domain"
	"github.com/serenespa/membership/internal/repository"
	"github.com/serenespa/membership/pkg/auth"
	"github.com/serenespa/membership/pkg/config"
)

// AuthGateway owns account creation and session issuance for the
// onboarding workflow.
type AuthGateway interface {
	CreateAccount(ctx context.Context, email, password, name string) (*domain.User, error)
	CreateSession(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
}

type authGateway struct {
	userRepo repository.UserRepository
	config   *config.Config
}

func NewAuthGateway(userRepo repository.UserRepository, config *config.Config) AuthGateway {
	return &authGateway{
		userRepo: userRepo,
		config:   config,
	}
}

func (g *authGateway) CreateAccount(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := domain.ValidateAccountInput(email, password, name); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	existing, err := g.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, &domain.ConflictError{Email: email}
	}

	passwordHash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := g.userRepo.Create(ctx, email, passwordHash, name, domain.RoleProvider)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (g *authGateway) CreateSession(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := g.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("invalid credentials")
	}

	accessToken, err := auth.NewAccessToken(
		user.ID,
		user.Email,
		user.Role,
		scopeFor(user.Role),
		g.config.Auth.JWTSecret,
		g.config.Auth.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := auth.NewAccessToken(
		user.ID,
		user.Email,
		"refresh",
		"refresh",
		g.config.Auth.JWTSecret,
		g.config.Auth.RefreshTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(g.config.Auth.AccessTokenTTL.Seconds()),
		User:         user.ToUserInfo(),
	}, nil
}

func scopeFor(role string) string {
	switch role {
	case domain.RoleAdmin:
		return "admin.payments:review admin.signups:manage admin.notifications:read"
	default:
		return "provider.signup:write provider.profile:write"
	}
}
