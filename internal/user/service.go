package user

import (
	"context"
	"errors"
	"time"

	"github.com/patrickrooney09/tiba-update-user/internal/auth"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type service struct {
	repo      Store
	revoked   *auth.RevocationStore
	jwtSecret string
}

// NewService wires the account service. The revocation store may be nil,
// in which case Logout is a no-op.
func NewService(repo Store, revoked *auth.RevocationStore, jwtSecret string) Service {
	return &service{
		repo:      repo,
		revoked:   revoked,
		jwtSecret: jwtSecret,
	}
}

// Register provisions a staff account. Unlike a public signup it returns no
// tokens, the new staffer logs in themselves.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = RoleStaff
	}

	return s.repo.Create(ctx, req.Name, req.Email, passwordHash, role)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(
		user.ID,
		user.Email,
		user.Role,
		s.jwtSecret,
		s.jwtSecret,
	)
	if err != nil {
		return nil, "", "", err
	}

	return user, accessToken, refreshToken, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}

	newAccessToken, err := auth.GenerateAccessToken(user.ID, user.Email, user.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, user, nil
}

// Logout revokes the current access token for its remaining lifetime.
func (s *service) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.revoked == nil {
		return nil
	}
	return s.revoked.Revoke(ctx, jti, time.Until(expiresAt))
}
