package service

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/staylink/guestgate/internal/domain"
	"github.com/staylink/guestgate/internal/repository"
	"github.com/staylink/guestgate/pkg/auth"
	"github.com/staylink/guestgate/pkg/config"
)

// AuthService issues and re-validates sessions. All identity payloads
// leave through normalizeSession so callers see one session shape.
type AuthService interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.Session, string, error)
	// EstablishSession mints a session for an already-authenticated
	// user, e.g. right after registration.
	EstablishSession(user *domain.User) (*domain.Session, string, error)
	// SessionFromToken re-validates an existing session token.
	// ErrUnauthenticated is a normal logged-out state, not a fault.
	SessionFromToken(token string) (*domain.Session, error)
}

type authService struct {
	users  repository.UserRepository
	config *config.Config
}

func NewAuthService(users repository.UserRepository, config *config.Config) AuthService {
	return &authService{
		users:  users,
		config: config,
	}
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.Session, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, "", ErrInvalidCredentials
	}

	// The caller asserts the role it is logging into; a mismatch is a
	// distinct failure so the client can route to the right portal.
	if req.Role != "" && user.Role != req.Role {
		return nil, "", ErrRoleMismatch
	}

	return s.EstablishSession(user)
}

func (s *authService) EstablishSession(user *domain.User) (*domain.Session, string, error) {
	token, err := auth.NewSessionToken(
		user.ID,
		user.Email,
		user.Role,
		scopeForRole(user.Role),
		user.HotelID,
		s.config.Auth.JWTSecret,
		s.config.Auth.SessionTTL,
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	claims, err := auth.Parse(token, s.config.Auth.JWTSecret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse issued token: %w", err)
	}

	session := normalizeSession(claims)
	session.Name = user.Name
	return session, token, nil
}

func (s *authService) SessionFromToken(token string) (*domain.Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := auth.Parse(token, s.config.Auth.JWTSecret)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if !domain.IsValidRole(claims.Role) {
		return nil, ErrUnauthenticated
	}

	return normalizeSession(claims), nil
}

// normalizeSession is the single point where JWT claims become the
// session shape the rest of the system reads.
func normalizeSession(claims *auth.Claims) *domain.Session {
	return &domain.Session{
		UserID:    claims.Sub,
		Email:     claims.Email,
		Role:      claims.Role,
		HotelID:   claims.HotelID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
}

func scopeForRole(role string) string {
	switch role {
	case domain.RoleSuperAdmin:
		return "admin:read admin:write hotels:read hotels:write bookings:read bookings:write users:read users:write"
	case domain.RoleHotelAdmin:
		return "hotels:read hotels:write bookings:read bookings:write"
	case domain.RoleServiceProvider:
		return "bookings:read bookings:write"
	case domain.RoleGuest:
		return "bookings:read:self bookings:write:self"
	default:
		return ""
	}
}
