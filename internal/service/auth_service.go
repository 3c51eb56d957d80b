package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/sanedge/user-management-api/internal/auth"
	"github.com/sanedge/user-management-api/internal/cache"
	"github.com/sanedge/user-management-api/internal/model"
	"github.com/sanedge/user-management-api/internal/repository"
)

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterInput carries the fields of a registration request. Password
// is plaintext here and hashed before it touches persistence.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AuthService orchestrates login, registration, token refresh and
// logout across the user store, the rotation policy and the session
// cache.
type AuthService struct {
	users     UserStore
	roles     RoleStore
	userRoles UserRoleStore
	rotation  *auth.RotationPolicy
	issuer    *auth.Issuer
	hasher    auth.Hasher
	sessions  *cache.SessionCache
}

func NewAuthService(
	users UserStore,
	roles RoleStore,
	userRoles UserRoleStore,
	rotation *auth.RotationPolicy,
	issuer *auth.Issuer,
	hasher auth.Hasher,
	sessions *cache.SessionCache,
) *AuthService {
	return &AuthService{
		users:     users,
		roles:     roles,
		userRoles: userRoles,
		rotation:  rotation,
		issuer:    issuer,
		hasher:    hasher,
		sessions:  sessions,
	}
}

// Login verifies the credentials and issues a fresh token pair. After
// the password check succeeds, any failure in the token or session
// pipeline fails the whole call: the client never receives an access
// token without a durable refresh token and session behind it.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmailWithRoles(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	// Best-effort projection write; login must not depend on it.
	if err := s.sessions.WriteUser(ctx, u); err != nil {
		log.Printf("auth: failed to cache user %d: %v", u.ID, err)
	}

	access, _, err := s.issuer.IssueAccess(u)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	refresh, err := s.rotation.OnLogin(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	// The session write is on the critical path of login.
	session := model.Session{
		UserID:       u.ID,
		Email:        u.Email,
		AccessToken:  access,
		RefreshToken: refresh.Token,
		RoleNames:    u.RoleNames(),
	}
	if err := s.sessions.WriteSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh.Token}, nil
}

// Register hashes the password, persists the user and attaches the
// default role. The returned user never exposes the hash to callers
// serializing it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	u, err := s.users.Create(ctx, in.FirstName, in.LastName, email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			// Constraint violations are registration failures too, but
			// the email sentinel stays visible for the 409 mapping.
			return nil, fmt.Errorf("%w: %w", ErrRegistrationFailed, ErrEmailExists)
		}
		return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	role, err := s.roles.GetByName(ctx, model.DefaultRoleName)
	if err != nil {
		return nil, fmt.Errorf("%w: default role missing: %v", ErrRegistrationFailed, err)
	}
	if err := s.userRoles.Assign(ctx, u.ID, role.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	u.Roles = append(u.Roles, *role)

	log.Printf("auth: registered user %d (%s)", u.ID, u.Email)
	return u, nil
}

// Refresh applies the rotation policy to the presented token and issues
// a new access token. The session snapshot is refreshed whether or not
// the refresh token itself was rotated; that write is best-effort.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, rotated, err := s.rotation.OnRefresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	u, err := s.users.GetByIDWithRoles(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	access, _, err := s.issuer.IssueAccess(u)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	session := model.Session{
		UserID:       u.ID,
		Email:        u.Email,
		AccessToken:  access,
		RefreshToken: token.Token,
		RoleNames:    u.RoleNames(),
	}
	if err := s.sessions.WriteSession(ctx, session); err != nil {
		log.Printf("auth: failed to refresh session for user %d: %v", u.ID, err)
	}
	if rotated {
		log.Printf("auth: rotated refresh token for user %d", u.ID)
	}

	return &TokenPair{AccessToken: access, RefreshToken: token.Token}, nil
}

// Logout revokes every live refresh token of the user and drops the
// session snapshot. It never fails visibly: errors are logged and the
// call reports success, so repeating it is harmless.
func (s *AuthService) Logout(ctx context.Context, userID uint64) {
	if err := s.rotation.OnLogout(ctx, userID); err != nil {
		log.Printf("auth: failed to revoke tokens for user %d: %v", userID, err)
	}
	if err := s.sessions.DeleteSession(ctx, userID); err != nil {
		log.Printf("auth: failed to drop session for user %d: %v", userID, err)
	}
}

// CurrentSession returns the cached session snapshot, or cache.ErrMiss
// when none is registered. A miss is normal: sessions are expendable
// and the caller still holds a valid access token.
func (s *AuthService) CurrentSession(ctx context.Context, userID uint64) (*model.Session, error) {
	return s.sessions.ReadSession(ctx, userID)
}
