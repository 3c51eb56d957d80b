package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanedge/user-management-api/internal/cache"
	"github.com/sanedge/user-management-api/internal/middleware"
	"github.com/sanedge/user-management-api/internal/queue"
	"github.com/sanedge/user-management-api/internal/service"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler { return &AuthHandler{Auth: a} }

// ----- DTOs -----

type registerReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// userResp is the sanitized user payload; it never carries the hash.
type userResp struct {
	ID        uint64   `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	RoleNames []string `json:"role_names"`
}

// Register: create the user with the default role and return its identity.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email/password required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Auth.Register(ctx, service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			return fail(c, http.StatusConflict, "email already exists")
		}
		return fail(c, http.StatusInternalServerError, "failed to register user")
	}

	// Downstream consumers (audit log, notifications) learn about the new
	// account from the broker; a publish failure never fails the request.
	_ = queue.PublishUserEvent(ctx, queue.UserEvent{
		Kind:       queue.UserRegistered,
		UserID:     u.ID,
		Email:      u.Email,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return respond(c, http.StatusCreated, "user created", userResp{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		RoleNames: u.RoleNames(),
	})
}

// Login: verify credentials and return a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email/password required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return fail(c, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrInvalidCredentials):
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return fail(c, http.StatusInternalServerError, "login failed")
	}
	return respond(c, http.StatusOK, "login success", pair)
}

// Refresh: exchange a refresh token for a new access token, rotating the
// refresh token when it is close to expiry.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refresh_token required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken):
			return fail(c, http.StatusUnauthorized, "invalid or expired refresh token")
		case errors.Is(err, service.ErrUserNotFound):
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "refresh failed")
	}
	return respond(c, http.StatusOK, "token refreshed", pair)
}

// Logout: revoke all refresh tokens of the current user and drop the
// session. Never fails visibly; repeating it is a no-op.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == 0 {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	h.Auth.Logout(ctx, uid)
	return respond(c, http.StatusOK, "logged out", nil)
}

// Me: return the identity claims plus the cached session when present.
func (h *AuthHandler) Me(c echo.Context) error {
	uid := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	sess, err := h.Auth.CurrentSession(ctx, uid)
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		return fail(c, http.StatusInternalServerError, "failed to load session")
	}
	return respond(c, http.StatusOK, "me", echo.Map{
		"user_id":    uid,
		"email":      c.Get(middleware.CtxEmail),
		"role_names": c.Get(middleware.CtxRoleNames),
		"session":    sess, // nil when no snapshot is cached
	})
}
