package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanedge/user-management-api/internal/queue"
	"github.com/sanedge/user-management-api/internal/repository"
	"github.com/sanedge/user-management-api/internal/service"
)

// UserHandler exposes the user CRUD and soft-delete lifecycle.
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(u *service.UserService) *UserHandler { return &UserHandler{Users: u} }

type createUserReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type updateUserReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// listInput extracts search/page/page_size query parameters.
func listInput(c echo.Context) service.ListInput {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	return service.ListInput{Search: c.QueryParam("search"), Page: page, PageSize: size}
}

// listFilter maps the status query parameter onto a repository filter.
// Active rows are the default view.
func listFilter(c echo.Context) repository.ListFilter {
	switch c.QueryParam("status") {
	case "trashed":
		return repository.FilterTrashed
	case "all":
		return repository.FilterAll
	}
	return repository.FilterActive
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// List: GET /v1/users?status=active|trashed|all&search=&page=&page_size=
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, meta, err := h.Users.List(ctx, listInput(c), listFilter(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to fetch users")
	}
	return respondPage(c, "users fetched", users, meta)
}

// GetByID: GET /v1/users/:id (cache-aside read).
func (h *UserHandler) GetByID(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to fetch user")
	}
	return respond(c, http.StatusOK, "user fetched", u)
}

// Create: POST /v1/users
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email/password required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, service.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			return fail(c, http.StatusConflict, "email already exists")
		}
		return fail(c, http.StatusInternalServerError, "failed to create user")
	}
	return respond(c, http.StatusCreated, "user created", u)
}

// Update: POST /v1/users/:id
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Update(ctx, id, service.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return fail(c, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrEmailExists):
			return fail(c, http.StatusConflict, "email already exists")
		}
		return fail(c, http.StatusInternalServerError, "failed to update user")
	}
	return respond(c, http.StatusOK, "user updated", u)
}

// Trash: POST /v1/users/trashed/:id (soft delete)
func (h *UserHandler) Trash(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Trash(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to trash user")
	}
	_ = queue.PublishUserEvent(ctx, queue.UserEvent{
		Kind:       queue.UserTrashed,
		UserID:     u.ID,
		Email:      u.Email,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return respond(c, http.StatusOK, "user trashed", u)
}

// Restore: POST /v1/users/restore/:id
func (h *UserHandler) Restore(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Restore(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to restore user")
	}
	return respond(c, http.StatusOK, "user restored", u)
}

// ListRoles: GET /v1/users/:id/roles
func (h *UserHandler) ListRoles(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	links, err := h.Users.ListRoles(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to fetch user roles")
	}
	return respond(c, http.StatusOK, "user roles fetched", links)
}

// AssignRole: POST /v1/users/:id/roles/:role_id
func (h *UserHandler) AssignRole(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	roleID, err := strconv.ParseUint(c.Param("role_id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid role id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.AssignRole(ctx, id, roleID); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return fail(c, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrRoleNotFound):
			return fail(c, http.StatusNotFound, "role not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to assign role")
	}
	return respond(c, http.StatusOK, "role assigned", nil)
}

// RemoveRole: DELETE /v1/users/:id/roles/:role_id
func (h *UserHandler) RemoveRole(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	roleID, err := strconv.ParseUint(c.Param("role_id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid role id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.RemoveRole(ctx, id, roleID); err != nil {
		if errors.Is(err, service.ErrRoleNotAssigned) {
			return fail(c, http.StatusNotFound, "role not assigned")
		}
		return fail(c, http.StatusInternalServerError, "failed to remove role")
	}
	return respond(c, http.StatusOK, "role removed", nil)
}

// HardDelete: DELETE /v1/users/:id (permanent)
func (h *UserHandler) HardDelete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.HardDelete(ctx, id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to delete user")
	}
	_ = queue.PublishUserEvent(ctx, queue.UserEvent{
		Kind:       queue.UserDeleted,
		UserID:     id,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return respond(c, http.StatusOK, "user deleted", nil)
}
