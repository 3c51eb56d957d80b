package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanedge/user-management-api/internal/service"
)

// RoleHandler exposes the role CRUD and soft-delete lifecycle.
type RoleHandler struct {
	Roles *service.RoleService
}

func NewRoleHandler(r *service.RoleService) *RoleHandler { return &RoleHandler{Roles: r} }

type roleReq struct {
	Name string `json:"name"`
}

// List: GET /v1/roles?status=active|trashed|all&search=&page=&page_size=
func (h *RoleHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	roles, meta, err := h.Roles.List(ctx, listInput(c), listFilter(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to fetch roles")
	}
	return respondPage(c, "roles fetched", roles, meta)
}

// GetByID: GET /v1/roles/:id (cache-aside read).
func (h *RoleHandler) GetByID(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrRoleNotFound) {
			return fail(c, http.StatusNotFound, "role not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to fetch role")
	}
	return respond(c, http.StatusOK, "role fetched", role)
}

// Create: POST /v1/roles
func (h *RoleHandler) Create(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return fail(c, http.StatusBadRequest, "name required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Roles.Create(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		if errors.Is(err, service.ErrRoleExists) {
			return fail(c, http.StatusConflict, "role name already exists")
		}
		return fail(c, http.StatusInternalServerError, "failed to create role")
	}
	return respond(c, http.StatusCreated, "role created", role)
}

// Update: POST /v1/roles/:id
func (h *RoleHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req roleReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return fail(c, http.StatusBadRequest, "name required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Roles.Update(ctx, id, strings.TrimSpace(req.Name))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoleNotFound):
			return fail(c, http.StatusNotFound, "role not found")
		case errors.Is(err, service.ErrRoleExists):
			return fail(c, http.StatusConflict, "role name already exists")
		}
		return fail(c, http.StatusInternalServerError, "failed to update role")
	}
	return respond(c, http.StatusOK, "role updated", role)
}

// Trash: POST /v1/roles/trashed/:id (soft delete)
func (h *RoleHandler) Trash(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Roles.Trash(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrRoleNotFound) {
			return fail(c, http.StatusNotFound, "role not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to trash role")
	}
	return respond(c, http.StatusOK, "role trashed", role)
}

// Restore: POST /v1/roles/restore/:id
func (h *RoleHandler) Restore(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Roles.Restore(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrRoleNotFound) {
			return fail(c, http.StatusNotFound, "role not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to restore role")
	}
	return respond(c, http.StatusOK, "role restored", role)
}

// HardDelete: DELETE /v1/roles/:id (permanent)
func (h *RoleHandler) HardDelete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Roles.HardDelete(ctx, id); err != nil {
		if errors.Is(err, service.ErrRoleNotFound) {
			return fail(c, http.StatusNotFound, "role not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to delete role")
	}
	return respond(c, http.StatusOK, "role deleted", nil)
}
