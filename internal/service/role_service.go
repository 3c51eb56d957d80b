package service

import (
	"context"
	"errors"
	"log"

	"github.com/sanedge/user-management-api/internal/cache"
	"github.com/sanedge/user-management-api/internal/model"
	"github.com/sanedge/user-management-api/internal/repository"
)

// RoleService implements the role CRUD and soft-delete lifecycle with
// cache-aside reads over the role:<id> projection.
type RoleService struct {
	roles    RoleStore
	sessions *cache.SessionCache
}

func NewRoleService(roles RoleStore, sessions *cache.SessionCache) *RoleService {
	return &RoleService{roles: roles, sessions: sessions}
}

// List returns one page of roles matching the filter.
func (s *RoleService) List(ctx context.Context, in ListInput, filter repository.ListFilter) ([]model.Role, Pagination, error) {
	q := in.normalize(filter)
	roles, total, err := s.roles.List(ctx, q)
	if err != nil {
		return nil, Pagination{}, err
	}
	return roles, paginate(q, total), nil
}

// GetByID reads the role projection cache first, falling back to the
// database and repopulating best-effort.
func (s *RoleService) GetByID(ctx context.Context, id uint64) (*model.Role, error) {
	if role, err := s.sessions.ReadRole(ctx, id); err == nil {
		return role, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("role: cache read for role %d failed: %v", id, err)
	}

	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	if err := s.sessions.WriteRole(ctx, role); err != nil {
		log.Printf("role: failed to cache role %d: %v", id, err)
	}
	return role, nil
}

// Create inserts a new role.
func (s *RoleService) Create(ctx context.Context, name string) (*model.Role, error) {
	role, err := s.roles.Create(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrRoleExists) {
			return nil, ErrRoleExists
		}
		return nil, err
	}
	log.Printf("role: created role %d (%s)", role.ID, role.Name)
	return role, nil
}

// Update renames the role and invalidates the cached projection.
func (s *RoleService) Update(ctx context.Context, id uint64, name string) (*model.Role, error) {
	role, err := s.roles.Update(ctx, id, name)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrRoleNotFound
		case errors.Is(err, repository.ErrRoleExists):
			return nil, ErrRoleExists
		}
		return nil, err
	}
	s.invalidate(ctx, id)
	return role, nil
}

// Trash soft-deletes the role and invalidates the projection.
func (s *RoleService) Trash(ctx context.Context, id uint64) (*model.Role, error) {
	role, err := s.roles.Trash(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	s.invalidate(ctx, id)
	return role, nil
}

// Restore brings a trashed role back and invalidates the projection.
func (s *RoleService) Restore(ctx context.Context, id uint64) (*model.Role, error) {
	role, err := s.roles.Restore(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	s.invalidate(ctx, id)
	return role, nil
}

// HardDelete removes the role permanently and evicts its projection.
func (s *RoleService) HardDelete(ctx context.Context, id uint64) error {
	if err := s.roles.HardDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	s.invalidate(ctx, id)
	log.Printf("role: permanently deleted role %d", id)
	return nil
}

func (s *RoleService) invalidate(ctx context.Context, id uint64) {
	if err := s.sessions.InvalidateRole(ctx, id); err != nil {
		log.Printf("role: failed to invalidate cache for role %d: %v", id, err)
	}
}
