package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/sanedge/user-management-api/internal/auth"
	"github.com/sanedge/user-management-api/internal/cache"
	"github.com/sanedge/user-management-api/internal/model"
	"github.com/sanedge/user-management-api/internal/repository"
)

// Pagination describes one page of a listing response.
type Pagination struct {
	Page         int `json:"page"`
	PageSize     int `json:"page_size"`
	TotalPages   int `json:"total_pages"`
	TotalRecords int `json:"total_records"`
}

// ListInput carries the raw pagination/search parameters from the HTTP
// layer; normalize() applies the defaults.
type ListInput struct {
	Search   string
	Page     int
	PageSize int
}

func (in ListInput) normalize(filter repository.ListFilter) repository.ListQuery {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 {
		size = 10
	}
	return repository.ListQuery{Search: in.Search, Page: page, PageSize: size, Filter: filter}
}

func paginate(q repository.ListQuery, total int) Pagination {
	pages := int(math.Ceil(float64(total) / float64(q.PageSize)))
	return Pagination{Page: q.Page, PageSize: q.PageSize, TotalPages: pages, TotalRecords: total}
}

// CreateUserInput carries the fields for an admin-created user.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// UpdateUserInput carries the mutable profile fields.
type UpdateUserInput struct {
	FirstName string
	LastName  string
	Email     string
}

// UserService implements the user CRUD and soft-delete lifecycle with
// cache-aside reads over the user:<id> projection.
type UserService struct {
	users     UserStore
	roles     RoleStore
	userRoles UserRoleStore
	hasher    auth.Hasher
	sessions  *cache.SessionCache
}

func NewUserService(users UserStore, roles RoleStore, userRoles UserRoleStore, hasher auth.Hasher, sessions *cache.SessionCache) *UserService {
	return &UserService{users: users, roles: roles, userRoles: userRoles, hasher: hasher, sessions: sessions}
}

// List returns one page of users. Filter selects active, trashed or all
// rows.
func (s *UserService) List(ctx context.Context, in ListInput, filter repository.ListFilter) ([]model.User, Pagination, error) {
	q := in.normalize(filter)
	users, total, err := s.users.List(ctx, q)
	if err != nil {
		return nil, Pagination{}, err
	}
	return users, paginate(q, total), nil
}

// GetByID reads the user projection cache first and falls back to the
// database on a miss, repopulating the cache best-effort.
func (s *UserService) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	if u, err := s.sessions.ReadUser(ctx, id); err == nil {
		return u, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		// Transport-level cache trouble must not fail the read.
		log.Printf("user: cache read for user %d failed: %v", id, err)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := s.sessions.WriteUser(ctx, u); err != nil {
		log.Printf("user: failed to cache user %d: %v", id, err)
	}
	return u, nil
}

// Create persists a new user with a hashed password and attaches the
// default role, mirroring registration.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(ctx, in.FirstName, in.LastName, in.Email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	role, err := s.roles.GetByName(ctx, model.DefaultRoleName)
	if err != nil {
		return nil, fmt.Errorf("default role missing: %w", err)
	}
	if err := s.userRoles.Assign(ctx, u.ID, role.ID); err != nil {
		return nil, err
	}
	u.Roles = append(u.Roles, *role)
	log.Printf("user: created user %d (%s)", u.ID, u.Email)
	return u, nil
}

// Update changes the profile fields and invalidates the cached
// projection. Invalidation failures are logged, never surfaced.
func (s *UserService) Update(ctx context.Context, id uint64, in UpdateUserInput) (*model.User, error) {
	u, err := s.users.Update(ctx, id, in.FirstName, in.LastName, in.Email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrEmailExists
		}
		return nil, err
	}
	s.invalidate(ctx, id)
	return u, nil
}

// Trash soft-deletes the user and invalidates the projection.
func (s *UserService) Trash(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.Trash(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.invalidate(ctx, id)
	return u, nil
}

// Restore brings a trashed user back and invalidates the projection.
func (s *UserService) Restore(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.Restore(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.invalidate(ctx, id)
	return u, nil
}

// HardDelete removes the user permanently, evicting both the projection
// and any session snapshot.
func (s *UserService) HardDelete(ctx context.Context, id uint64) error {
	if err := s.users.HardDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.invalidate(ctx, id)
	if err := s.sessions.DeleteSession(ctx, id); err != nil {
		log.Printf("user: failed to drop session for deleted user %d: %v", id, err)
	}
	log.Printf("user: permanently deleted user %d", id)
	return nil
}

// AssignRole attaches a role to the user and invalidates the cached
// projection. Assigning an already-attached role is a no-op.
func (s *UserService) AssignRole(ctx context.Context, userID, roleID uint64) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	if err := s.userRoles.Assign(ctx, userID, roleID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	log.Printf("user: assigned role %d to user %d", roleID, userID)
	return nil
}

// RemoveRole detaches a live role assignment from the user and
// invalidates the cached projection.
func (s *UserService) RemoveRole(ctx context.Context, userID, roleID uint64) error {
	if err := s.userRoles.Remove(ctx, userID, roleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoleNotAssigned
		}
		return err
	}
	s.invalidate(ctx, userID)
	log.Printf("user: removed role %d from user %d", roleID, userID)
	return nil
}

// ListRoles returns the live role assignments of the user.
func (s *UserService) ListRoles(ctx context.Context, userID uint64) ([]model.UserRole, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.userRoles.ListByUser(ctx, userID)
}

func (s *UserService) invalidate(ctx context.Context, id uint64) {
	if err := s.sessions.InvalidateUser(ctx, id); err != nil {
		log.Printf("user: failed to invalidate cache for user %d: %v", id, err)
	}
}
