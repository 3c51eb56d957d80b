package service

import (
	"context"

	"github.com/sanedge/user-management-api/internal/model"
	"github.com/sanedge/user-management-api/internal/repository"
)

// UserStore is the persistence contract for users. *repository.UserRepo
// satisfies it; tests substitute in-memory fakes.
type UserStore interface {
	Create(ctx context.Context, firstName, lastName, email, passwordHash string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByIDWithRoles(ctx context.Context, id uint64) (*model.User, error)
	GetByEmailWithRoles(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, q repository.ListQuery) ([]model.User, int, error)
	Update(ctx context.Context, id uint64, firstName, lastName, email string) (*model.User, error)
	Trash(ctx context.Context, id uint64) (*model.User, error)
	Restore(ctx context.Context, id uint64) (*model.User, error)
	HardDelete(ctx context.Context, id uint64) error
}

// RoleStore is the persistence contract for roles, satisfied by
// *repository.RoleRepo.
type RoleStore interface {
	Create(ctx context.Context, name string) (*model.Role, error)
	GetByID(ctx context.Context, id uint64) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
	List(ctx context.Context, q repository.ListQuery) ([]model.Role, int, error)
	Update(ctx context.Context, id uint64, name string) (*model.Role, error)
	Trash(ctx context.Context, id uint64) (*model.Role, error)
	Restore(ctx context.Context, id uint64) (*model.Role, error)
	HardDelete(ctx context.Context, id uint64) error
}

// UserRoleStore links users to roles, satisfied by
// *repository.UserRoleRepo.
type UserRoleStore interface {
	Assign(ctx context.Context, userID, roleID uint64) error
	Remove(ctx context.Context, userID, roleID uint64) error
	HasRole(ctx context.Context, userID, roleID uint64) (bool, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.UserRole, error)
}
