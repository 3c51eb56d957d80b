package model

import "time"

// DefaultRoleName is attached to newly registered users when no role is
// requested explicitly.
const DefaultRoleName = "ADMIN"

// Role represents a row in the `roles` table. Roles are soft-deleted
// like users: a trashed role keeps its row but carries a DeletedAt
// timestamp until restored or permanently removed.
type Role struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// UserRole is the join row linking a user to a role. The join itself is
// soft-deleted so role assignment history survives removal.
type UserRole struct {
	ID        uint64     `json:"id"`
	UserID    uint64     `json:"user_id"`
	RoleID    uint64     `json:"role_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
