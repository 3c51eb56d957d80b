package model

import "time"

// User represents a row in the `users` table together with the roles
// attached through the `user_roles` join table. PasswordHash is never
// serialized; handlers expose dedicated response types instead.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FirstName    – given name.
//  LastName     – family name.
//  Email        – unique email address (stored lower-cased).
//  PasswordHash – bcrypt hashed password.
//  Roles        – roles attached via user_roles (deleted_at IS NULL only).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
//  DeletedAt    – soft-delete marker (nil while the user is active).
type User struct {
	ID           uint64     `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Roles        []Role     `json:"roles,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// RoleNames returns the names of the user's attached roles in the order
// they were loaded. The slice is never nil so it can be embedded into
// JWT claims and cache snapshots directly.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
