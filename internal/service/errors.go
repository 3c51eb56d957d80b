// Package service implements the application services orchestrating
// repositories, the cache layer and the auth primitives. The sentinel
// errors below are the domain taxonomy handlers translate into HTTP
// statuses; infrastructure failures on non-critical steps never reach
// them and are only logged.
package service

import (
	"errors"

	"github.com/sanedge/user-management-api/internal/auth"
)

var (
	// ErrInvalidCredentials is returned when password verification
	// fails for a known user.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when a user is absent or trashed.
	ErrUserNotFound = errors.New("user not found")

	// ErrRoleNotFound is returned when a role is absent or trashed.
	ErrRoleNotFound = errors.New("role not found")

	// ErrInvalidRefreshToken mirrors the rotation policy's sentinel so
	// callers only need to import this package.
	ErrInvalidRefreshToken = auth.ErrInvalidRefreshToken

	// ErrRegistrationFailed covers duplicate emails and hashing
	// failures during registration.
	ErrRegistrationFailed = errors.New("registration failed")

	// ErrAuthenticationFailed is the catch-all for persistence or
	// cache failures on the critical path of a login or refresh.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrEmailExists is returned when an update would duplicate an
	// existing email address.
	ErrEmailExists = errors.New("email already exists")

	// ErrRoleExists is returned when a create or rename would
	// duplicate an existing role name.
	ErrRoleExists = errors.New("role name already exists")

	// ErrRoleNotAssigned is returned when removing a role the user
	// does not carry.
	ErrRoleNotAssigned = errors.New("role not assigned to user")
)
