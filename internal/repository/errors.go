// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services to distinguish between different failure scenarios without
// inspecting driver-specific error strings. For example, ErrNotFound
// signals that a row is absent or soft-deleted, while ErrEmailExists
// and ErrRoleExists surface unique-constraint violations.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist or is
// soft-deleted. Services translate this into their own not-found errors.
var ErrNotFound = errors.New("record not found")

// ErrEmailExists is returned when inserting or updating a user would
// violate the unique email constraint.
var ErrEmailExists = errors.New("email already exists")

// ErrRoleExists is returned when inserting or updating a role would
// violate the unique role name constraint.
var ErrRoleExists = errors.New("role name already exists")
