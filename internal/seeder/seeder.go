// Package seeder populates an empty database with a starter set of roles
// and accounts so a fresh deployment is immediately usable.
package seeder

import (
	"context"
	"fmt"
	"log"

	"github.com/sanedge/user-management-api/internal/auth"
	"github.com/sanedge/user-management-api/internal/repository"
)

// Seeder writes the initial roles, users and role assignments. Running it
// against a database that already has roles is a no-op.
type Seeder struct {
	Users     *repository.UserRepo
	Roles     *repository.RoleRepo
	UserRoles *repository.UserRoleRepo
	Hasher    auth.Hasher
}

type seedUser struct {
	firstName string
	lastName  string
	email     string
	password  string
	role      string
}

var seedRoles = []string{"ADMIN", "USER", "MANAGER"}

var seedUsers = []seedUser{
	{"John", "Doe", "admin@example.com", "admin123", "ADMIN"},
	{"Jane", "Smith", "user@example.com", "user123", "USER"},
	{"Bob", "Johnson", "manager@example.com", "manager123", "MANAGER"},
}

// Run seeds roles, users and assignments. It skips entirely when any role
// already exists, so restarts do not duplicate data.
func (s *Seeder) Run(ctx context.Context) error {
	existing, _, err := s.Roles.List(ctx, repository.ListQuery{Page: 1, PageSize: 1, Filter: repository.FilterAll})
	if err != nil {
		return fmt.Errorf("seeder: check existing roles: %w", err)
	}
	if len(existing) > 0 {
		log.Printf("seeder: database already contains data, skipping")
		return nil
	}

	for _, name := range seedRoles {
		role, err := s.Roles.Create(ctx, name)
		if err != nil {
			return fmt.Errorf("seeder: create role %s: %w", name, err)
		}
		log.Printf("seeder: created role %s (id=%d)", role.Name, role.ID)
	}

	for _, su := range seedUsers {
		hash, err := s.Hasher.Hash(su.password)
		if err != nil {
			return fmt.Errorf("seeder: hash password for %s: %w", su.email, err)
		}
		u, err := s.Users.Create(ctx, su.firstName, su.lastName, su.email, hash)
		if err != nil {
			return fmt.Errorf("seeder: create user %s: %w", su.email, err)
		}
		role, err := s.Roles.GetByName(ctx, su.role)
		if err != nil {
			return fmt.Errorf("seeder: lookup role %s: %w", su.role, err)
		}
		if err := s.UserRoles.Assign(ctx, u.ID, role.ID); err != nil {
			return fmt.Errorf("seeder: assign %s to %s: %w", su.role, su.email, err)
		}
		log.Printf("seeder: created user %s with role %s (id=%d)", u.Email, su.role, u.ID)
	}

	log.Printf("seeder: database seeding completed")
	return nil
}
