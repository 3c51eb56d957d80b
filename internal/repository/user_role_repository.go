package repository

import (
	"context"
	"database/sql"

	"github.com/sanedge/user-management-api/internal/model"
)

// UserRoleRepo manages the user_roles join table. Assignments are
// soft-deleted like the entities they connect.
type UserRoleRepo struct{ DB *sql.DB }

func NewUserRoleRepo(db *sql.DB) *UserRoleRepo { return &UserRoleRepo{DB: db} }

// Assign attaches a role to a user. Re-assigning an existing live pair
// is a no-op.
func (r *UserRoleRepo) Assign(ctx context.Context, userID, roleID uint64) error {
	has, err := r.HasRole(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)", userID, roleID)
	return err
}

// Remove soft-deletes a live user-role assignment.
func (r *UserRoleRepo) Remove(ctx context.Context, userID, roleID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE user_roles SET deleted_at=UTC_TIMESTAMP() WHERE user_id=? AND role_id=? AND deleted_at IS NULL",
		userID, roleID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// HasRole reports whether a live assignment exists for the pair.
func (r *UserRoleRepo) HasRole(ctx context.Context, userID, roleID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM user_roles WHERE user_id=? AND role_id=? AND deleted_at IS NULL LIMIT 1",
		userID, roleID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser returns the live assignments of a user.
func (r *UserRoleRepo) ListByUser(ctx context.Context, userID uint64) ([]model.UserRole, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, role_id, created_at, updated_at, deleted_at FROM user_roles WHERE user_id=? AND deleted_at IS NULL ORDER BY id",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []model.UserRole
	for rows.Next() {
		var (
			ur        model.UserRole
			deletedAt sql.NullTime
		)
		if err := rows.Scan(&ur.ID, &ur.UserID, &ur.RoleID, &ur.CreatedAt, &ur.UpdatedAt, &deletedAt); err != nil {
			return nil, err
		}
		if deletedAt.Valid {
			t := deletedAt.Time
			ur.DeletedAt = &t
		}
		links = append(links, ur)
	}
	return links, rows.Err()
}
