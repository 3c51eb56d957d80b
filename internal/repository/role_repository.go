package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sanedge/user-management-api/internal/model"
)

// RoleRepo persists roles in the 'roles' table.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

const roleColumns = "id, name, created_at, updated_at, deleted_at"

// Create inserts a role and returns the stored row.
func (r *RoleRepo) Create(ctx context.Context, name string) (*model.Role, error) {
	res, err := r.DB.ExecContext(ctx, "INSERT INTO roles (name) VALUES (?)", name)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrRoleExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches an active role by id.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (*model.Role, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE id=? AND deleted_at IS NULL LIMIT 1", id)
	return scanRole(row)
}

// GetByName fetches an active role by its unique name.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*model.Role, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE name=? AND deleted_at IS NULL LIMIT 1", name)
	return scanRole(row)
}

// List returns one page of roles matching the filter plus the total
// match count.
func (r *RoleRepo) List(ctx context.Context, q ListQuery) ([]model.Role, int, error) {
	where := "1=1"
	switch q.Filter {
	case FilterActive:
		where = "deleted_at IS NULL"
	case FilterTrashed:
		where = "deleted_at IS NOT NULL"
	}

	args := []any{}
	if s := strings.TrimSpace(q.Search); s != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+s+"%")
	}
	args = append(args, q.PageSize, q.offset())

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+roleColumns+", COUNT(*) OVER() AS total_count FROM roles WHERE "+where+
			" ORDER BY created_at ASC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		roles []model.Role
		total int
	)
	for rows.Next() {
		var (
			role      model.Role
			deletedAt sql.NullTime
		)
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt, &deletedAt, &total); err != nil {
			return nil, 0, err
		}
		if deletedAt.Valid {
			t := deletedAt.Time
			role.DeletedAt = &t
		}
		roles = append(roles, role)
	}
	return roles, total, rows.Err()
}

// Update renames an active role and returns the stored row.
func (r *RoleRepo) Update(ctx context.Context, id uint64, name string) (*model.Role, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE roles SET name=? WHERE id=? AND deleted_at IS NULL", name, id)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrRoleExists
		}
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if role, err := r.GetByID(ctx, id); err == nil {
			return role, nil
		}
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Trash soft-deletes an active role and returns the trashed row.
func (r *RoleRepo) Trash(ctx context.Context, id uint64) (*model.Role, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE roles SET deleted_at=UTC_TIMESTAMP() WHERE id=? AND deleted_at IS NULL", id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE id=? LIMIT 1", id)
	return scanRole(row)
}

// Restore clears the soft-delete marker of a trashed role.
func (r *RoleRepo) Restore(ctx context.Context, id uint64) (*model.Role, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE roles SET deleted_at=NULL WHERE id=? AND deleted_at IS NOT NULL", id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// HardDelete removes a role row permanently.
func (r *RoleRepo) HardDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM roles WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRole(row *sql.Row) (*model.Role, error) {
	var (
		role      model.Role
		deletedAt sql.NullTime
	)
	err := row.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		role.DeletedAt = &t
	}
	return &role, nil
}
