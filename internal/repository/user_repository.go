package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sanedge/user-management-api/internal/model"
)

// UserRepo persists users in the 'users' table. Reads exclude
// soft-deleted rows unless the method says otherwise.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, first_name, last_name, email, password_hash, created_at, updated_at, deleted_at"

// ListFilter selects which slice of the soft-delete lifecycle a listing
// query returns.
type ListFilter int

const (
	FilterActive  ListFilter = iota // deleted_at IS NULL
	FilterTrashed                   // deleted_at IS NOT NULL
	FilterAll                       // everything
)

// ListQuery carries pagination and search parameters for listing
// endpoints. Page is 1-based; PageSize defaults are enforced by the
// service layer.
type ListQuery struct {
	Search   string
	Page     int
	PageSize int
	Filter   ListFilter
}

func (q ListQuery) offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * q.PageSize
}

// Create inserts a user and returns the stored row. The email must
// already be normalized (lower-cased, trimmed) and the password hashed.
func (r *UserRepo) Create(ctx context.Context, firstName, lastName, email, passwordHash string) (*model.User, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (first_name, last_name, email, password_hash) VALUES (?,?,?,?)",
		firstName, lastName, email, passwordHash)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches an active user by id, without roles.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1", id)
	return scanUser(row)
}

// GetByIDWithRoles fetches an active user by id together with the roles
// attached through non-deleted user_roles rows.
func (r *UserRepo) GetByIDWithRoles(ctx context.Context, id uint64) (*model.User, error) {
	return r.getWithRoles(ctx, "u.id=?", id)
}

// GetByEmailWithRoles fetches an active user by normalized email with
// roles attached.
func (r *UserRepo) GetByEmailWithRoles(ctx context.Context, email string) (*model.User, error) {
	return r.getWithRoles(ctx, "u.email=?", strings.ToLower(strings.TrimSpace(email)))
}

// getWithRoles runs the user+role join and flattens the result rows into
// a single User via an explicit grouping pass. The join can return
// several rows for one user (one per role) or a single row with NULL
// role columns when the user has no roles.
func (r *UserRepo) getWithRoles(ctx context.Context, where string, arg any) (*model.User, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.email, u.password_hash,
		       u.created_at, u.updated_at, u.deleted_at,
		       r.id, r.name, r.created_at, r.updated_at, r.deleted_at
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id AND ur.deleted_at IS NULL
		LEFT JOIN roles r ON r.id = ur.role_id AND r.deleted_at IS NULL
		WHERE `+where+` AND u.deleted_at IS NULL
		ORDER BY r.id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var u *model.User
	for rows.Next() {
		var (
			cur         model.User
			deletedAt   sql.NullTime
			roleID      sql.NullInt64
			roleName    sql.NullString
			roleCreated sql.NullTime
			roleUpdated sql.NullTime
			roleDeleted sql.NullTime
		)
		if err := rows.Scan(&cur.ID, &cur.FirstName, &cur.LastName, &cur.Email, &cur.PasswordHash,
			&cur.CreatedAt, &cur.UpdatedAt, &deletedAt,
			&roleID, &roleName, &roleCreated, &roleUpdated, &roleDeleted); err != nil {
			return nil, err
		}
		if u == nil {
			if deletedAt.Valid {
				t := deletedAt.Time
				cur.DeletedAt = &t
			}
			u = &cur
		}
		if roleID.Valid {
			role := model.Role{
				ID:        uint64(roleID.Int64),
				Name:      roleName.String,
				CreatedAt: roleCreated.Time,
				UpdatedAt: roleUpdated.Time,
			}
			if roleDeleted.Valid {
				t := roleDeleted.Time
				role.DeletedAt = &t
			}
			u.Roles = append(u.Roles, role)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// List returns one page of users matching the filter plus the total
// match count. Search matches first name, last name or email.
func (r *UserRepo) List(ctx context.Context, q ListQuery) ([]model.User, int, error) {
	where := "1=1"
	switch q.Filter {
	case FilterActive:
		where = "deleted_at IS NULL"
	case FilterTrashed:
		where = "deleted_at IS NOT NULL"
	}

	args := []any{}
	if s := strings.TrimSpace(q.Search); s != "" {
		where += " AND (first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)"
		pat := "%" + s + "%"
		args = append(args, pat, pat, pat)
	}
	args = append(args, q.PageSize, q.offset())

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+", COUNT(*) OVER() AS total_count FROM users WHERE "+where+
			" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		users []model.User
		total int
	)
	for rows.Next() {
		var (
			u         model.User
			deletedAt sql.NullTime
		)
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
			&u.CreatedAt, &u.UpdatedAt, &deletedAt, &total); err != nil {
			return nil, 0, err
		}
		if deletedAt.Valid {
			t := deletedAt.Time
			u.DeletedAt = &t
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Update changes the mutable profile fields of an active user and
// returns the stored row.
func (r *UserRepo) Update(ctx context.Context, id uint64, firstName, lastName, email string) (*model.User, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET first_name=?, last_name=?, email=? WHERE id=? AND deleted_at IS NULL",
		firstName, lastName, strings.ToLower(strings.TrimSpace(email)), id)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Either absent, trashed, or the values did not change; a
		// follow-up read distinguishes the two cases.
		if u, err := r.GetByID(ctx, id); err == nil {
			return u, nil
		}
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Trash soft-deletes an active user and returns the trashed row.
func (r *UserRepo) Trash(ctx context.Context, id uint64) (*model.User, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET deleted_at=UTC_TIMESTAMP() WHERE id=? AND deleted_at IS NULL", id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return r.getAny(ctx, id)
}

// Restore clears the soft-delete marker of a trashed user.
func (r *UserRepo) Restore(ctx context.Context, id uint64) (*model.User, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET deleted_at=NULL WHERE id=? AND deleted_at IS NOT NULL", id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// HardDelete removes a user row permanently. Join rows and refresh
// tokens go with it via ON DELETE CASCADE.
func (r *UserRepo) HardDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// getAny fetches a user regardless of soft-delete state.
func (r *UserRepo) getAny(ctx context.Context, id uint64) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u         model.User
		deletedAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		u.DeletedAt = &t
	}
	return &u, nil
}

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
