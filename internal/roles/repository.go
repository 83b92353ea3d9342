package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/burrow-admin/burrow/internal/platform/db"
	"github.com/burrow-admin/burrow/internal/shared"
)

// Repository defines persistence operations for roles and their grants.
type Repository interface {
	List(ctx context.Context, page shared.Pagination) ([]Role, int, error)
	GetByID(ctx context.Context, id int64) (*Role, error)
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	Permissions(ctx context.Context, roleID int64) ([]string, error)
	CountMenuPermissions(ctx context.Context, permissions []string) (int, error)
	CreateWithGrants(ctx context.Context, role *Role, permissions []string) error
	UpdateWithGrants(ctx context.Context, id int64, name string, permissions []string) error
	DeleteCascade(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns one page of roles plus the total count.
func (r *PGRepository) List(ctx context.Context, page shared.Pagination) ([]Role, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, creator_id, created_at, updated_at FROM roles ORDER BY id LIMIT $1 OFFSET $2`,
		page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatorID, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, role)
	}
	return out, total, rows.Err()
}

// GetByID fetches one role.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, creator_id, created_at, updated_at FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.CreatorID, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// NameExists reports whether another role already uses the name.
func (r *PGRepository) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM roles WHERE name = $1 AND id <> $2)`, name, excludeID).Scan(&exists)
	return exists, err
}

// Permissions returns the permission strings granted to the role.
func (r *PGRepository) Permissions(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT permission FROM role_permissions WHERE role_id = $1 ORDER BY permission`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// CountMenuPermissions counts how many of the given strings exist as menu
// permissions.
func (r *PGRepository) CountMenuPermissions(ctx context.Context, permissions []string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM menus WHERE permission = ANY($1)`, permissions).Scan(&count)
	return count, err
}

// CreateWithGrants inserts the role and its permission grants in one
// transaction.
func (r *PGRepository) CreateWithGrants(ctx context.Context, role *Role, permissions []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (name, creator_id) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
			role.Name, role.CreatorID).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
		if err != nil {
			// Backstop against concurrent creates racing the NameExists check.
			if db.IsUniqueViolation(err) {
				return shared.Validationf("role name already exists")
			}
			return err
		}
		return insertGrants(ctx, tx, role.ID, permissions)
	})
}

// UpdateWithGrants renames the role and replaces its whole grant set in one
// transaction.
func (r *PGRepository) UpdateWithGrants(ctx context.Context, id int64, name string, permissions []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE roles SET name = $2, updated_at = NOW() WHERE id = $1`, id, name)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return shared.Validationf("role name already exists")
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		return insertGrants(ctx, tx, id, permissions)
	})
}

// DeleteCascade removes the role, its grants and its user assignments in one
// transaction.
func (r *PGRepository) DeleteCascade(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE role_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id); err != nil {
			return err
		}
		return nil
	})
}

func insertGrants(ctx context.Context, tx pgx.Tx, roleID int64, permissions []string) error {
	for _, p := range permissions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission) VALUES ($1, $2)`, roleID, p); err != nil {
			return err
		}
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
