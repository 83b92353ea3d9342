package rbac

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the persistence reads the resolver needs.
type Repository interface {
	UserRoleIDs(ctx context.Context, userID int64) ([]int64, error)
	RolePermissions(ctx context.Context, roleIDs []int64) ([]string, error)
	AllMenuPermissions(ctx context.Context) ([]string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// UserRoleIDs returns the role ids assigned to a user.
func (r *PGRepository) UserRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RolePermissions returns the permission strings granted to any of the roles.
func (r *PGRepository) RolePermissions(ctx context.Context, roleIDs []int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT permission FROM role_permissions WHERE role_id = ANY($1)`, roleIDs)
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

// AllMenuPermissions returns every permission string defined by a menu.
func (r *PGRepository) AllMenuPermissions(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT permission FROM menus`)
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

var _ Repository = (*PGRepository)(nil)
