package menu

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/burrow-admin/burrow/internal/platform/db"
	"github.com/burrow-admin/burrow/internal/shared"
)

// Repository defines persistence operations for menus.
type Repository interface {
	List(ctx context.Context) ([]Menu, error)
	ListByPermissions(ctx context.Context, permissions []string) ([]Menu, error)
	GetByID(ctx context.Context, id int64) (*Menu, error)
	PathExists(ctx context.Context, parentID int64, path string, excludeID int64) (bool, error)
	PermissionExists(ctx context.Context, permission string, excludeID int64) (bool, error)
	Create(ctx context.Context, m *Menu) error
	Update(ctx context.Context, m *Menu) error
	DeleteCascade(ctx context.Context, ids []int64, permissions []string) error
}

const menuColumns = `id, parent_id, title, path, permission, icon, link, sort, hidden, is_system, created_at, updated_at`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns all menus ordered by (sort, id).
func (r *PGRepository) List(ctx context.Context) ([]Menu, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+menuColumns+` FROM menus ORDER BY sort, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMenus(rows)
}

// ListByPermissions returns menus whose permission is in the set, ordered by
// (sort, id).
func (r *PGRepository) ListByPermissions(ctx context.Context, permissions []string) ([]Menu, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+menuColumns+` FROM menus WHERE permission = ANY($1) ORDER BY sort, id`, permissions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMenus(rows)
}

// GetByID fetches one menu.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Menu, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+menuColumns+` FROM menus WHERE id = $1`, id)
	var m Menu
	if err := scanMenu(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// PathExists reports whether another menu under the same parent uses the path.
func (r *PGRepository) PathExists(ctx context.Context, parentID int64, path string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM menus WHERE parent_id = $1 AND path = $2 AND id <> $3)`,
		parentID, path, excludeID).Scan(&exists)
	return exists, err
}

// PermissionExists reports whether another menu already uses the permission.
func (r *PGRepository) PermissionExists(ctx context.Context, permission string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM menus WHERE permission = $1 AND id <> $2)`,
		permission, excludeID).Scan(&exists)
	return exists, err
}

// Create inserts a menu.
func (r *PGRepository) Create(ctx context.Context, m *Menu) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO menus (parent_id, title, path, permission, icon, link, sort, hidden, is_system)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		m.ParentID, m.Title, m.Path, m.Permission, m.Icon, m.Link, m.Sort, m.Hidden, m.IsSystem,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil && db.IsUniqueViolation(err) {
		// Backstop against concurrent creates racing the uniqueness checks.
		return shared.Validationf("menu path or permission already exists")
	}
	return err
}

// Update rewrites a menu's mutable fields.
func (r *PGRepository) Update(ctx context.Context, m *Menu) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE menus SET parent_id = $2, title = $3, path = $4, permission = $5, icon = $6, link = $7,
		 sort = $8, hidden = $9, updated_at = NOW() WHERE id = $1`,
		m.ID, m.ParentID, m.Title, m.Path, m.Permission, m.Icon, m.Link, m.Sort, m.Hidden)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return shared.Validationf("menu path or permission already exists")
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteCascade removes the menus and every role grant referencing their
// permission strings inside one transaction.
func (r *PGRepository) DeleteCascade(ctx context.Context, ids []int64, permissions []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE permission = ANY($1)`, permissions); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM menus WHERE id = ANY($1)`, ids); err != nil {
			return err
		}
		return nil
	})
}

func scanMenus(rows pgx.Rows) ([]Menu, error) {
	var menus []Menu
	for rows.Next() {
		var m Menu
		if err := scanMenu(rows, &m); err != nil {
			return nil, err
		}
		menus = append(menus, m)
	}
	return menus, rows.Err()
}

func scanMenu(row pgx.Row, m *Menu) error {
	return row.Scan(&m.ID, &m.ParentID, &m.Title, &m.Path, &m.Permission, &m.Icon, &m.Link,
		&m.Sort, &m.Hidden, &m.IsSystem, &m.CreatedAt, &m.UpdatedAt)
}

var _ Repository = (*PGRepository)(nil)
