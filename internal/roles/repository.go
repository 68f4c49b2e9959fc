package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/platform/db"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// RepositoryPort defines data access for role management.
type RepositoryPort interface {
	List(ctx context.Context) ([]Role, error)
	Get(ctx context.Context, id int64) (*Role, error)
	Create(ctx context.Context, input Input) (*Role, error)
	Update(ctx context.Context, id int64, input Input) (*Role, error)
	Delete(ctx context.Context, id int64) error
	Permissions(ctx context.Context, roleID int64) ([]authz.Permission, error)
	SyncPermissions(ctx context.Context, actorID, roleID int64, permissionNames []string) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool  *pgxpool.Pool
	guard *authz.GrantGuard
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, guard *authz.GrantGuard) *Repository {
	return &Repository{pool: pool, guard: guard}
}

const roleColumns = `id, name, hierarchy, is_system, is_default, is_editable, created_at, updated_at`

// List returns all roles ordered by authority.
func (r *Repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+roleColumns+` FROM roles ORDER BY hierarchy, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, rows.Err()
}

// Get fetches a role by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Role, error) {
	return scanRole(r.pool.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
}

// Create inserts a new role. Created roles are always editable,
// non-system.
func (r *Repository) Create(ctx context.Context, input Input) (*Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, hierarchy, is_system, is_default, is_editable)
		VALUES ($1, $2, FALSE, $3, TRUE)
		RETURNING `+roleColumns,
		input.Name, input.Hierarchy, input.IsDefault))
	return role, mapPGError(err)
}

// Update edits a role. System and non-editable roles are immutable; the
// WHERE clause enforces it even if the service check raced.
func (r *Repository) Update(ctx context.Context, id int64, input Input) (*Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `
		UPDATE roles
		SET name = $2, hierarchy = $3, is_default = $4, updated_at = NOW()
		WHERE id = $1 AND is_system = FALSE AND is_editable = TRUE
		RETURNING `+roleColumns,
		id, input.Name, input.Hierarchy, input.IsDefault))
	return role, mapPGError(err)
}

// Delete removes a role. System roles never delete.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM roles WHERE id = $1 AND is_system = FALSE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Permissions returns the role's permission matrix.
func (r *Repository) Permissions(ctx context.Context, roleID int64) ([]authz.Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pm.id, pm.name, pm.module, pm.is_core
		FROM role_permissions rp
		JOIN permissions pm ON pm.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY pm.module, pm.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []authz.Permission
	for rows.Next() {
		var perm authz.Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Module, &perm.IsCore); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// SyncPermissions replaces the role's permission matrix with the named set.
// Additions relative to the current matrix are re-validated against the
// actor's effective permissions inside the transaction, closing the window
// between a pre-check and the write.
func (r *Repository) SyncPermissions(ctx context.Context, actorID, roleID int64, permissionNames []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM roles WHERE id = $1) `, roleID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}

		rows, err := tx.Query(ctx, `
			SELECT pm.name FROM role_permissions rp
			JOIN permissions pm ON pm.id = rp.permission_id
			WHERE rp.role_id = $1`, roleID)
		if err != nil {
			return err
		}
		current := make(map[string]struct{})
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return err
			}
			current[name] = struct{}{}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		var additions []string
		for _, name := range permissionNames {
			if _, ok := current[name]; !ok {
				additions = append(additions, name)
			}
		}
		if len(additions) > 0 {
			actor, err := authz.LoadPrincipalQ(ctx, tx, actorID)
			if err != nil {
				return err
			}
			if err := r.guard.ValidateGrant(actor, additions); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		for _, name := range permissionNames {
			tag, err := tx.Exec(ctx, `
				INSERT INTO role_permissions (role_id, permission_id)
				SELECT $1, id FROM permissions WHERE name = $2`, roleID, name)
			if err != nil {
				return mapPGError(err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: unknown permission %q", shared.ErrValidation, name)
			}
		}
		return nil
	})
}

func scanRole(row pgx.Row) (*Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Hierarchy, &role.IsSystem,
		&role.IsDefault, &role.IsEditable, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func mapPGError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
