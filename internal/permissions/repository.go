// Package permissions manages the permission registry: the module.action
// catalogue the role matrix and direct grants draw from.
package permissions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// RepositoryPort defines data access for the permission registry.
type RepositoryPort interface {
	List(ctx context.Context) ([]authz.Permission, error)
	Ensure(ctx context.Context, name, module string, isCore bool) (authz.Permission, error)
	Delete(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all permissions ordered by module then name.
func (r *Repository) List(ctx context.Context) ([]authz.Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, module, is_core FROM permissions ORDER BY module, name`)
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

// Ensure upserts a permission by name.
func (r *Repository) Ensure(ctx context.Context, name, module string, isCore bool) (authz.Permission, error) {
	var perm authz.Permission
	err := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name, module, is_core)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET module = EXCLUDED.module
		RETURNING id, name, module, is_core`,
		name, module, isCore).
		Scan(&perm.ID, &perm.Name, &perm.Module, &perm.IsCore)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return perm, shared.ErrDuplicate
		}
		return perm, err
	}
	return perm, nil
}

// Delete removes a non-core permission and its grants.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM permissions WHERE id = $1 AND is_core = FALSE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
