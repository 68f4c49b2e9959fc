package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-mfb/meridian-mfb/internal/auth"
	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/platform/db"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// RepositoryPort defines data access for user management. Mutations that
// grant authority re-validate with the grant guard inside the writing
// transaction; the guard verdict outside the transaction is advisory only.
type RepositoryPort interface {
	List(ctx context.Context, filters shared.ListFilters) ([]User, int, error)
	Get(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, actorID int64, input CreateInput, passwordHash string) (*User, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*User, error)
	Delete(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
	AssignRole(ctx context.Context, actorID, userID, roleID int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
	SyncDirectPermissions(ctx context.Context, actorID, userID int64, permissionNames []string) error
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

const userColumns = `u.id, u.username, u.email, u.full_name, u.is_active,
	u.failed_login_attempts, u.locked_until, u.lock_reason, u.created_at, u.updated_at`

// List returns users matching the filters, tombstoned rows excluded.
func (r *Repository) List(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	search := "%" + filters.Search + "%"
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM users u
		WHERE u.deleted_at IS NULL
		  AND ($1 = '%%' OR u.username ILIKE $1 OR u.email ILIKE $1 OR u.full_name ILIKE $1)`,
		search).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users u
		WHERE u.deleted_at IS NULL
		  AND ($1 = '%%' OR u.username ILIKE $1 OR u.email ILIKE $1 OR u.full_name ILIKE $1)
		ORDER BY u.id
		LIMIT $2 OFFSET $3`, search, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range users {
		roles, err := r.userRoles(ctx, r.pool, users[i].ID)
		if err != nil {
			return nil, 0, err
		}
		users[i].Roles = roles
	}
	return users, total, nil
}

// Get fetches one user with roles loaded.
func (r *Repository) Get(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users u
		WHERE u.id = $1 AND u.deleted_at IS NULL`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	roles, err := r.userRoles(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return user, nil
}

// Create inserts the user and its initial role assignments in one
// transaction, re-validating each assignment against the actor's rank.
func (r *Repository) Create(ctx context.Context, actorID int64, input CreateInput, passwordHash string) (*User, error) {
	var created *User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO users (username, email, full_name, password_hash, is_active)
			VALUES ($1, $2, $3, $4, TRUE)
			RETURNING id, username, email, full_name, is_active,
			          failed_login_attempts, locked_until, lock_reason, created_at, updated_at`,
			input.Username, input.Email, input.FullName, passwordHash)
		user, err := scanUser(row)
		if err != nil {
			return mapPGError(err)
		}
		if len(input.RoleIDs) > 0 {
			actor, err := authz.LoadPrincipalQ(ctx, tx, actorID)
			if err != nil {
				return err
			}
			for _, roleID := range input.RoleIDs {
				role, err := roleByID(ctx, tx, roleID)
				if err != nil {
					return err
				}
				if err := r.guard.ValidateRoleAssignment(actor, role, nil); err != nil {
					return err
				}
				if _, err := tx.Exec(ctx,
					`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`,
					user.ID, roleID); err != nil {
					return mapPGError(err)
				}
			}
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	created.Roles, err = r.userRoles(ctx, r.pool, created.ID)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update edits the identity fields.
func (r *Repository) Update(ctx context.Context, id int64, input UpdateInput) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET email = $2, full_name = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, username, email, full_name, is_active,
		          failed_login_attempts, locked_until, lock_reason, created_at, updated_at`,
		id, input.Email, input.FullName)
	user, err := scanUser(row)
	if err != nil {
		return nil, mapPGError(err)
	}
	user.Roles, err = r.userRoles(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete tombstones the user. Queries filter on deleted_at explicitly;
// nothing cascades implicitly.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Deactivate blocks the account administratively, recording the reason so
// the login gate reports it correctly.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET is_active = FALSE, lock_reason = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id, auth.LockReasonManualAdmin)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AssignRole attaches a role, re-validating actor rank inside the
// transaction so a concurrent demotion of the actor cannot slip through.
func (r *Repository) AssignRole(ctx context.Context, actorID, userID, roleID int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		actor, err := authz.LoadPrincipalQ(ctx, tx, actorID)
		if err != nil {
			return err
		}
		target, err := authz.LoadPrincipalQ(ctx, tx, userID)
		if err != nil {
			return err
		}
		role, err := roleByID(ctx, tx, roleID)
		if err != nil {
			return err
		}
		if err := r.guard.ValidateRoleAssignment(actor, role, target); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, userID, roleID)
		return mapPGError(err)
	})
}

// RemoveRole detaches a role. Revocation needs no grant validation.
func (r *Repository) RemoveRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	return err
}

// SyncDirectPermissions replaces the user's direct grants with the named
// set. Additions are validated against the actor's effective set inside the
// transaction; removals always pass.
func (r *Repository) SyncDirectPermissions(ctx context.Context, actorID, userID int64, permissionNames []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		target, err := authz.LoadPrincipalQ(ctx, tx, userID)
		if err != nil {
			return err
		}
		current := make(map[string]struct{}, len(target.Direct))
		for _, perm := range target.Direct {
			current[perm.Name] = struct{}{}
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
			`DELETE FROM user_permissions WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, name := range permissionNames {
			tag, err := tx.Exec(ctx, `
				INSERT INTO user_permissions (user_id, permission_id)
				SELECT $1, id FROM permissions WHERE name = $2`, userID, name)
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

func (r *Repository) userRoles(ctx context.Context, q authz.Querier, userID int64) ([]authz.Role, error) {
	rows, err := q.Query(ctx, `
		SELECT r.id, r.name, r.hierarchy, r.is_system, r.is_default, r.is_editable,
		       r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.hierarchy`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []authz.Role
	for rows.Next() {
		var role authz.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Hierarchy, &role.IsSystem,
			&role.IsDefault, &role.IsEditable, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func roleByID(ctx context.Context, q authz.Querier, roleID int64) (authz.Role, error) {
	var role authz.Role
	err := q.QueryRow(ctx, `
		SELECT id, name, hierarchy, is_system, is_default, is_editable
		FROM roles WHERE id = $1`, roleID).
		Scan(&role.ID, &role.Name, &role.Hierarchy, &role.IsSystem, &role.IsDefault, &role.IsEditable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return role, shared.ErrNotFound
		}
		return role, err
	}
	return role, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var lockReason *string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.IsActive,
		&u.FailedLoginAttempts, &u.LockedUntil, &lockReason, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if lockReason != nil {
		u.LockReason = *lockReason
	}
	u.Roles = []authz.Role{}
	return &u, nil
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
