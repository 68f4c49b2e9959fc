package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// Querier is the subset of pgx shared by pools and transactions. The grant
// guard re-validates inside the writing transaction, so principal loading
// must work against either.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore loads principals from PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// LoadPrincipal implements PrincipalStore.
func (s *PGStore) LoadPrincipal(ctx context.Context, userID int64) (*Principal, error) {
	return LoadPrincipalQ(ctx, s.pool, userID)
}

// LoadPrincipalQ hydrates a principal with its roles, role permissions and
// direct permissions using the given querier. Tombstoned users do not
// resolve.
func LoadPrincipalQ(ctx context.Context, q Querier, userID int64) (*Principal, error) {
	var p Principal
	err := q.QueryRow(ctx, `
		SELECT id, username, email
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`, userID).
		Scan(&p.UserID, &p.Username, &p.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	roleRows, err := q.Query(ctx, `
		SELECT r.id, r.name, r.hierarchy, r.is_system, r.is_default, r.is_editable
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.id`, userID)
	if err != nil {
		return nil, err
	}
	defer roleRows.Close()
	index := make(map[int64]int)
	for roleRows.Next() {
		var r Role
		if err := roleRows.Scan(&r.ID, &r.Name, &r.Hierarchy, &r.IsSystem, &r.IsDefault, &r.IsEditable); err != nil {
			return nil, err
		}
		index[r.ID] = len(p.Roles)
		p.Roles = append(p.Roles, r)
	}
	if err := roleRows.Err(); err != nil {
		return nil, err
	}

	if len(p.Roles) > 0 {
		permRows, err := q.Query(ctx, `
			SELECT rp.role_id, pm.id, pm.name, pm.module, pm.is_core
			FROM role_permissions rp
			JOIN permissions pm ON pm.id = rp.permission_id
			JOIN user_roles ur ON ur.role_id = rp.role_id
			WHERE ur.user_id = $1
			ORDER BY pm.id`, userID)
		if err != nil {
			return nil, err
		}
		defer permRows.Close()
		for permRows.Next() {
			var roleID int64
			var perm Permission
			if err := permRows.Scan(&roleID, &perm.ID, &perm.Name, &perm.Module, &perm.IsCore); err != nil {
				return nil, err
			}
			if i, ok := index[roleID]; ok {
				p.Roles[i].Permissions = append(p.Roles[i].Permissions, perm)
			}
		}
		if err := permRows.Err(); err != nil {
			return nil, err
		}
	}

	directRows, err := q.Query(ctx, `
		SELECT pm.id, pm.name, pm.module, pm.is_core
		FROM user_permissions up
		JOIN permissions pm ON pm.id = up.permission_id
		WHERE up.user_id = $1
		ORDER BY pm.id`, userID)
	if err != nil {
		return nil, err
	}
	defer directRows.Close()
	for directRows.Next() {
		var perm Permission
		if err := directRows.Scan(&perm.ID, &perm.Name, &perm.Module, &perm.IsCore); err != nil {
			return nil, err
		}
		p.Direct = append(p.Direct, perm)
	}
	if err := directRows.Err(); err != nil {
		return nil, err
	}

	return &p, nil
}

var _ PrincipalStore = (*PGStore)(nil)
