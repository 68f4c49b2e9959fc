package staff

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-mfb/meridian-mfb/internal/auth"
	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/platform/db"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

type Repository struct {
	pool  *pgxpool.Pool
	guard *authz.GrantGuard
}

func NewRepository(pool *pgxpool.Pool, guard *authz.GrantGuard) *Repository {
	return &Repository{pool: pool, guard: guard}
}

const columns = `s.id, s.user_id, s.branch_id, s.first_name, s.last_name,
	s.phone, s.position, s.is_active, s.created_at, s.updated_at,
	u.username, u.email`

func (r *Repository) List(ctx context.Context, branchID int64, filters shared.ListFilters) ([]Member, int, error) {
	search := "%" + filters.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM staff s
		JOIN users u ON u.id = s.user_id AND u.deleted_at IS NULL
		WHERE ($1 = 0 OR s.branch_id = $1)
		  AND ($2 = '%%' OR s.first_name ILIKE $2 OR s.last_name ILIKE $2 OR u.username ILIKE $2)`,
		branchID, search).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+columns+` FROM staff s
		JOIN users u ON u.id = s.user_id AND u.deleted_at IS NULL
		WHERE ($1 = 0 OR s.branch_id = $1)
		  AND ($2 = '%%' OR s.first_name ILIKE $2 OR s.last_name ILIKE $2 OR u.username ILIKE $2)
		ORDER BY s.last_name, s.first_name
		LIMIT $3 OFFSET $4`, branchID, search, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		members = append(members, *m)
	}
	return members, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (*Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx, `
		SELECT `+columns+` FROM staff s
		JOIN users u ON u.id = s.user_id AND u.deleted_at IS NULL
		WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return m, err
}

// Provision creates the login account and the staff row in one transaction.
// Role assignments are re-validated against the actor inside the same
// transaction, so a concurrent demotion of the actor rolls the whole
// provisioning back.
func (r *Repository) Provision(ctx context.Context, actorID int64, in ProvisionInput, passwordHash string) (*Member, error) {
	var created *Member
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var userID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO users (username, email, full_name, password_hash, is_active)
			VALUES ($1, $2, $3, $4, TRUE)
			RETURNING id`,
			in.Username, in.Email, in.FirstName+" "+in.LastName, passwordHash).Scan(&userID)
		if err != nil {
			return mapPGError(err)
		}
		if len(in.RoleIDs) > 0 {
			actor, err := authz.LoadPrincipalQ(ctx, tx, actorID)
			if err != nil {
				return err
			}
			for _, roleID := range in.RoleIDs {
				role, err := roleByID(ctx, tx, roleID)
				if err != nil {
					return err
				}
				if err := r.guard.ValidateRoleAssignment(actor, role, nil); err != nil {
					return err
				}
				if _, err := tx.Exec(ctx,
					`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`,
					userID, roleID); err != nil {
					return mapPGError(err)
				}
			}
		}
		var m Member
		err = tx.QueryRow(ctx, `
			INSERT INTO staff (user_id, branch_id, first_name, last_name, phone, position, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE)
			RETURNING id, user_id, branch_id, first_name, last_name, phone, position,
			          is_active, created_at, updated_at`,
			userID, in.BranchID, in.FirstName, in.LastName, in.Phone, in.Position).
			Scan(&m.ID, &m.UserID, &m.BranchID, &m.FirstName, &m.LastName,
				&m.Phone, &m.Position, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return mapPGError(err)
		}
		m.Username = in.Username
		m.Email = in.Email
		created = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repository) Update(ctx context.Context, id int64, in UpdateInput) (*Member, error) {
	var m Member
	err := r.pool.QueryRow(ctx, `
		UPDATE staff
		SET branch_id = $2, first_name = $3, last_name = $4, phone = $5,
		    position = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, branch_id, first_name, last_name, phone, position,
		          is_active, created_at, updated_at`,
		id, in.BranchID, in.FirstName, in.LastName, in.Phone, in.Position).
		Scan(&m.ID, &m.UserID, &m.BranchID, &m.FirstName, &m.LastName,
			&m.Phone, &m.Position, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, mapPGError(err)
	}
	return &m, nil
}

// Deactivate retires the staff member and blocks the linked account in the
// same transaction.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var userID int64
		err := tx.QueryRow(ctx,
			`UPDATE staff SET is_active = FALSE, updated_at = NOW()
			 WHERE id = $1 RETURNING user_id`, id).Scan(&userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE users SET is_active = FALSE, lock_reason = $2, updated_at = NOW()
			WHERE id = $1`, userID, auth.LockReasonManualAdmin)
		return err
	})
}

// UserID reports the login account backing a staff member.
func (r *Repository) UserID(ctx context.Context, id int64) (int64, error) {
	var userID int64
	err := r.pool.QueryRow(ctx, `SELECT user_id FROM staff WHERE id = $1`, id).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return userID, err
}

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.UserID, &m.BranchID, &m.FirstName, &m.LastName,
		&m.Phone, &m.Position, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
		&m.Username, &m.Email)
	if err != nil {
		return nil, err
	}
	return &m, nil
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

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
