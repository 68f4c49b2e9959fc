package centers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, branch_id, code, name, meeting_day, created_at, updated_at`

func (r *Repository) List(ctx context.Context, branchID int64, filters shared.ListFilters) ([]Center, int, error) {
	search := "%" + filters.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM centers
		WHERE ($1 = 0 OR branch_id = $1)
		  AND ($2 = '%%' OR code ILIKE $2 OR name ILIKE $2)`,
		branchID, search).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+columns+` FROM centers
		WHERE ($1 = 0 OR branch_id = $1)
		  AND ($2 = '%%' OR code ILIKE $2 OR name ILIKE $2)
		ORDER BY code
		LIMIT $3 OFFSET $4`, branchID, search, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var centers []Center
	for rows.Next() {
		var c Center
		if err := rows.Scan(&c.ID, &c.BranchID, &c.Code, &c.Name, &c.MeetingDay,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		centers = append(centers, c)
	}
	return centers, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (*Center, error) {
	var c Center
	err := r.pool.QueryRow(ctx,
		`SELECT `+columns+` FROM centers WHERE id = $1`, id).
		Scan(&c.ID, &c.BranchID, &c.Code, &c.Name, &c.MeetingDay, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) Create(ctx context.Context, c Center) (*Center, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO centers (branch_id, code, name, meeting_day)
		VALUES ($1, $2, $3, $4)
		RETURNING `+columns,
		c.BranchID, c.Code, c.Name, c.MeetingDay).
		Scan(&c.ID, &c.BranchID, &c.Code, &c.Name, &c.MeetingDay, &c.CreatedAt, &c.UpdatedAt)
	return &c, mapPGError(err)
}

func (r *Repository) Update(ctx context.Context, id int64, c Center) (*Center, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE centers
		SET branch_id = $2, code = $3, name = $4, meeting_day = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		id, c.BranchID, c.Code, c.Name, c.MeetingDay).
		Scan(&c.ID, &c.BranchID, &c.Code, &c.Name, &c.MeetingDay, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return &c, mapPGError(err)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM centers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
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
