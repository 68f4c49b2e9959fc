package groups

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

const columns = `id, center_id, code, name, leader_name, created_at, updated_at`

func (r *Repository) List(ctx context.Context, centerID int64, filters shared.ListFilters) ([]Group, int, error) {
	search := "%" + filters.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM groups
		WHERE ($1 = 0 OR center_id = $1)
		  AND ($2 = '%%' OR code ILIKE $2 OR name ILIKE $2)`,
		centerID, search).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+columns+` FROM groups
		WHERE ($1 = 0 OR center_id = $1)
		  AND ($2 = '%%' OR code ILIKE $2 OR name ILIKE $2)
		ORDER BY code
		LIMIT $3 OFFSET $4`, centerID, search, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.CenterID, &g.Code, &g.Name, &g.LeaderName,
			&g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, 0, err
		}
		groups = append(groups, g)
	}
	return groups, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (*Group, error) {
	var g Group
	err := r.pool.QueryRow(ctx,
		`SELECT `+columns+` FROM groups WHERE id = $1`, id).
		Scan(&g.ID, &g.CenterID, &g.Code, &g.Name, &g.LeaderName, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *Repository) Create(ctx context.Context, g Group) (*Group, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO groups (center_id, code, name, leader_name)
		VALUES ($1, $2, $3, $4)
		RETURNING `+columns,
		g.CenterID, g.Code, g.Name, g.LeaderName).
		Scan(&g.ID, &g.CenterID, &g.Code, &g.Name, &g.LeaderName, &g.CreatedAt, &g.UpdatedAt)
	return &g, mapPGError(err)
}

func (r *Repository) Update(ctx context.Context, id int64, g Group) (*Group, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE groups
		SET center_id = $2, code = $3, name = $4, leader_name = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		id, g.CenterID, g.Code, g.Name, g.LeaderName).
		Scan(&g.ID, &g.CenterID, &g.Code, &g.Name, &g.LeaderName, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return &g, mapPGError(err)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
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
