package branches

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, code, name, address, phone, is_active, created_at, updated_at`

// List returns branches matching the filters.
func (r *Repository) List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error) {
	search := "%" + filters.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM branches
		WHERE ($1 = '%%' OR code ILIKE $1 OR name ILIKE $1)`, search).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+columns+` FROM branches
		WHERE ($1 = '%%' OR code ILIKE $1 OR name ILIKE $1)
		ORDER BY code
		LIMIT $2 OFFSET $3`, search, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var branches []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Code, &b.Name, &b.Address, &b.Phone,
			&b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		branches = append(branches, b)
	}
	return branches, total, rows.Err()
}

// Get fetches a branch by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Branch, error) {
	var b Branch
	err := r.pool.QueryRow(ctx,
		`SELECT `+columns+` FROM branches WHERE id = $1`, id).
		Scan(&b.ID, &b.Code, &b.Name, &b.Address, &b.Phone,
			&b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts a branch.
func (r *Repository) Create(ctx context.Context, b Branch) (*Branch, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO branches (code, name, address, phone, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING `+columns,
		b.Code, b.Name, b.Address, b.Phone).
		Scan(&b.ID, &b.Code, &b.Name, &b.Address, &b.Phone,
			&b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	return &b, mapPGError(err)
}

// Update edits a branch.
func (r *Repository) Update(ctx context.Context, id int64, b Branch) (*Branch, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE branches
		SET code = $2, name = $3, address = $4, phone = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		id, b.Code, b.Name, b.Address, b.Phone, b.IsActive).
		Scan(&b.ID, &b.Code, &b.Name, &b.Address, &b.Phone,
			&b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return &b, mapPGError(err)
}

// Delete removes a branch.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM branches WHERE id = $1`, id)
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
