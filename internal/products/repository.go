package products

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

const columns = `id, kind, code, name, interest_rate, min_amount, max_amount,
	tenor_months, is_active, created_at, updated_at`

func (r *Repository) List(ctx context.Context, kind string, filters shared.ListFilters) ([]Product, int, error) {
	search := "%" + filters.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM products
		WHERE ($1 = '' OR kind = $1)
		  AND ($2 = '%%' OR code ILIKE $2 OR name ILIKE $2)`,
		kind, search).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+columns+` FROM products
		WHERE ($1 = '' OR kind = $1)
		  AND ($2 = '%%' OR code ILIKE $2 OR name ILIKE $2)
		ORDER BY kind, code
		LIMIT $3 OFFSET $4`, kind, search, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+columns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return p, err
}

func (r *Repository) Create(ctx context.Context, in Input) (*Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `
		INSERT INTO products (kind, code, name, interest_rate, min_amount, max_amount, tenor_months, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+columns,
		in.Kind, in.Code, in.Name, in.InterestRate, in.MinAmount, in.MaxAmount,
		in.TenorMonths, in.IsActive))
	return p, mapPGError(err)
}

func (r *Repository) Update(ctx context.Context, id int64, in Input) (*Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `
		UPDATE products
		SET kind = $2, code = $3, name = $4, interest_rate = $5, min_amount = $6,
		    max_amount = $7, tenor_months = $8, is_active = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		id, in.Kind, in.Code, in.Name, in.InterestRate, in.MinAmount, in.MaxAmount,
		in.TenorMonths, in.IsActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return p, mapPGError(err)
}

// Deactivate retires a product. Rows are never deleted because historical
// accounts reference them.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Kind, &p.Code, &p.Name, &p.InterestRate,
		&p.MinAmount, &p.MaxAmount, &p.TenorMonths, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
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
