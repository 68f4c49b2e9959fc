package customers

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

const columns = `id, group_id, first_name, last_name, phone, address, status,
	joined_at, created_at, updated_at`

// List returns customers matching the filters. The exited tombstone status is
// excluded unless the caller filters for it by name.
func (r *Repository) List(ctx context.Context, groupID int64, status string, filters shared.ListFilters) ([]Customer, int, error) {
	search := "%" + filters.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM customers
		WHERE ($1 = 0 OR group_id = $1)
		  AND (($2 = '' AND status <> 'exited') OR status = $2)
		  AND ($3 = '%%' OR first_name ILIKE $3 OR last_name ILIKE $3 OR phone ILIKE $3)`,
		groupID, status, search).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+columns+` FROM customers
		WHERE ($1 = 0 OR group_id = $1)
		  AND (($2 = '' AND status <> 'exited') OR status = $2)
		  AND ($3 = '%%' OR first_name ILIKE $3 OR last_name ILIKE $3 OR phone ILIKE $3)
		ORDER BY last_name, first_name
		LIMIT $4 OFFSET $5`, groupID, status, search, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, *c)
	}
	return customers, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (*Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+columns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return c, err
}

func (r *Repository) Create(ctx context.Context, in Input) (*Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, `
		INSERT INTO customers (group_id, first_name, last_name, phone, address, status, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING `+columns,
		in.GroupID, in.FirstName, in.LastName, in.Phone, in.Address, in.Status))
	return c, mapPGError(err)
}

func (r *Repository) Update(ctx context.Context, id int64, in Input) (*Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, `
		UPDATE customers
		SET group_id = $2, first_name = $3, last_name = $4, phone = $5,
		    address = $6, status = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		id, in.GroupID, in.FirstName, in.LastName, in.Phone, in.Address, in.Status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return c, mapPGError(err)
}

// Exit marks a customer as exited. The row is kept as a tombstone.
func (r *Repository) Exit(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET status = 'exited', updated_at = NOW()
		WHERE id = $1 AND status <> 'exited'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.GroupID, &c.FirstName, &c.LastName, &c.Phone,
		&c.Address, &c.Status, &c.JoinedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
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
