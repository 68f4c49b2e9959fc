package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-mfb/meridian-mfb/internal/platform/db"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// Repository defines persistence operations for the login path.
type Repository interface {
	FindByLogin(ctx context.Context, login string) (*Account, error)
	RecordFailure(ctx context.Context, userID int64) (FailureOutcome, error)
	RecordSuccess(ctx context.Context, userID int64) (bool, error)
	Unlock(ctx context.Context, userID int64) error
	ReleaseExpiredLocks(ctx context.Context, now time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id, username, email, full_name, password_hash, is_active,
	failed_login_attempts, locked_until, lock_reason, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var lockReason *string
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.FullName, &a.PasswordHash,
		&a.IsActive, &a.FailedLoginAttempts, &a.LockedUntil, &lockReason,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if lockReason != nil {
		a.LockReason = *lockReason
	}
	return &a, nil
}

// FindByLogin fetches an account by username or email.
func (r *PGRepository) FindByLogin(ctx context.Context, login string) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users WHERE username = $1 OR email = $1`, login)
	return scanAccount(row)
}

// RecordFailure applies one credential mismatch under a row lock so two
// concurrent failures cannot both read the same counter and skip the lock
// transition.
func (r *PGRepository) RecordFailure(ctx context.Context, userID int64) (FailureOutcome, error) {
	var outcome FailureOutcome
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		state, err := lockSecurityState(ctx, tx, userID)
		if err != nil {
			return err
		}
		outcome = ApplyFailure(state, time.Now().UTC())
		return writeSecurityState(ctx, tx, userID, outcome.State)
	})
	if err != nil {
		return FailureOutcome{}, err
	}
	return outcome, nil
}

// RecordSuccess resets the counter after a correct credential. Returns
// false when the row turned out to be locked under the lock, in which case
// nothing is written.
func (r *PGRepository) RecordSuccess(ctx context.Context, userID int64) (bool, error) {
	accepted := false
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		state, err := lockSecurityState(ctx, tx, userID)
		if err != nil {
			return err
		}
		next, ok := ApplySuccess(state)
		accepted = ok
		if !ok {
			return nil
		}
		return writeSecurityState(ctx, tx, userID, next)
	})
	if err != nil {
		return false, err
	}
	return accepted, nil
}

// Unlock force-resets the security state, the admin path.
func (r *PGRepository) Unlock(ctx context.Context, userID int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := lockSecurityState(ctx, tx, userID); err != nil {
			return err
		}
		return writeSecurityState(ctx, tx, userID, Unlocked())
	})
}

// ReleaseExpiredLocks reactivates accounts whose automatic lock window has
// passed. Administrative blocks are never touched.
func (r *PGRepository) ReleaseExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET is_active = TRUE, failed_login_attempts = 0,
		    locked_until = NULL, lock_reason = NULL, updated_at = NOW()
		WHERE is_active = FALSE
		  AND lock_reason = $1
		  AND locked_until IS NOT NULL
		  AND locked_until <= $2`, LockReasonAutoThreshold, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func lockSecurityState(ctx context.Context, tx pgx.Tx, userID int64) (SecurityState, error) {
	var s SecurityState
	var lockReason *string
	err := tx.QueryRow(ctx, `
		SELECT failed_login_attempts, is_active, lock_reason, locked_until
		FROM users WHERE id = $1 FOR UPDATE`, userID).
		Scan(&s.FailedAttempts, &s.IsActive, &lockReason, &s.LockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s, shared.ErrNotFound
		}
		return s, err
	}
	if lockReason != nil {
		s.LockReason = *lockReason
	}
	return s, nil
}

func writeSecurityState(ctx context.Context, tx pgx.Tx, userID int64, s SecurityState) error {
	var reason *string
	if s.LockReason != "" {
		reason = &s.LockReason
	}
	_, err := tx.Exec(ctx, `
		UPDATE users
		SET failed_login_attempts = $2, is_active = $3,
		    lock_reason = $4, locked_until = $5, updated_at = NOW()
		WHERE id = $1`,
		userID, s.FailedAttempts, s.IsActive, reason, s.LockedUntil)
	return err
}

var _ Repository = (*PGRepository)(nil)
