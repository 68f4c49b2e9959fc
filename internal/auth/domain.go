package auth

import "time"

// Lock reasons recorded when an account is deactivated, so the login gate
// can tell an administrative block apart from a threshold lockout without
// inspecting the failure counter.
const (
	LockReasonAutoThreshold = "auto_threshold"
	LockReasonManualAdmin   = "manual_admin"
)

// Account is a credential record. The security fields (FailedLoginAttempts,
// IsActive, LockedUntil, LockReason) are mutated only by the lockout state
// machine or an authorized admin unlock.
type Account struct {
	ID                  int64
	Username            string
	Email               string
	FullName            string
	PasswordHash        string
	IsActive            bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LockReason          string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
