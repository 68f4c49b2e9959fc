package users

import (
	"time"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
)

// User is the management view of an account: identity plus security state
// plus loaded role assignments.
type User struct {
	ID                  int64        `json:"id"`
	Username            string       `json:"username"`
	Email               string       `json:"email"`
	FullName            string       `json:"full_name"`
	IsActive            bool         `json:"is_active"`
	FailedLoginAttempts int          `json:"failed_login_attempts"`
	LockedUntil         *time.Time   `json:"locked_until,omitempty"`
	LockReason          string       `json:"lock_reason,omitempty"`
	Roles               []authz.Role `json:"roles"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// CreateInput carries the fields for provisioning a user account.
type CreateInput struct {
	Username string
	Email    string
	FullName string
	Password string
	RoleIDs  []int64
}

// UpdateInput carries the editable identity fields.
type UpdateInput struct {
	Email    string
	FullName string
}
