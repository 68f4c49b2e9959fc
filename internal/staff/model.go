package staff

import "time"

// Member is a staff record. Every member is backed by a login account in the
// users table; provisioning creates both rows together.
type Member struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	BranchID  int64     `json:"branch_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Position  string    `json:"position"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// ProvisionInput carries the staff fields plus the credentials for the login
// account created alongside the staff row.
type ProvisionInput struct {
	BranchID  int64   `json:"branch_id" validate:"required"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Phone     string  `json:"phone"`
	Position  string  `json:"position" validate:"required"`
	Username  string  `json:"username" validate:"required,min=3"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	RoleIDs   []int64 `json:"role_ids"`
}

// UpdateInput carries the editable staff fields.
type UpdateInput struct {
	BranchID  int64  `json:"branch_id" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone"`
	Position  string `json:"position" validate:"required"`
}
