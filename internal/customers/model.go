package customers

import "time"

// Customer lifecycle statuses. Exited customers stay in the table as
// tombstones and are excluded from listings unless asked for explicitly.
const (
	StatusActive  = "active"
	StatusDormant = "dormant"
	StatusExited  = "exited"
)

type Customer struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	JoinedAt  time.Time `json:"joined_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Input struct {
	GroupID   int64  `json:"group_id"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Status    string `json:"status" validate:"omitempty,oneof=active dormant exited"`
}
