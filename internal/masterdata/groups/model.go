package groups

import "time"

// Group is a solidarity group of customers attached to a center.
type Group struct {
	ID         int64     `json:"id"`
	CenterID   int64     `json:"center_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	LeaderName string    `json:"leader_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
