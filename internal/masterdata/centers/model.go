package centers

import "time"

// Center is a meeting point under a branch where customer groups convene.
type Center struct {
	ID         int64     `json:"id"`
	BranchID   int64     `json:"branch_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	MeetingDay string    `json:"meeting_day"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
