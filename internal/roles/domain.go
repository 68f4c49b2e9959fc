package roles

import "github.com/meridian-mfb/meridian-mfb/internal/authz"

// Role aliases the authz entity; all behavior lives in the services.
type Role = authz.Role

// Input carries the editable role fields.
type Input struct {
	Name      string
	Hierarchy int
	IsDefault bool
}
