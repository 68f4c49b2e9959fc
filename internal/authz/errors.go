package authz

import (
	"fmt"
	"strings"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// EscalationError reports an attempted grant of permissions the actor does
// not itself hold. The offending subset is carried so the caller can tell
// the administrator exactly which selections to revert.
type EscalationError struct {
	Unauthorized []string
}

func (e *EscalationError) Error() string {
	return fmt.Sprintf("cannot grant permissions not held: %s", strings.Join(e.Unauthorized, ", "))
}

// Is makes EscalationError match shared.ErrForbidden in errors.Is chains.
func (e *EscalationError) Is(target error) bool {
	return target == shared.ErrForbidden
}

// UnauthorizedError reports a role or user mutation the actor lacks the
// rank or permission to perform.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return e.Reason
}

// Is makes UnauthorizedError match shared.ErrForbidden in errors.Is chains.
func (e *UnauthorizedError) Is(target error) bool {
	return target == shared.ErrForbidden
}
