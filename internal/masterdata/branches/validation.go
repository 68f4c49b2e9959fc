package branches

import (
	"fmt"
	"strings"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

func (s *Service) validate(b Branch) error {
	if strings.TrimSpace(b.Code) == "" {
		return fmt.Errorf("%w: branch code is required", shared.ErrValidation)
	}
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: branch name is required", shared.ErrValidation)
	}
	return nil
}
