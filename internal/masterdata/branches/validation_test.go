package branches

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

func TestValidateBranch(t *testing.T) {
	s := &Service{}

	assert.NoError(t, s.validate(Branch{Code: "MER-HQ", Name: "Head Office Ikeja"}))
	assert.ErrorIs(t, s.validate(Branch{Name: "Head Office Ikeja"}), shared.ErrValidation)
	assert.ErrorIs(t, s.validate(Branch{Code: "MER-HQ", Name: "   "}), shared.ErrValidation)
}
