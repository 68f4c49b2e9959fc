package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

func TestListRejectsUnknownStatus(t *testing.T) {
	s := &Service{}

	_, _, err := s.List(context.Background(), 0, "archived", shared.ListFilters{})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
