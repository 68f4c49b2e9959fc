package centers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

func TestValidateCenter(t *testing.T) {
	s := &Service{}

	valid := Center{BranchID: 1, Code: "CTR-001", Name: "Ikeja Market Center", MeetingDay: "Monday"}
	assert.NoError(t, s.validate(valid))

	tests := []struct {
		name   string
		center Center
	}{
		{"missing branch", Center{Code: "CTR-001", Name: "Ikeja Market Center"}},
		{"blank code", Center{BranchID: 1, Code: "  ", Name: "Ikeja Market Center"}},
		{"blank name", Center{BranchID: 1, Code: "CTR-001", Name: ""}},
		{"bad meeting day", Center{BranchID: 1, Code: "CTR-001", Name: "Ikeja Market Center", MeetingDay: "someday"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := s.validate(tc.center)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}
