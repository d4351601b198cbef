package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		constraint string
		wantErr    bool
	}{
		{"", false},
		{Version, false},
		{"^0.1", false},
		{">= 0.1.0, < 1.0.0", false},
		{"~0.1.0", false},
		{">= 1.0.0", true},
		{"< 0.1.0", true},
		{"not a version", true},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			err := CheckVersion(tt.constraint)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIncompatibleVersion)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
