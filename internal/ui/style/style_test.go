package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zen/internal/ui/style"
)

func TestForState(t *testing.T) {
	tests := []struct {
		state domain.State
		icon  string
	}{
		{domain.StateDone, style.Check},
		{domain.StateFailed, style.Cross},
		{domain.StateSkippedNoChange, style.Skip},
		{domain.StateSkippedNoSources, style.Skip},
		{domain.StateCompiling, style.Arrow},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			icon, _ := style.ForState(tt.state)
			assert.Equal(t, tt.icon, icon)
		})
	}
}
