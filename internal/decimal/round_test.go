package decimal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name   string
		v      float64
		places int
		want   float64
	}{
		{"stored below half", 0.15, 1, 0.1},
		{"stored below half again", 0.35, 1, 0.3},
		{"stored above half", 0.45, 1, 0.5},
		{"exact tie rounds to even", 0.25, 1, 0.2},
		{"exact tie rounds up to even", 0.75, 1, 0.8},
		{"two places", 2.675, 2, 2.67},
		{"exact tie two places", 5.625, 2, 5.62},
		{"plain", 39.78, 1, 39.8},
		{"four places", 0.38, 4, 0.38},
		{"negative", -1.25, 1, -1.2},
		{"zero places", 2.5, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round(tt.v, tt.places))
		})
	}
}

func TestRound_NonFinite(t *testing.T) {
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
	assert.True(t, math.IsInf(Round(math.Inf(1), 2), 1))
}
