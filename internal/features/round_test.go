package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 21.46, Round(21.4567, 2))
	assert.Equal(t, -1.24, Round(-1.235, 2))
	assert.Equal(t, 3.0, Round(2.999, 2))
}

func TestRound_NonFinite(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
		assert.True(t, math.IsInf(Round(math.Inf(1), 2), 1))
		assert.True(t, math.IsInf(Round(math.Inf(-1), 2), -1))
	})
}
