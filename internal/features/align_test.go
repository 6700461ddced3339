package features

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartkitchen/pkg/errors"
)

func TestAlign_Statuses(t *testing.T) {
	reference := []string{"month", "is_weekend", "category_Main"}

	tests := []struct {
		name       string
		row        map[string]float64
		status     AlignmentStatus
		vector     []float64
		zeroFilled []string
		dropped    []string
	}{
		{
			name:   "exact",
			row:    map[string]float64{"month": 3, "is_weekend": 1, "category_Main": 1},
			status: StatusExact,
			vector: []float64{3, 1, 1},
		},
		{
			name:       "zero filled",
			row:        map[string]float64{"month": 3},
			status:     StatusZeroFilled,
			vector:     []float64{3, 0, 0},
			zeroFilled: []string{"is_weekend", "category_Main"},
		},
		{
			name:    "dropped unknown",
			row:     map[string]float64{"month": 3, "is_weekend": 0, "category_Main": 0, "weather_Snowy": 1, "category_New": 1},
			status:  StatusDroppedUnknown,
			vector:  []float64{3, 0, 0},
			dropped: []string{"category_New", "weather_Snowy"},
		},
		{
			name:       "both",
			row:        map[string]float64{"month": 12, "price": 9.5},
			status:     StatusZeroFilledAndDropped,
			vector:     []float64{12, 0, 0},
			zeroFilled: []string{"is_weekend", "category_Main"},
			dropped:    []string{"price"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Align(tt.row, reference, PolicyPermissive)
			require.NoError(t, err)

			assert.Equal(t, tt.status, a.Status())
			assert.Equal(t, reference, a.Columns)
			assert.Equal(t, tt.vector, a.Vector)
			assert.Equal(t, tt.zeroFilled, a.ZeroFilled)
			assert.Equal(t, tt.dropped, a.Dropped)
		})
	}
}

func TestAlign_Strict(t *testing.T) {
	reference := []string{"a", "b"}

	_, err := Align(map[string]float64{"a": 1, "b": 2}, reference, PolicyStrict)
	require.NoError(t, err)

	a, err := Align(map[string]float64{"a": 1}, reference, PolicyStrict)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSchema))
	assert.Equal(t, []float64{1, 0}, a.Vector)
}

// Whatever the request encodes to, the vector has exactly the reference columns in order.
func TestAlign_AlwaysReferenceShape(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		reference := make([]string, rng.Intn(12))
		for i := range reference {
			reference[i] = fmt.Sprintf("ref_%d", i)
		}

		row := make(map[string]float64)
		for i := 0; i < rng.Intn(16); i++ {
			if rng.Intn(2) == 0 && len(reference) > 0 {
				row[reference[rng.Intn(len(reference))]] = rng.Float64()
			} else {
				row[fmt.Sprintf("extra_%d", rng.Intn(20))] = rng.Float64()
			}
		}

		a, err := Align(row, reference, PolicyPermissive)
		require.NoError(t, err)
		require.Equal(t, reference, a.Columns)
		require.Len(t, a.Vector, len(reference))

		for i, col := range reference {
			assert.Equal(t, row[col], a.Vector[i])
		}
		assert.Equal(t, len(reference), len(a.ZeroFilled)+countPresent(row, reference))
	}
}

func countPresent(row map[string]float64, reference []string) int {
	n := 0
	for _, col := range reference {
		if _, ok := row[col]; ok {
			n++
		}
	}
	return n
}

func TestAlignment_JSON(t *testing.T) {
	a, _ := Align(map[string]float64{"x": 1}, []string{"y"}, PolicyPermissive)

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"zero_filled_and_dropped","zero_filled":["y"],"dropped":["x"]}`, string(data))
	assert.Equal(t, []float32{0}, a.Float32())
}

func TestLoadReference(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "features.json")
	require.NoError(t, os.WriteFile(path, []byte(`["month","lag_1"]`), 0o644))
	cols, err := LoadReference(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"month", "lag_1"}, cols)

	_, err = LoadReference(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[]`), 0o644))
	_, err = LoadReference(bad)
	assert.True(t, errors.Is(err, errors.ErrSchema))
}
