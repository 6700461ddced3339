package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartkitchen/pkg/errors"
)

func TestSniffColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    Sniffed
		wantErr bool
	}{
		{
			name:    "named columns",
			columns: []string{"ingredient", "date", "quantity"},
			want:    Sniffed{Date: "date", Target: "quantity"},
		},
		{
			name:    "candidate order wins",
			columns: []string{"y", "ds", "sales"},
			want:    Sniffed{Date: "ds", Target: "sales"},
		},
		{
			name:    "positional fallback",
			columns: []string{"when", "amount"},
			want:    Sniffed{Date: "when", Target: "amount"},
		},
		{
			name:    "target fallback skips date",
			columns: []string{"price", "timestamp"},
			want:    Sniffed{Date: "timestamp", Target: "price"},
		},
		{
			name:    "single column",
			columns: []string{"date"},
			wantErr: true,
		},
		{
			name:    "no columns",
			columns: nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SniffColumns(tt.columns, DateCandidates, TargetCandidates)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrSchema))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindColumn(t *testing.T) {
	col, err := FindColumn([]string{"date", "Product", "item"}, IngredientCandidates)
	require.NoError(t, err)
	assert.Equal(t, "item", col)

	_, err = FindColumn([]string{"date", "quantity"}, IngredientCandidates)
	assert.True(t, errors.Is(err, errors.ErrSchema))
}
