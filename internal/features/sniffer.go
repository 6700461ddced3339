package features

import (
	"smartkitchen/pkg/errors"
)

// Candidate column names, checked in order
var (
	DateCandidates       = []string{"date", "Date", "DATE", "ds", "timestamp", "Timestamp"}
	TargetCandidates     = []string{"sales", "Sales", "SALES", "quantity", "Quantity", "y", "consumption"}
	IngredientCandidates = []string{"ingredient", "Ingredient", "INGREDIENT", "item", "Item", "product", "Product"}
)

// Sniffed holds the columns picked for dates and target values
type Sniffed struct {
	Date   string
	Target string
}

// SniffColumns locates the date and target columns of a dataset.
// Unmatched dates fall back to the first column, unmatched targets to the
// first column that is not the date column.
func SniffColumns(columns, dateCandidates, targetCandidates []string) (Sniffed, error) {
	if len(columns) == 0 {
		return Sniffed{}, errors.Wrap(errors.ErrSchema, "dataset has no columns")
	}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	var s Sniffed
	for _, c := range dateCandidates {
		if present[c] {
			s.Date = c
			break
		}
	}
	if s.Date == "" {
		s.Date = columns[0]
	}

	for _, c := range targetCandidates {
		if present[c] && c != s.Date {
			s.Target = c
			break
		}
	}
	if s.Target == "" {
		for _, c := range columns {
			if c != s.Date {
				s.Target = c
				break
			}
		}
	}
	if s.Target == "" {
		return Sniffed{}, errors.Wrapf(errors.ErrSchema, "no target column besides date column %q", s.Date)
	}

	return s, nil
}

// FindColumn returns the first candidate present in columns.
// There is no positional fallback.
func FindColumn(columns, candidates []string) (string, error) {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	for _, c := range candidates {
		if present[c] {
			return c, nil
		}
	}
	return "", errors.Wrapf(errors.ErrSchema, "none of %v found in columns %v", candidates, columns)
}
