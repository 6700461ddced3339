package waste

import (
	"sort"
	"strings"

	"smartkitchen/pkg/errors"
)

// LabelEncoder maps classes to their index in sorted order
type LabelEncoder struct {
	field   string
	classes []string
	index   map[string]int
}

// FitLabelEncoder learns the sorted distinct classes of values
func FitLabelEncoder(field string, values []string) (*LabelEncoder, error) {
	seen := make(map[string]bool)
	var classes []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		classes = append(classes, v)
	}
	if len(classes) == 0 {
		return nil, errors.Wrapf(errors.ErrSchema, "no values to fit %s encoder", field)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelEncoder{field: field, classes: classes, index: index}, nil
}

// Transform returns the index of value; unknown values are a validation error
func (e *LabelEncoder) Transform(value string) (int, error) {
	i, ok := e.index[value]
	if !ok {
		return 0, errors.NewValidationError(e.field, "unknown label, expected one of "+strings.Join(e.classes, ", "), value)
	}
	return i, nil
}

// Knows reports whether value was seen at fit time
func (e *LabelEncoder) Knows(value string) bool {
	_, ok := e.index[value]
	return ok
}

// Classes returns the sorted classes
func (e *LabelEncoder) Classes() []string {
	return e.classes
}
