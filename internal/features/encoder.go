package features

import (
	"sort"
	"strings"
	"time"
)

// Calendar holds the date-derived features
type Calendar struct {
	Month     int
	DayOfWeek string
	IsWeekend int
}

// CalendarFeatures derives month, day name and weekend flag from a date
func CalendarFeatures(t time.Time) Calendar {
	day := t.Weekday().String()
	return Calendar{
		Month:     int(t.Month()),
		DayOfWeek: day,
		IsWeekend: IsWeekendDay(day),
	}
}

// IsWeekendDay returns 1 for Saturday and Sunday, 0 otherwise
func IsWeekendDay(day string) int {
	switch day {
	case "Saturday", "Sunday":
		return 1
	}
	return 0
}

// OneHotEncoder encodes categorical fields as drop-first indicator columns.
// The alphabetically first category of each field is the implied all-zero base.
type OneHotEncoder struct {
	fields []string

	// base category per field; empty when reconstructed from columns
	base map[string]string
	// indicator categories per field, sorted
	indicators map[string][]string
}

// NewOneHotEncoder creates an encoder for the given fields, in column order
func NewOneHotEncoder(fields ...string) *OneHotEncoder {
	return &OneHotEncoder{
		fields:     fields,
		base:       make(map[string]string),
		indicators: make(map[string][]string),
	}
}

// NewOneHotEncoderFromColumns recovers the indicator vocabulary from a
// training column list. The dropped base category cannot be recovered.
func NewOneHotEncoderFromColumns(fields, reference []string) *OneHotEncoder {
	e := NewOneHotEncoder(fields...)

	// Longest field first so "day_of_week" wins over a hypothetical "day"
	ordered := append([]string(nil), fields...)
	sort.Slice(ordered, func(i, j int) bool { return len(ordered[i]) > len(ordered[j]) })

	for _, col := range reference {
		for _, field := range ordered {
			prefix := field + "_"
			if strings.HasPrefix(col, prefix) && len(col) > len(prefix) {
				e.indicators[field] = append(e.indicators[field], col[len(prefix):])
				break
			}
		}
	}
	for field := range e.indicators {
		sort.Strings(e.indicators[field])
	}
	return e
}

// Fit records the sorted vocabulary of every field from observed values
func (e *OneHotEncoder) Fit(values map[string][]string) {
	for _, field := range e.fields {
		seen := make(map[string]bool)
		var vocab []string
		for _, v := range values[field] {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			vocab = append(vocab, v)
		}
		sort.Strings(vocab)

		if len(vocab) == 0 {
			delete(e.base, field)
			delete(e.indicators, field)
			continue
		}
		e.base[field] = vocab[0]
		e.indicators[field] = vocab[1:]
	}
}

// FitTable fits the vocabulary from the matching columns of a table
func (e *OneHotEncoder) FitTable(t *Table) {
	values := make(map[string][]string, len(e.fields))
	for _, field := range e.fields {
		values[field] = t.Column(field)
	}
	e.Fit(values)
}

// Fields returns the encoded fields
func (e *OneHotEncoder) Fields() []string {
	return e.fields
}

// Columns returns every indicator column in field order
func (e *OneHotEncoder) Columns() []string {
	var cols []string
	for _, field := range e.fields {
		for _, cat := range e.indicators[field] {
			cols = append(cols, field+"_"+cat)
		}
	}
	return cols
}

// Encode emits every indicator column of the fitted vocabulary for one row.
// It also returns "field=value" for categories the encoder has never seen;
// those encode as the all-zero base.
func (e *OneHotEncoder) Encode(values map[string]string) (map[string]float64, []string) {
	out := make(map[string]float64)
	var unseen []string

	for _, field := range e.fields {
		value := values[field]
		matched := false
		for _, cat := range e.indicators[field] {
			col := field + "_" + cat
			if cat == value {
				out[col] = 1
				matched = true
			} else {
				out[col] = 0
			}
		}
		if matched {
			continue
		}
		base, known := e.base[field]
		if known && value != base {
			unseen = append(unseen, field+"="+value)
		}
	}

	return out, unseen
}
