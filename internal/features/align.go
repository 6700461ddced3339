package features

import (
	"encoding/json"
	"os"
	"sort"

	"smartkitchen/pkg/errors"
)

// Policy decides what a column mismatch does
type Policy int

const (
	// PolicyPermissive zero-fills missing columns and drops unknown ones
	PolicyPermissive Policy = iota
	// PolicyStrict fails on any mismatch
	PolicyStrict
)

// PolicyFor maps a strict flag to a policy
func PolicyFor(strict bool) Policy {
	if strict {
		return PolicyStrict
	}
	return PolicyPermissive
}

// AlignmentStatus summarises how a row matched the reference columns
type AlignmentStatus string

const (
	StatusExact                AlignmentStatus = "exact"
	StatusZeroFilled           AlignmentStatus = "zero_filled"
	StatusDroppedUnknown       AlignmentStatus = "dropped_unknown"
	StatusZeroFilledAndDropped AlignmentStatus = "zero_filled_and_dropped"
)

// Alignment is a feature row reindexed against the training columns
type Alignment struct {
	Vector     []float64 `json:"-"`
	Columns    []string  `json:"-"`
	ZeroFilled []string  `json:"zero_filled,omitempty"`
	Dropped    []string  `json:"dropped,omitempty"`
}

// Status classifies the alignment
func (a Alignment) Status() AlignmentStatus {
	switch {
	case len(a.ZeroFilled) > 0 && len(a.Dropped) > 0:
		return StatusZeroFilledAndDropped
	case len(a.ZeroFilled) > 0:
		return StatusZeroFilled
	case len(a.Dropped) > 0:
		return StatusDroppedUnknown
	default:
		return StatusExact
	}
}

// Exact reports whether no column was filled or dropped
func (a Alignment) Exact() bool {
	return a.Status() == StatusExact
}

// Float32 returns the vector as model input
func (a Alignment) Float32() []float32 {
	out := make([]float32, len(a.Vector))
	for i, v := range a.Vector {
		out[i] = float32(v)
	}
	return out
}

// MarshalJSON adds the status to the diagnostic fields
func (a Alignment) MarshalJSON() ([]byte, error) {
	type diag struct {
		Status     AlignmentStatus `json:"status"`
		ZeroFilled []string        `json:"zero_filled,omitempty"`
		Dropped    []string        `json:"dropped,omitempty"`
	}
	return json.Marshal(diag{Status: a.Status(), ZeroFilled: a.ZeroFilled, Dropped: a.Dropped})
}

// Align reindexes row against reference. The vector always has exactly the
// reference columns in reference order. Under PolicyStrict a mismatch also
// returns an ErrSchema error alongside the alignment.
func Align(row map[string]float64, reference []string, policy Policy) (Alignment, error) {
	a := Alignment{
		Vector:  make([]float64, len(reference)),
		Columns: reference,
	}

	known := make(map[string]bool, len(reference))
	for i, col := range reference {
		known[col] = true
		v, ok := row[col]
		if !ok {
			a.ZeroFilled = append(a.ZeroFilled, col)
			continue
		}
		a.Vector[i] = v
	}

	for col := range row {
		if !known[col] {
			a.Dropped = append(a.Dropped, col)
		}
	}
	sort.Strings(a.Dropped)

	if policy == PolicyStrict && !a.Exact() {
		return a, errors.Wrapf(errors.ErrSchema, "feature mismatch: missing %v, unknown %v", a.ZeroFilled, a.Dropped)
	}
	return a, nil
}

// LoadReference reads a training column list stored as a JSON array
func LoadReference(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "feature list not found at %s", path)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}

	var cols []string
	if err := json.Unmarshal(data, &cols); err != nil {
		return nil, errors.Wrapf(errors.ErrSchema, "parse feature list %s: %v", path, err)
	}
	if len(cols) == 0 {
		return nil, errors.Wrapf(errors.ErrSchema, "feature list %s is empty", path)
	}
	return cols, nil
}
