package features

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"smartkitchen/pkg/errors"
)

// Table is an in-memory CSV dataset with a header row
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a table from a header and rows
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// ReadCSV parses a CSV stream whose first record is the header
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrSchema, "csv has no header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv record")
		}
		// Pad short records so column lookups never go out of range
		for len(record) < len(header) {
			record = append(record, "")
		}
		rows = append(rows, record)
	}

	return NewTable(header, rows), nil
}

// LoadCSV reads a CSV file from disk
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "data file not found at %s", path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return t, nil
}

// WriteCSV writes the header and rows as CSV
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return errors.Wrap(err, "write csv rows")
	}
	return nil
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of a column or -1
func (t *Table) Index(name string) int {
	if t.index == nil {
		t.reindex()
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the header contains name
func (t *Table) HasColumn(name string) bool {
	return t.Index(name) >= 0
}

// Value returns the cell of row under column name, or "" when absent
func (t *Table) Value(row []string, name string) string {
	i := t.Index(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Float parses the cell of row under column name
func (t *Table) Float(row []string, name string) (float64, error) {
	v := t.Value(row, name)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.NewValidationError(name, "not a number", v)
	}
	return f, nil
}

// Column returns every value of a column
func (t *Table) Column(name string) []string {
	i := t.Index(name)
	if i < 0 {
		return nil
	}
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, strings.TrimSpace(row[i]))
	}
	return out
}

// Filter returns a table with the rows matching pred; the header is shared
func (t *Table) Filter(pred func(row []string) bool) *Table {
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if pred(row) {
			rows = append(rows, row)
		}
	}
	return NewTable(t.Columns, rows)
}

// Unique returns the distinct non-empty values of a column in first-seen order
func (t *Table) Unique(name string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range t.Column(name) {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
