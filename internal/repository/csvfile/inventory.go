package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"smartkitchen/internal/domain/waste"
	"smartkitchen/internal/features"
	"smartkitchen/pkg/errors"
)

// InventoryColumns is the header of the inventory dataset
var InventoryColumns = []string{"item_name", "expiry_date", "category", "storage_condition", "waste_risk"}

// InventoryRepository reads and writes the inventory dataset
type InventoryRepository struct {
	path string
}

// NewInventoryRepository creates a repository over path
func NewInventoryRepository(path string) *InventoryRepository {
	return &InventoryRepository{path: path}
}

var _ waste.Repository = (*InventoryRepository)(nil)

// Inventory loads every record
func (r *InventoryRepository) Inventory(ctx context.Context) ([]waste.InventoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := features.LoadCSV(r.path)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"item_name", "category", "storage_condition"} {
		if !t.HasColumn(col) {
			return nil, errors.Wrapf(errors.ErrSchema, "%s: missing column %s", r.path, col)
		}
	}

	out := make([]waste.InventoryRecord, 0, t.Len())
	for _, row := range t.Rows {
		risk, _ := strconv.Atoi(t.Value(row, "waste_risk"))
		out = append(out, waste.InventoryRecord{
			ItemName:         t.Value(row, "item_name"),
			ExpiryDate:       t.Value(row, "expiry_date"),
			Category:         t.Value(row, "category"),
			StorageCondition: t.Value(row, "storage_condition"),
			WasteRisk:        risk,
		})
	}
	return out, nil
}

// Save writes records, creating parent directories
func (r *InventoryRepository) Save(ctx context.Context, records []waste.InventoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.ItemName,
			rec.ExpiryDate,
			rec.Category,
			rec.StorageCondition,
			strconv.Itoa(rec.WasteRisk),
		})
	}
	return WriteTable(r.path, features.NewTable(InventoryColumns, rows))
}

// WriteTable writes t to path as CSV, creating parent directories
func WriteTable(path string, t *features.Table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := t.WriteCSV(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return f.Close()
}
