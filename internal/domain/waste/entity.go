package waste

import (
	"context"
	"math"
	"strings"
	"time"

	"smartkitchen/pkg/errors"
)

// ExpiryLayout is the dd-mm-yyyy date format of inventory records
const ExpiryLayout = "02-01-2006"

// Item is an inventory entry scored for waste risk
type Item struct {
	ItemName         string  `json:"item_name"`
	ExpiryDate       string  `json:"expiry_date"`
	Quantity         int     `json:"quantity"`
	UsedQuantity     float64 `json:"used_quantity"`
	Category         string  `json:"category"`
	StorageCondition string  `json:"storage_condition"`
}

// Validate checks the fields the model needs
func (i Item) Validate() error {
	if strings.TrimSpace(i.ItemName) == "" {
		return errors.NewValidationError("item_name", "is required", i.ItemName)
	}
	if _, err := i.Expiry(); err != nil {
		return err
	}
	if i.Category == "" {
		return errors.NewValidationError("category", "is required", i.Category)
	}
	if i.StorageCondition == "" {
		return errors.NewValidationError("storage_condition", "is required", i.StorageCondition)
	}
	return nil
}

// Expiry parses the expiry date
func (i Item) Expiry() (time.Time, error) {
	t, err := time.ParseInLocation(ExpiryLayout, strings.TrimSpace(i.ExpiryDate), time.Local)
	if err != nil {
		return time.Time{}, errors.NewValidationError("expiry_date", "expected dd-mm-yyyy", i.ExpiryDate)
	}
	return t, nil
}

// DaysToExpiry is the whole number of days from now to expiry, rounded down
func DaysToExpiry(expiry, now time.Time) int {
	return int(math.Floor(expiry.Sub(now).Hours() / 24))
}

// Risk is the waste classification
type Risk string

const (
	RiskAtRisk Risk = "At Risk"
	RiskSafe   Risk = "Safe"
)

// RiskFromLabel maps the model's class (1 = at risk)
func RiskFromLabel(label int64) Risk {
	if label == 1 {
		return RiskAtRisk
	}
	return RiskSafe
}

// RuleRisk applies the inventory labelling rule: expiring within riskDays is at risk
func RuleRisk(daysToExpiry, riskDays int) Risk {
	if daysToExpiry <= riskDays {
		return RiskAtRisk
	}
	return RiskSafe
}

// Assessment is the scored item
type Assessment struct {
	ItemName     string  `json:"item_name"`
	WasteRisk    Risk    `json:"waste_risk"`
	ModelUsed    string  `json:"model_used"`
	DaysToExpiry int     `json:"days_to_expiry"`
	Confidence   float64 `json:"confidence,omitempty"`
	// labels the classifier was not trained on; the rule answers for these items
	UnseenLabels []string `json:"unseen_labels,omitempty"`
}

// InventoryRecord is one row of the inventory dataset
type InventoryRecord struct {
	ItemName         string
	ExpiryDate       string
	Category         string
	StorageCondition string
	WasteRisk        int
}

// Item converts the record to a scoring request
func (r InventoryRecord) Item() Item {
	return Item{
		ItemName:         r.ItemName,
		ExpiryDate:       r.ExpiryDate,
		Category:         r.Category,
		StorageCondition: r.StorageCondition,
	}
}

// Repository loads the inventory dataset
type Repository interface {
	Inventory(ctx context.Context) ([]InventoryRecord, error)
}
