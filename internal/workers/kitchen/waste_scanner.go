package kitchen

import (
	"context"
	"time"

	"smartkitchen/internal/domain/waste"
	wasteservice "smartkitchen/internal/services/waste"
	"smartkitchen/internal/workers"
	"smartkitchen/pkg/errors"
)

// Scanner scores the whole inventory
type Scanner interface {
	Scan(ctx context.Context, repo waste.Repository) (*wasteservice.ScanResult, error)
}

// AlertPublisher publishes at-risk items
type AlertPublisher interface {
	PublishWasteAlert(ctx context.Context, item waste.Item, a waste.Assessment) error
}

// WasteScanner periodically scores the inventory and publishes an alert per at-risk item
type WasteScanner struct {
	*workers.BaseWorker
	scanner   Scanner
	repo      waste.Repository
	publisher AlertPublisher
	locker    Locker
}

// NewWasteScanner creates the worker; a nil publisher only logs flagged items
func NewWasteScanner(scanner Scanner, repo waste.Repository, publisher AlertPublisher, locker Locker, interval time.Duration, enabled bool) *WasteScanner {
	return &WasteScanner{
		BaseWorker: workers.NewBaseWorker("waste_scanner", interval, enabled),
		scanner:    scanner,
		repo:       repo,
		publisher:  publisher,
		locker:     locker,
	}
}

func (w *WasteScanner) Run(ctx context.Context) error {
	release, ok, err := acquire(ctx, w.locker, w.Name(), w.Interval())
	if err != nil {
		return err
	}
	if !ok {
		w.Log().Debug("waste scan held by another replica")
		return nil
	}
	defer release()

	result, err := w.scanner.Scan(ctx, w.repo)
	if err != nil {
		return errors.Wrap(err, "inventory scan failed")
	}

	var errs errors.MultiError
	for _, f := range result.AtRisk {
		w.Log().Info("item at risk",
			"item", f.Item.ItemName,
			"days_to_expiry", f.Assessment.DaysToExpiry,
			"model", f.Assessment.ModelUsed,
		)
		if w.publisher == nil {
			continue
		}
		if err := w.publisher.PublishWasteAlert(ctx, f.Item, f.Assessment); err != nil {
			errs.Add(errors.Wrapf(err, "publish alert for %q", f.Item.ItemName))
		}
	}

	w.Log().Info("waste scan finished",
		"scored", result.Scored,
		"skipped", result.Skipped,
		"at_risk", len(result.AtRisk),
	)
	return errs.ToError()
}
