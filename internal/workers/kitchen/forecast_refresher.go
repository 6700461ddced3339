package kitchen

import (
	"context"
	"time"

	"smartkitchen/internal/domain/forecast"
	"smartkitchen/internal/workers"
	"smartkitchen/pkg/errors"
)

// Refresher regenerates and publishes one ingredient forecast
type Refresher interface {
	Refresh(ctx context.Context, ingredient string) (*forecast.Result, error)
}

// ForecastRefresher periodically rewrites the forecast files for configured ingredients
type ForecastRefresher struct {
	*workers.BaseWorker
	refresher   Refresher
	locker      Locker
	ingredients []string
}

// NewForecastRefresher creates the worker. An empty ingredient list refreshes the
// all-ingredients forecast; a nil locker disables cross-replica locking.
func NewForecastRefresher(refresher Refresher, locker Locker, ingredients []string, interval time.Duration, enabled bool) *ForecastRefresher {
	if len(ingredients) == 0 {
		ingredients = []string{""}
	}
	return &ForecastRefresher{
		BaseWorker:  workers.NewBaseWorker("forecast_refresher", interval, enabled),
		refresher:   refresher,
		locker:      locker,
		ingredients: ingredients,
	}
}

// Run refreshes every ingredient; one failing ingredient does not stop the rest
func (w *ForecastRefresher) Run(ctx context.Context) error {
	release, ok, err := acquire(ctx, w.locker, w.Name(), w.Interval())
	if err != nil {
		return err
	}
	if !ok {
		w.Log().Debug("forecast refresh held by another replica")
		return nil
	}
	defer release()

	var errs errors.MultiError
	refreshed := 0
	for _, ingredient := range w.ingredients {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := w.refresher.Refresh(ctx, ingredient)
		if err != nil {
			errs.Add(errors.Wrapf(err, "refresh %q", ingredient))
			continue
		}
		refreshed++
		w.Log().Info("forecast refreshed", "ingredient", ingredient, "points", len(result.Points))
	}

	w.Log().Info("forecast refresh finished", "refreshed", refreshed, "failed", len(errs.Errors))
	return errs.ToError()
}
