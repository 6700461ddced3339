package forecasting

import (
	"context"
	"time"

	"smartkitchen/internal/domain/forecast"
	"smartkitchen/internal/features"
	"smartkitchen/pkg/logger"
)

// Pipeline turns a raw sales table into a forecast
type Pipeline struct {
	model *Model
	log   *logger.Logger
}

// NewPipeline creates a pipeline around model
func NewPipeline(model *Model) *Pipeline {
	return &Pipeline{
		model: model,
		log:   logger.Get().Component("forecast_pipeline"),
	}
}

// Run filters, cleans, aggregates, fits and predicts. An empty ingredient forecasts every row.
func (p *Pipeline) Run(ctx context.Context, table *features.Table, req forecast.Request) (*forecast.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.log.Debug("loaded sales data", "records", table.Len())

	if req.Ingredient != "" {
		filtered, err := FilterByIngredient(table, req.Ingredient)
		if err != nil {
			return nil, err
		}
		p.log.Debug("filtered by ingredient", "ingredient", req.Ingredient, "records", filtered.Len())
		table = filtered
	}

	obs, err := Preprocess(table)
	if err != nil {
		return nil, err
	}
	history := AggregateDaily(obs)
	p.log.Debug("aggregated daily history", "processed", len(obs), "days", len(history))

	fitted, err := p.model.Fit(history)
	if err != nil {
		return nil, err
	}

	periods := req.Periods
	if periods <= 0 {
		periods = forecast.PeriodsFor(0, 0)
	}
	points := fitted.Predict(periods)

	return &forecast.Result{
		Ingredient:  req.Ingredient,
		History:     len(history),
		Points:      points,
		Monthly:     MonthlySummary(points),
		GeneratedAt: time.Now().UTC(),
	}, nil
}
