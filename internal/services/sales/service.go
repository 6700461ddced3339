package sales

import (
	"context"
	"math"
	"time"

	"smartkitchen/internal/domain/prediction"
	"smartkitchen/internal/domain/sales"
	"smartkitchen/internal/features"
	"smartkitchen/internal/metrics"
	"smartkitchen/internal/ml"
	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

// ModelName is the registry name of the sales regressor
const ModelName = "sales_model"

// Regressor predicts one value from an aligned feature row
type Regressor interface {
	ml.Model
	Predict(row []float32) (float64, error)
}

// Config holds the service settings
type Config struct {
	Reference []string
	Policy    features.Policy
}

// Service predicts quantity sold for a sale context
type Service struct {
	repo     sales.Repository
	registry *ml.Registry
	recorder prediction.Recorder
	resolver *features.LagResolver
	cfg      Config
	log      *logger.Logger
}

// NewService creates the service. The history is re-read on every prediction.
func NewService(cfg Config, repo sales.Repository, registry *ml.Registry, recorder prediction.Recorder) (*Service, error) {
	if len(cfg.Reference) == 0 {
		return nil, errors.Wrap(errors.ErrSchema, "sales feature list is empty")
	}
	return &Service{
		repo:     repo,
		registry: registry,
		recorder: recorder,
		resolver: features.NewLagResolver(),
		cfg:      cfg,
		log:      logger.Get().Component("sales_service"),
	}, nil
}

// Reference returns the training column list
func (s *Service) Reference() []string {
	return s.cfg.Reference
}

// Predict returns the predicted quantity rounded to 2 decimals
func (s *Service) Predict(ctx context.Context, in sales.SaleContext) (result *sales.Prediction, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, in, result, start, err) }()

	if err := validate(in); err != nil {
		return nil, err
	}

	history, err := s.repo.History(ctx)
	if err != nil {
		return nil, err
	}

	row, unseen := s.BuildRow(in, history)
	if len(unseen) > 0 {
		s.log.Warn("unseen categories encode as base category", "unseen", unseen)
	}

	alignment, err := features.Align(row, s.cfg.Reference, s.cfg.Policy)
	metrics.RecordAlignment(prediction.ServiceSales, string(alignment.Status()))
	if !alignment.Exact() {
		s.log.Warn("feature drift",
			"status", alignment.Status(),
			"zero_filled", alignment.ZeroFilled,
			"dropped", alignment.Dropped,
		)
	}
	if err != nil {
		return nil, err
	}

	model, err := ml.Lookup[Regressor](ctx, s.registry, ModelName)
	if err != nil {
		return nil, err
	}
	value, err := model.Predict(alignment.Float32())
	if err != nil {
		return nil, errors.Join(errors.ErrPrediction, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, errors.Wrapf(errors.ErrPrediction, "model returned %v", value)
	}

	return &sales.Prediction{
		PredictedSales: features.Round(value, 2),
		Alignment:      alignment,
		Unseen:         unseen,
	}, nil
}

// BuildRow assembles the named feature row for one request
func (s *Service) BuildRow(in sales.SaleContext, history []sales.Record) (map[string]float64, []string) {
	encoder := features.NewOneHotEncoder(sales.CategoricalFields...)
	encoder.Fit(categoryValues(history))
	row, unseen := encoder.Encode(in.Categories())

	lagRecords := make([]features.LagRecord, len(history))
	for i, r := range history {
		lagRecords[i] = r.LagRecord()
	}
	lags := s.resolver.Resolve(lagRecords, in.Category)
	for k, v := range lags.Map() {
		row[k] = v
	}

	row["month"] = float64(in.Month)
	row["is_weekend"] = float64(in.IsWeekend)
	row["holiday"] = float64(in.Holiday)
	row["price"] = in.Price
	row["price_normalized"] = lags.PriceNormalized(in.Price)
	if in.Holiday != 0 && in.IsWeekend != 0 {
		row["holiday_weekend"] = 1
	} else {
		row["holiday_weekend"] = 0
	}

	expected := make(map[string]bool, len(s.cfg.Reference))
	for _, c := range s.cfg.Reference {
		expected[c] = true
	}
	for name := range optionalFeatures {
		if !expected[name] {
			delete(row, name)
		}
	}
	return row, unseen
}

func (s *Service) observe(ctx context.Context, in sales.SaleContext, out *sales.Prediction, start time.Time, err error) {
	latency := time.Since(start)
	metrics.RecordPrediction(prediction.ServiceSales, ModelName, latency, err)

	entry := prediction.NewLog(prediction.ServiceSales, ModelName)
	entry.Latency = latency
	if out != nil {
		entry.Alignment = string(out.Alignment.Status())
		entry.SetPayload(in, out)
	} else {
		entry.SetPayload(in, nil)
	}
	entry.Fail(err)

	if rerr := s.recorder.Record(ctx, entry); rerr != nil {
		s.log.Warn("failed to record prediction", "error", rerr)
	}
}

func validate(in sales.SaleContext) error {
	if in.Month < 1 || in.Month > 12 {
		return errors.NewValidationError("month", "must be between 1 and 12", in.Month)
	}
	if in.IsWeekend != 0 && in.IsWeekend != 1 {
		return errors.NewValidationError("is_weekend", "must be 0 or 1", in.IsWeekend)
	}
	if in.Holiday != 0 && in.Holiday != 1 {
		return errors.NewValidationError("holiday", "must be 0 or 1", in.Holiday)
	}
	if in.Category == "" {
		return errors.NewValidationError("category", "is required", in.Category)
	}
	return nil
}
