package waste

import (
	"context"
	"time"

	"smartkitchen/internal/domain/prediction"
	"smartkitchen/internal/domain/waste"
	"smartkitchen/internal/fallback"
	"smartkitchen/internal/features"
	"smartkitchen/internal/metrics"
	"smartkitchen/internal/ml"
	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

const (
	// ModelName is the registry name of the waste classifier
	ModelName = "waste_model"
	// RuleName is reported when the expiry rule answered
	RuleName = "expiry_rule"
)

// Classifier predicts the waste class of an aligned feature row
type Classifier interface {
	ml.Model
	Predict(row []float32) (ml.Classification, error)
}

// Config holds the service settings
type Config struct {
	Features []string
	RiskDays int
	Policy   features.Policy
}

type scoring struct {
	item waste.Item
	days int
}

// Service scores inventory items for waste risk
type Service struct {
	cfg      Config
	registry *ml.Registry
	recorder prediction.Recorder
	chain    *fallback.Chain[scoring, waste.Assessment]
	log      *logger.Logger

	category *waste.LabelEncoder
	storage  *waste.LabelEncoder

	now func() time.Time
}

// NewService creates the service and fits the label encoders from the inventory.
// Without an inventory the classifier stage is skipped and the expiry rule answers.
func NewService(ctx context.Context, cfg Config, repo waste.Repository, registry *ml.Registry, recorder prediction.Recorder) *Service {
	s := &Service{
		cfg:      cfg,
		registry: registry,
		recorder: recorder,
		log:      logger.Get().Component("waste_service"),
		now:      time.Now,
	}

	if err := s.fitEncoders(ctx, repo); err != nil {
		s.log.Warn("label encoders unavailable, waste classifier disabled", "error", err)
	}

	s.chain = fallback.NewChain[scoring, waste.Assessment]("waste_risk",
		fallback.Func(ModelName, s.classify),
		fallback.Func(RuleName, s.rule),
	)
	return s
}

func (s *Service) fitEncoders(ctx context.Context, repo waste.Repository) error {
	records, err := repo.Inventory(ctx)
	if err != nil {
		return err
	}

	categories := make([]string, len(records))
	storage := make([]string, len(records))
	for i, r := range records {
		categories[i] = r.Category
		storage[i] = r.StorageCondition
	}

	if s.category, err = waste.FitLabelEncoder("category", categories); err != nil {
		return err
	}
	if s.storage, err = waste.FitLabelEncoder("storage_condition", storage); err != nil {
		s.category = nil
		return err
	}
	return nil
}

// Predict scores one item
func (s *Service) Predict(ctx context.Context, item waste.Item) (result *waste.Assessment, err error) {
	start := time.Now()
	model := ""
	defer func() {
		latency := time.Since(start)
		metrics.RecordPrediction(prediction.ServiceWaste, model, latency, err)

		entry := prediction.NewLog(prediction.ServiceWaste, model)
		entry.Latency = latency
		if result != nil {
			entry.SetPayload(item, result)
		} else {
			entry.SetPayload(item, nil)
		}
		entry.Fail(err)
		if rerr := s.recorder.Record(ctx, entry); rerr != nil {
			s.log.Warn("failed to record prediction", "error", rerr)
		}
	}()

	assessment, err := s.Assess(ctx, item)
	if err != nil {
		return nil, err
	}
	model = assessment.ModelUsed
	return &assessment, nil
}

// Assess scores one item without recording it
func (s *Service) Assess(ctx context.Context, item waste.Item) (waste.Assessment, error) {
	if err := item.Validate(); err != nil {
		return waste.Assessment{}, err
	}
	expiry, _ := item.Expiry()

	outcome, err := s.chain.Run(ctx, scoring{item: item, days: waste.DaysToExpiry(expiry, s.now())})
	if err != nil {
		return waste.Assessment{}, err
	}
	assessment := outcome.Value
	if unseen := s.unseenLabels(item); len(unseen) > 0 {
		s.log.Warn("unseen labels, classifier skipped", "item", item.ItemName, "unseen", unseen)
		assessment.UnseenLabels = unseen
	}
	return assessment, nil
}

// unseenLabels lists the fields of item whose value the encoders were not fitted on
func (s *Service) unseenLabels(item waste.Item) []string {
	if s.category == nil || s.storage == nil {
		return nil
	}
	var unseen []string
	if !s.category.Knows(item.Category) {
		unseen = append(unseen, "category="+item.Category)
	}
	if !s.storage.Knows(item.StorageCondition) {
		unseen = append(unseen, "storage_condition="+item.StorageCondition)
	}
	return unseen
}

// Row builds the named feature row of an item
func (s *Service) Row(item waste.Item, days int) (map[string]float64, error) {
	if s.category == nil || s.storage == nil {
		return nil, errors.Wrap(errors.ErrModelUnavailable, "label encoders not fitted")
	}
	cat, err := s.category.Transform(item.Category)
	if err != nil {
		return nil, err
	}
	storage, err := s.storage.Transform(item.StorageCondition)
	if err != nil {
		return nil, err
	}

	expired := 0.0
	if days < 0 {
		expired = 1
	}
	return map[string]float64{
		"days_to_expiry":   float64(days),
		"quantity":         float64(item.Quantity),
		"used_quantity":    item.UsedQuantity,
		"category_encoded": float64(cat),
		"storage_encoded":  float64(storage),
		"is_expired":       expired,
	}, nil
}

func (s *Service) classify(ctx context.Context, in scoring) (waste.Assessment, error) {
	row, err := s.Row(in.item, in.days)
	if err != nil {
		return waste.Assessment{}, err
	}

	// The row carries more columns than most exported models use; only missing ones count as drift
	alignment, err := features.Align(row, s.cfg.Features, s.cfg.Policy)
	status := features.StatusExact
	if len(alignment.ZeroFilled) > 0 {
		status = features.StatusZeroFilled
		s.log.Warn("feature drift", "zero_filled", alignment.ZeroFilled)
	}
	metrics.RecordAlignment(prediction.ServiceWaste, string(status))
	if err != nil && len(alignment.ZeroFilled) > 0 {
		return waste.Assessment{}, err
	}

	model, err := ml.Lookup[Classifier](ctx, s.registry, ModelName)
	if err != nil {
		return waste.Assessment{}, err
	}
	class, err := model.Predict(alignment.Float32())
	if err != nil {
		return waste.Assessment{}, errors.Join(errors.ErrPrediction, err)
	}

	return waste.Assessment{
		ItemName:     in.item.ItemName,
		WasteRisk:    waste.RiskFromLabel(class.Label),
		ModelUsed:    ModelName,
		DaysToExpiry: in.days,
		Confidence:   features.Round(class.Confidence(), 4),
	}, nil
}

func (s *Service) rule(_ context.Context, in scoring) (waste.Assessment, error) {
	return waste.Assessment{
		ItemName:     in.item.ItemName,
		WasteRisk:    waste.RuleRisk(in.days, s.cfg.RiskDays),
		ModelUsed:    RuleName,
		DaysToExpiry: in.days,
	}, nil
}

// Health reports the readiness of the service
type Health struct {
	Status         string `json:"status"`
	ModelLoaded    bool   `json:"model_loaded"`
	EncodersFitted bool   `json:"encoders_fitted"`
}

// Health returns the model and encoder state
func (s *Service) Health() Health {
	return Health{
		Status:         "API is running",
		ModelLoaded:    s.registry.Loaded(ModelName),
		EncodersFitted: s.category != nil && s.storage != nil,
	}
}

// Flagged is an inventory item scored At Risk
type Flagged struct {
	Item       waste.Item
	Assessment waste.Assessment
}

// ScanResult is the outcome of scoring a whole inventory
type ScanResult struct {
	Scored  int
	Skipped int
	AtRisk  []Flagged
}

// Scan scores every inventory record; invalid records are skipped
func (s *Service) Scan(ctx context.Context, repo waste.Repository) (*ScanResult, error) {
	records, err := repo.Inventory(ctx)
	if err != nil {
		return nil, err
	}

	res := &ScanResult{}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		item := r.Item()
		a, err := s.Assess(ctx, item)
		if err != nil {
			res.Skipped++
			s.log.Debug("inventory item skipped", "item", r.ItemName, "error", err)
			continue
		}
		res.Scored++
		if a.WasteRisk == waste.RiskAtRisk {
			res.AtRisk = append(res.AtRisk, Flagged{Item: item, Assessment: a})
		}
	}
	return res, nil
}
