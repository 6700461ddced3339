package forecast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"smartkitchen/internal/domain/forecast"
	"smartkitchen/internal/domain/prediction"
	"smartkitchen/internal/features"
	"smartkitchen/internal/forecasting"
	"smartkitchen/internal/metrics"
	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

// ModelName is reported in prediction logs
const ModelName = "trend_seasonal"

// Notifier announces refreshed forecasts
type Notifier interface {
	PublishForecastRefreshed(ctx context.Context, result *forecast.Result, outputPath string) error
}

// Config holds the service settings
type Config struct {
	DataPath      string
	OutputPath    string
	Periods       int
	IntervalWidth float64
	CacheTTL      time.Duration
}

// Deps are the optional collaborators; nil fields are skipped
type Deps struct {
	Repository forecast.Repository
	Cache      forecast.Cache
	Notifier   Notifier
	Recorder   prediction.Recorder
}

// Service forecasts daily demand from the sales dataset
type Service struct {
	cfg      Config
	deps     Deps
	pipeline *forecasting.Pipeline
	log      *logger.Logger
}

// NewService creates the service
func NewService(cfg Config, deps Deps) *Service {
	if cfg.Periods <= 0 {
		cfg.Periods = forecast.PeriodsFor(0, 0)
	}
	return &Service{
		cfg:      cfg,
		deps:     deps,
		pipeline: forecasting.NewPipeline(forecasting.NewModel(cfg.IntervalWidth)),
		log:      logger.Get().Component("forecast_service"),
	}
}

// Forecast returns the forecast for req, served from the cache when the dataset is unchanged
func (s *Service) Forecast(ctx context.Context, req forecast.Request) (result *forecast.Result, err error) {
	start := time.Now()
	if req.Periods <= 0 {
		req.Periods = s.cfg.Periods
	}
	defer func() { s.observe(ctx, req, result, start, err) }()

	key, err := s.CacheKey(req)
	if err != nil {
		return nil, err
	}
	if cached := s.cached(ctx, key); cached != nil {
		return cached, nil
	}

	table, err := features.LoadCSV(s.cfg.DataPath)
	if err != nil {
		return nil, err
	}
	result, err = s.pipeline.Run(ctx, table, req)
	if err != nil {
		return nil, err
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Set(ctx, key, result, s.cfg.CacheTTL); err != nil {
			s.log.Warn("failed to cache forecast", "key", key, "error", err)
		}
	}
	return result, nil
}

func (s *Service) cached(ctx context.Context, key string) *forecast.Result {
	if s.deps.Cache == nil {
		return nil
	}
	result, err := s.deps.Cache.Get(ctx, key)
	switch {
	case err == nil:
		metrics.RecordCache("hit")
		return result
	case errors.Is(err, errors.ErrNotFound):
		metrics.RecordCache("miss")
	default:
		metrics.RecordCache("error")
		s.log.Warn("forecast cache unavailable", "error", err)
	}
	return nil
}

// Run forecasts and writes the points to outputPath
func (s *Service) Run(ctx context.Context, req forecast.Request, outputPath string) (*forecast.Result, error) {
	result, err := s.Forecast(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.deps.Repository == nil {
		return nil, errors.Wrap(errors.ErrInternal, "forecast repository not configured")
	}
	if err := s.deps.Repository.Save(ctx, outputPath, result.Points); err != nil {
		return nil, err
	}
	s.log.Info("forecast saved", "path", outputPath, "ingredient", req.Ingredient, "days", len(result.Points))
	return result, nil
}

// Refresh recomputes the forecast of one ingredient, persists it and announces it
func (s *Service) Refresh(ctx context.Context, ingredient string) (*forecast.Result, error) {
	path := s.OutputPathFor(ingredient)
	result, err := s.Run(ctx, forecast.Request{Ingredient: ingredient, Periods: s.cfg.Periods}, path)
	if err != nil {
		return nil, err
	}
	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.PublishForecastRefreshed(ctx, result, path); err != nil {
			s.log.Warn("failed to publish forecast refresh", "ingredient", ingredient, "error", err)
		}
	}
	return result, nil
}

// OutputPathFor suffixes the output file name with the ingredient
func (s *Service) OutputPathFor(ingredient string) string {
	slug := slugify(ingredient)
	if slug == "" {
		return s.cfg.OutputPath
	}
	ext := filepath.Ext(s.cfg.OutputPath)
	return strings.TrimSuffix(s.cfg.OutputPath, ext) + "_" + slug + ext
}

// CacheKey identifies a request against the current version of the dataset
func (s *Service) CacheKey(req forecast.Request) (string, error) {
	info, err := os.Stat(s.cfg.DataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(errors.ErrNotFound, "data file not found: %s", s.cfg.DataPath)
		}
		return "", errors.Wrapf(err, "stat %s", s.cfg.DataPath)
	}

	raw := fmt.Sprintf("%s|%d|%d|%s|%d|%g",
		s.cfg.DataPath, info.ModTime().UnixNano(), info.Size(),
		strings.ToLower(strings.TrimSpace(req.Ingredient)), req.Periods, s.cfg.IntervalWidth)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:16]), nil
}

func (s *Service) observe(ctx context.Context, req forecast.Request, out *forecast.Result, start time.Time, err error) {
	latency := time.Since(start)
	metrics.RecordPrediction(prediction.ServiceForecast, ModelName, latency, err)
	if s.deps.Recorder == nil {
		return
	}

	entry := prediction.NewLog(prediction.ServiceForecast, ModelName)
	entry.Latency = latency
	if out != nil {
		entry.SetPayload(req, out.Monthly)
	} else {
		entry.SetPayload(req, nil)
	}
	entry.Fail(err)
	if rerr := s.deps.Recorder.Record(ctx, entry); rerr != nil {
		s.log.Warn("failed to record prediction", "error", rerr)
	}
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	return b.String()
}
