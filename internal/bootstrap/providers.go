package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	chclient "smartkitchen/internal/adapters/clickhouse"
	"smartkitchen/internal/adapters/config"
	errnoop "smartkitchen/internal/adapters/errors/noop"
	"smartkitchen/internal/adapters/errors/sentry"
	"smartkitchen/internal/adapters/kafka"
	redisclient "smartkitchen/internal/adapters/redis"
	"smartkitchen/internal/api"
	"smartkitchen/internal/api/health"
	salesapi "smartkitchen/internal/api/sales"
	spoilageapi "smartkitchen/internal/api/spoilage"
	wasteapi "smartkitchen/internal/api/waste"
	"smartkitchen/internal/consumers"
	"smartkitchen/internal/events"
	"smartkitchen/internal/features"
	"smartkitchen/internal/metrics"
	"smartkitchen/internal/ml"
	chrepo "smartkitchen/internal/repository/clickhouse"
	"smartkitchen/internal/repository/csvfile"
	redisrepo "smartkitchen/internal/repository/redis"
	forecastservice "smartkitchen/internal/services/forecast"
	salesservice "smartkitchen/internal/services/sales"
	spoilageservice "smartkitchen/internal/services/spoilage"
	wasteservice "smartkitchen/internal/services/waste"
	"smartkitchen/internal/workers"
	"smartkitchen/internal/workers/kitchen"
	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

const initTimeout = 30 * time.Second

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)
	c.Log.Info("Enabled services", "services", cfg.App.Services)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects the optional data stores. Each store is
// skipped when unconfigured; a configured store that cannot be reached is fatal.
func (c *Container) MustInitInfrastructure() {
	ctx, cancel := context.WithTimeout(c.Context, initTimeout)
	defer cancel()

	var err error

	if c.Config.Redis.Enabled() {
		c.Log.Info("Connecting to Redis...", "addr", c.Config.Redis.Addr())
		c.Redis, err = redisclient.NewClient(ctx, c.Config.Redis)
		if err != nil {
			c.Log.Fatalf("failed to connect redis: %v", err)
		}
		c.Log.Info("✓ Redis connected")
	} else {
		c.Log.Info("Redis not configured, forecast cache and worker locks disabled")
	}

	if c.Config.ClickHouse.Enabled() {
		c.Log.Info("Connecting to ClickHouse...", "host", c.Config.ClickHouse.Host)
		c.CH, err = chclient.NewClient(ctx, c.Config.ClickHouse)
		if err != nil {
			c.Log.Fatalf("failed to connect clickhouse: %v", err)
		}
		c.Log.Info("✓ ClickHouse connected")
	} else {
		c.Log.Info("ClickHouse not configured, prediction log kept in application logs")
	}
}

// ========================================
// Phase 3: Models
// ========================================

// MustInitModels starts the inference runtime. Model loaders are registered by
// the services that use them; a missing runtime leaves every model unavailable
// and the fallback chains answer instead.
func (c *Container) MustInitModels() {
	c.Models.Runtime = ml.NewRuntime(c.Config.ONNX.LibraryPath)
	c.Models.Registry = ml.NewRegistry()

	if err := c.Models.Runtime.Init(); err != nil {
		c.Log.Warn("ONNX runtime unavailable, serving fallbacks only", "error", err)
		return
	}
	c.Models.RuntimeAvailable = true
	c.Log.Info("✓ ONNX runtime initialized")

	prometheus.MustRegister(metrics.NewModelCollector(c.Models.Registry))
}

// ========================================
// Phase 4: Repositories
// ========================================

// MustInitRepositories creates the dataset readers and the prediction log store
func (c *Container) MustInitRepositories() {
	c.Repos.Sales = csvfile.NewSalesRepository(c.Config.Sales.DataPath)
	c.Repos.Inventory = csvfile.NewInventoryRepository(c.Config.Waste.DataPath)

	if c.CH != nil {
		c.Repos.PredictionLog = chrepo.NewPredictionLogRepository(c.CH.Conn())

		ctx, cancel := context.WithTimeout(c.Context, initTimeout)
		defer cancel()
		if err := c.Repos.PredictionLog.EnsureSchema(ctx); err != nil {
			c.Log.Fatalf("failed to create prediction_log table: %v", err)
		}
	}
	c.Log.Info("✓ Repositories initialized")
}

// ========================================
// Phase 5: Events
// ========================================

// MustInitEvents selects where prediction logs go: Kafka when brokers are
// configured, ClickHouse directly otherwise, or the application log.
func (c *Container) MustInitEvents() {
	switch {
	case c.Config.Kafka.Enabled():
		c.Events.Producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers: c.Config.Kafka.Brokers,
			Async:   c.Config.Kafka.Async,
		})
		c.Events.Publisher = events.NewPublisher(c.Events.Producer, c.Config.App.Name)
		c.Events.Recorder = events.NewKafkaRecorder(c.Events.Publisher)
		c.Log.Info("✓ Kafka publishing enabled", "brokers", c.Config.Kafka.Brokers)
	case c.Repos.PredictionLog != nil:
		c.Events.Recorder = c.Repos.PredictionLog
	default:
		c.Events.Recorder = events.NewLogRecorder()
	}
}

// ========================================
// Phase 6: Services
// ========================================

// MustInitServices builds every enabled service and registers its models
func (c *Container) MustInitServices() {
	ctx, cancel := context.WithTimeout(c.Context, initTimeout)
	defer cancel()

	cfg := c.Config
	registry := c.Models.Registry

	if cfg.App.Enabled("sales") {
		reference, err := salesservice.ResolveFeatureColumns(ctx, c.Repos.Sales, cfg.Sales.FeaturesPath)
		if err != nil {
			c.Log.Fatalf("failed to resolve sales feature columns: %v", err)
		}
		c.mustRegister(salesservice.ModelName, cfg.Sales.ModelPath, func(path string) (ml.Model, error) {
			return ml.NewTabularRegressor(c.Models.Runtime, path, len(reference))
		})

		c.Services.Sales, err = salesservice.NewService(salesservice.Config{
			Reference: reference,
			Policy:    features.PolicyFor(cfg.Sales.StrictAlignment),
		}, c.Repos.Sales, registry, c.Events.Recorder)
		if err != nil {
			c.Log.Fatalf("failed to create sales service: %v", err)
		}

		deps := forecastservice.Deps{
			Repository: csvfile.NewForecastRepository(),
			Recorder:   c.Events.Recorder,
		}
		if c.Redis != nil {
			deps.Cache = redisrepo.NewForecastCache(c.Redis)
		}
		if c.Events.Publisher != nil {
			deps.Notifier = c.Events.Publisher
		}
		c.Services.Forecast = forecastservice.NewService(forecastservice.Config{
			DataPath:      cfg.Forecast.DataPath,
			OutputPath:    cfg.Forecast.OutputPath,
			Periods:       cfg.Forecast.Periods,
			IntervalWidth: cfg.Forecast.IntervalWidth,
			CacheTTL:      cfg.Forecast.CacheTTL,
		}, deps)
		c.Log.Info("✓ Sales and forecast services initialized", "features", len(reference))
	}

	if cfg.App.Enabled("waste") {
		width := len(cfg.Waste.Features)
		c.mustRegister(wasteservice.ModelName, cfg.Waste.ModelPath, func(path string) (ml.Model, error) {
			return ml.NewTabularClassifier(c.Models.Runtime, path, width, 2)
		})
		c.Services.Waste = wasteservice.NewService(ctx, wasteservice.Config{
			Features: cfg.Waste.Features,
			RiskDays: cfg.Waste.RiskDays,
			Policy:   features.PolicyFor(cfg.Waste.StrictAlignment),
		}, c.Repos.Inventory, registry, c.Events.Recorder)
		c.Log.Info("✓ Waste service initialized")
	}

	if cfg.App.Enabled("spoilage") {
		sc := cfg.Spoilage
		c.mustRegister(spoilageservice.TrainedModel, sc.TrainedModelPath, func(path string) (ml.Model, error) {
			return ml.NewImageClassifier(c.Models.Runtime, path, []string{"fresh", "rotten"}, ml.ClassifierImageSpec)
		})
		c.mustRegister(spoilageservice.ClassifierModel, sc.ClassifierPath, func(path string) (ml.Model, error) {
			return c.labelledImageClassifier(path, sc.ClassifierLabels)
		})
		c.mustRegister(spoilageservice.ItemClassifierModel, sc.ItemClassifierPath, func(path string) (ml.Model, error) {
			return c.labelledImageClassifier(path, sc.ItemLabels)
		})
		c.mustRegister(spoilageservice.DetectorModel, sc.DetectorPath, func(path string) (ml.Model, error) {
			labels, err := ml.LoadLabels(sc.DetectorLabels)
			if err != nil {
				return nil, err
			}
			return ml.NewDetector(c.Models.Runtime, path, labels)
		})
		c.Services.Spoilage = spoilageservice.NewService(spoilageservice.Config{
			MaxImageSide:     sc.MaxImageSide,
			RuntimeAvailable: c.Models.RuntimeAvailable,
		}, registry, c.Events.Recorder)
		c.Log.Info("✓ Spoilage service initialized")
	}

	if c.Models.RuntimeAvailable {
		if err := registry.Preload(ctx); err != nil {
			c.Log.Warn("Some models failed to load, fallbacks will answer", "error", err)
		}
		c.Log.Info("Model status", "models", registry.Status())
	}
}

// mustRegister registers a model file loader; without a runtime nothing is registered
func (c *Container) mustRegister(name, path string, load func(path string) (ml.Model, error)) {
	if !c.Models.RuntimeAvailable {
		return
	}
	if err := c.Models.Registry.Register(name, ml.FileLoader(path, load)); err != nil {
		c.Log.Fatalf("failed to register model %s: %v", name, err)
	}
}

func (c *Container) labelledImageClassifier(path, labelsPath string) (ml.Model, error) {
	labels, err := ml.LoadLabels(labelsPath)
	if err != nil {
		return nil, err
	}
	return ml.NewImageClassifier(c.Models.Runtime, path, labels, ml.ClassifierImageSpec)
}

// ========================================
// Phase 7: Application Layer
// ========================================

// MustInitApplication creates one HTTP listener per enabled service plus the ops listener
func (c *Container) MustInitApplication() {
	cfg := c.Config

	router := func(name string) api.RouterConfig {
		return api.RouterConfig{
			Name:        name,
			RateLimit:   cfg.HTTP.RateLimit,
			RateBurst:   cfg.HTTP.RateBurst,
			CORSOrigins: cfg.HTTP.CORSOrigins,
		}
	}

	if svc := c.Services.Sales; svc != nil {
		r := api.NewRouter(router("sales"))
		salesapi.NewHandler(svc, c.Services.Forecast).Routes(r)
		c.addServer(api.ServerConfig{Name: "sales", Port: cfg.Sales.Port}, r)
	}
	if svc := c.Services.Waste; svc != nil {
		r := api.NewRouter(router("waste"))
		wasteapi.NewHandler(svc).Routes(r)
		c.addServer(api.ServerConfig{Name: "waste", Port: cfg.Waste.Port}, r)
	}
	if svc := c.Services.Spoilage; svc != nil {
		r := api.NewRouter(router("spoilage"))
		spoilageapi.NewHandler(svc, cfg.Spoilage.MaxUploadBytes).Routes(r)
		c.addServer(api.ServerConfig{Name: "spoilage", Port: cfg.Spoilage.Port, WriteTimeout: 60 * time.Second}, r)
	}
	if len(c.Application.Servers) == 0 {
		c.Log.Fatalf("no services enabled, set SERVICES to a subset of sales,waste,spoilage")
	}

	c.Application.HealthHandler = health.New(cfg.App.Name, cfg.App.Version, c.Models.Registry, c.healthChecks()...)
	c.Log.Info("Health checks registered", "checks", c.Application.HealthHandler.Names())

	ops := api.NewOpsRouter(api.OpsConfig{
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		Services:    cfg.App.Services,
	}, c.Application.HealthHandler)
	c.Application.OpsServer = api.NewServer(api.ServerConfig{Name: "ops", Port: cfg.HTTP.OpsPort}, ops)
}

func (c *Container) addServer(cfg api.ServerConfig, r http.Handler) {
	c.Application.Servers = append(c.Application.Servers, api.NewServer(cfg, r))
}

// healthChecks probes the optional stores; they degrade health but never fail readiness
func (c *Container) healthChecks() []health.Check {
	var checks []health.Check
	if c.Redis != nil {
		checks = append(checks, health.Check{Name: "redis", Optional: true, Probe: c.Redis.Health})
	}
	if c.CH != nil {
		checks = append(checks, health.Check{Name: "clickhouse", Optional: true, Probe: c.CH.Health})
	}
	return checks
}

// ========================================
// Phase 8: Background Processing
// ========================================

// MustInitBackground creates the workers and the prediction log consumer
func (c *Container) MustInitBackground() {
	cfg := c.Config
	scheduler := workers.NewScheduler()

	var locker kitchen.Locker
	if c.Redis != nil {
		locker = c.Redis
	}

	if c.Services.Forecast != nil {
		scheduler.RegisterWorker(kitchen.NewForecastRefresher(
			c.Services.Forecast,
			locker,
			cfg.Forecast.Ingredients,
			cfg.Workers.ForecastRefreshInterval,
			cfg.Workers.ForecastRefreshEnabled,
		))
	}

	if c.Services.Waste != nil {
		var publisher kitchen.AlertPublisher
		if c.Events.Publisher != nil {
			publisher = c.Events.Publisher
		}
		scheduler.RegisterWorker(kitchen.NewWasteScanner(
			c.Services.Waste,
			c.Repos.Inventory,
			publisher,
			locker,
			cfg.Workers.WasteScanInterval,
			cfg.Workers.WasteScanEnabled,
		))
	}
	c.Background.WorkerScheduler = scheduler

	// Kafka carries predictions; ClickHouse persists them
	if c.Config.Kafka.Enabled() && c.Repos.PredictionLog != nil {
		c.Background.PredictionLogReader = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: kafka.ConsumerGroupPredictionLog,
			Topic:   kafka.TopicPredictions,
		})
		c.Background.PredictionLogConsumer = consumers.NewPredictionLogConsumer(
			c.Background.PredictionLogReader,
			c.Repos.PredictionLog,
		)
	}
}

// provideErrorTracker returns Sentry when configured, a no-op tracker otherwise
func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}
