package bootstrap

import (
	"context"

	"golang.org/x/sync/errgroup"

	chclient "smartkitchen/internal/adapters/clickhouse"
	"smartkitchen/internal/adapters/config"
	"smartkitchen/internal/adapters/kafka"
	redisclient "smartkitchen/internal/adapters/redis"
	"smartkitchen/internal/api"
	"smartkitchen/internal/api/health"
	"smartkitchen/internal/consumers"
	"smartkitchen/internal/domain/prediction"
	"smartkitchen/internal/domain/sales"
	"smartkitchen/internal/domain/waste"
	"smartkitchen/internal/events"
	"smartkitchen/internal/ml"
	chrepo "smartkitchen/internal/repository/clickhouse"
	forecastservice "smartkitchen/internal/services/forecast"
	salesservice "smartkitchen/internal/services/sales"
	spoilageservice "smartkitchen/internal/services/spoilage"
	wasteservice "smartkitchen/internal/services/waste"
	"smartkitchen/internal/workers"
	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order.
type Container struct {
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Optional infrastructure; nil when not configured
	CH    *chclient.Client
	Redis *redisclient.Client

	Models *Models
	Repos  *Repositories
	Events *Events

	Services *Services

	Application *Application
	Background  *Background

	Lifecycle *Lifecycle
	Context   context.Context
	Cancel    context.CancelFunc
	group     *errgroup.Group
}

// Models groups the inference runtime and the model registry
type Models struct {
	Runtime          *ml.Runtime
	Registry         *ml.Registry
	RuntimeAvailable bool
}

// Repositories groups the data sources
type Repositories struct {
	Sales         sales.Repository
	Inventory     waste.Repository
	PredictionLog *chrepo.PredictionLogRepository
}

// Events groups Kafka publishing and the prediction recorder
type Events struct {
	Producer  *kafka.Producer
	Publisher *events.Publisher
	Recorder  prediction.Recorder
}

// Services groups the prediction services; nil when disabled
type Services struct {
	Sales    *salesservice.Service
	Waste    *wasteservice.Service
	Spoilage *spoilageservice.Service
	Forecast *forecastservice.Service
}

// Application groups the HTTP listeners
type Application struct {
	Servers       []*api.Server
	OpsServer     *api.Server
	HealthHandler *health.Handler
}

// listeners returns the service servers followed by the ops server
func (a *Application) listeners() []*api.Server {
	all := make([]*api.Server, 0, len(a.Servers)+1)
	all = append(all, a.Servers...)
	if a.OpsServer != nil {
		all = append(all, a.OpsServer)
	}
	return all
}

// Background groups workers and event consumers
type Background struct {
	WorkerScheduler       *workers.Scheduler
	PredictionLogReader   *kafka.Consumer
	PredictionLogConsumer *consumers.PredictionLogConsumer
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Models:      &Models{},
		Repos:       &Repositories{},
		Events:      &Events{},
		Services:    &Services{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order.
// Panics on any initialization error (fail-fast at startup).
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitModels()
	c.MustInitRepositories()
	c.MustInitEvents()
	c.MustInitServices()
	c.MustInitApplication()
	c.MustInitBackground()
}

// Start launches the HTTP listeners, the prediction log consumer and the workers.
// A listener failing cancels the container context.
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	g, ctx := errgroup.WithContext(c.Context)
	c.group = g

	for _, srv := range c.Application.listeners() {
		g.Go(func() error {
			if err := srv.Start(); err != nil {
				c.Log.Error("HTTP server failed", "server", srv.Name(), "error", err)
				c.Cancel()
				return err
			}
			return nil
		})
	}

	if c.Repos.PredictionLog != nil {
		c.Repos.PredictionLog.Start(ctx)
	}

	if consumer := c.Background.PredictionLogConsumer; consumer != nil {
		g.Go(func() error {
			return consumer.Start(ctx)
		})
	}

	if err := c.Background.WorkerScheduler.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	c.Log.Info("✓ All systems operational", "servers", len(c.Application.Servers))
	return nil
}

// Done is closed when the container is cancelled, e.g. after a listener failure
func (c *Container) Done() <-chan struct{} {
	return c.Context.Done()
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")
	c.Lifecycle.Shutdown(c)
}
