package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"smartkitchen/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	ONNX          ONNXConfig
	Sales         SalesConfig
	Waste         WasteConfig
	Spoilage      SpoilageConfig
	Forecast      ForecastConfig
	Redis         RedisConfig
	ClickHouse    ClickHouseConfig
	Kafka         KafkaConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string   `envconfig:"APP_NAME" default:"smartkitchen"`
	Env      string   `envconfig:"APP_ENV" default:"development"`
	Version  string   `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string   `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool     `envconfig:"DEBUG" default:"false"`
	Services []string `envconfig:"SERVICES" default:"sales,waste,spoilage"`
}

// Enabled reports whether a service is listed in SERVICES
func (c AppConfig) Enabled(service string) bool {
	for _, s := range c.Services {
		if strings.EqualFold(strings.TrimSpace(s), service) {
			return true
		}
	}
	return false
}

type HTTPConfig struct {
	OpsPort         int           `envconfig:"OPS_PORT" default:"9090"`
	RateLimit       float64       `envconfig:"HTTP_RATE_LIMIT" default:"50"` // requests per second per service, 0 disables
	RateBurst       int           `envconfig:"HTTP_RATE_BURST" default:"100"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
	CORSOrigins     []string      `envconfig:"HTTP_CORS_ORIGINS" default:"*"`
}

type ONNXConfig struct {
	// Path to libonnxruntime.so; empty uses the platform default lookup
	LibraryPath string `envconfig:"ONNXRUNTIME_LIB_PATH"`
}

type SalesConfig struct {
	Port            int    `envconfig:"SALES_PORT" default:"8001"`
	ModelPath       string `envconfig:"SALES_MODEL_PATH" default:"models/sales_model.onnx"`
	DataPath        string `envconfig:"SALES_DATA_PATH" default:"data/processed_sales.csv"`
	FeaturesPath    string `envconfig:"SALES_FEATURES_PATH" default:"models/sales_features.json"`
	StrictAlignment bool   `envconfig:"SALES_STRICT_ALIGNMENT" default:"false"`
}

type WasteConfig struct {
	Port            int      `envconfig:"WASTE_PORT" default:"8002"`
	ModelPath       string   `envconfig:"WASTE_MODEL_PATH" default:"models/waste_model.onnx"`
	DataPath        string   `envconfig:"WASTE_DATA_PATH" default:"data/inventory.csv"`
	Features        []string `envconfig:"WASTE_FEATURES" default:"days_to_expiry,category_encoded,storage_encoded,is_expired"`
	RiskDays        int      `envconfig:"WASTE_RULE_RISK_DAYS" default:"3"`
	StrictAlignment bool     `envconfig:"WASTE_STRICT_ALIGNMENT" default:"false"`
}

type SpoilageConfig struct {
	Port               int    `envconfig:"SPOILAGE_PORT" default:"8003"`
	TrainedModelPath   string `envconfig:"TRAINED_SPOILAGE_MODEL" default:"models/spoilage_model.onnx"`
	ClassifierPath     string `envconfig:"SPOILAGE_MODEL" default:"models/spoilage_classifier.onnx"`
	ClassifierLabels   string `envconfig:"SPOILAGE_LABELS" default:"models/spoilage_classifier.labels.json"`
	DetectorPath       string `envconfig:"YOLO_MODEL_PATH" default:"models/fruit_vegetable_yolo.onnx"`
	DetectorLabels     string `envconfig:"YOLO_LABELS" default:"models/fruit_vegetable_yolo.labels.json"`
	ItemClassifierPath string `envconfig:"ITEM_DETECTION_MODEL" default:"models/item_classifier.onnx"`
	ItemLabels         string `envconfig:"ITEM_DETECTION_LABELS" default:"models/item_classifier.labels.json"`
	MaxImageSide       int    `envconfig:"SPOILAGE_MAX_IMAGE_SIDE" default:"800"`
	MaxUploadBytes     int64  `envconfig:"SPOILAGE_MAX_UPLOAD_BYTES" default:"10485760"`
}

type ForecastConfig struct {
	DataPath      string        `envconfig:"FORECAST_DATA_PATH" default:"sales_data.csv"`
	OutputPath    string        `envconfig:"FORECAST_OUTPUT_PATH" default:"forecast.csv"`
	Periods       int           `envconfig:"FORECAST_PERIODS" default:"30"`
	IntervalWidth float64       `envconfig:"FORECAST_INTERVAL_WIDTH" default:"0.95"`
	CacheTTL      time.Duration `envconfig:"FORECAST_CACHE_TTL" default:"1h"`
	Ingredients   []string      `envconfig:"FORECAST_INGREDIENTS"` // refreshed by the background worker
}

// RedisConfig is optional: an empty host disables the forecast cache
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Enabled() bool { return c.Host != "" }

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ClickHouseConfig is optional: an empty host disables the prediction log
type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"smartkitchen"`
}

func (c ClickHouseConfig) Enabled() bool { return c.Host != "" }

// KafkaConfig is optional: no brokers disables event publishing
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Async   bool     `envconfig:"KAFKA_ASYNC" default:"false"`
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for the background workers
type WorkerConfig struct {
	ForecastRefreshInterval time.Duration `envconfig:"WORKER_FORECAST_REFRESH_INTERVAL" default:"6h"`
	ForecastRefreshEnabled  bool          `envconfig:"WORKER_FORECAST_REFRESH_ENABLED" default:"false"`
	WasteScanInterval       time.Duration `envconfig:"WORKER_WASTE_SCAN_INTERVAL" default:"1h"`
	WasteScanEnabled        bool          `envconfig:"WORKER_WASTE_SCAN_ENABLED" default:"false"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values envconfig cannot express as tags
func (c *Config) Validate() error {
	if c.Forecast.IntervalWidth <= 0 || c.Forecast.IntervalWidth >= 1 {
		return errors.NewValidationError("FORECAST_INTERVAL_WIDTH", "must be in (0, 1)", c.Forecast.IntervalWidth)
	}
	if c.Forecast.Periods <= 0 {
		return errors.NewValidationError("FORECAST_PERIODS", "must be positive", c.Forecast.Periods)
	}
	if c.Spoilage.MaxImageSide <= 0 {
		return errors.NewValidationError("SPOILAGE_MAX_IMAGE_SIDE", "must be positive", c.Spoilage.MaxImageSide)
	}
	if len(c.Waste.Features) == 0 {
		return errors.NewValidationError("WASTE_FEATURES", "must list at least one feature", c.Waste.Features)
	}
	return nil
}
