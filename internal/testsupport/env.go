package testsupport

import (
	"fmt"
	"os"
	"testing"

	"smartkitchen/internal/adapters/config"
)

// RedisFromEnv returns the test Redis config, skipping the test when REDIS_HOST is unset or -short is set
func RedisFromEnv(t *testing.T) config.RedisConfig {
	t.Helper()
	skipUnless(t, "REDIS_HOST")

	return config.RedisConfig{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     intValue("REDIS_PORT", 6379),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       intValue("REDIS_TEST_DB", 1),
	}
}

// ClickHouseFromEnv returns the test ClickHouse config, skipping the test when CLICKHOUSE_HOST is unset or -short is set
func ClickHouseFromEnv(t *testing.T) config.ClickHouseConfig {
	t.Helper()
	skipUnless(t, "CLICKHOUSE_HOST")

	return config.ClickHouseConfig{
		Host:     os.Getenv("CLICKHOUSE_HOST"),
		Port:     intValue("CLICKHOUSE_PORT", 9000),
		User:     valueWithDefault("CLICKHOUSE_USER", "default"),
		Password: os.Getenv("CLICKHOUSE_PASSWORD"),
		Database: valueWithDefault("CLICKHOUSE_DB", "default"),
	}
}

func skipUnless(t *testing.T, key string) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if os.Getenv(key) == "" {
		t.Skipf("integration environment missing, set %s to run", key)
	}
}

func valueWithDefault(key string, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func intValue(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return fallback
}
