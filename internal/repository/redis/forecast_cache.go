package redis

import (
	"context"
	"time"

	redisclient "smartkitchen/internal/adapters/redis"
	"smartkitchen/internal/domain/forecast"
)

const forecastPrefix = "smartkitchen:forecast:"

// ForecastCache implements forecast.Cache on Redis
type ForecastCache struct {
	client *redisclient.Client
}

func NewForecastCache(client *redisclient.Client) *ForecastCache {
	return &ForecastCache{client: client}
}

var _ forecast.Cache = (*ForecastCache)(nil)

// Get returns the cached result; a miss is errors.ErrNotFound
func (c *ForecastCache) Get(ctx context.Context, key string) (*forecast.Result, error) {
	var result forecast.Result
	if err := c.client.Get(ctx, forecastPrefix+key, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Set stores result for ttl
func (c *ForecastCache) Set(ctx context.Context, key string, result *forecast.Result, ttl time.Duration) error {
	return c.client.Set(ctx, forecastPrefix+key, result, ttl)
}
