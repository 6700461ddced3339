package forecast

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"smartkitchen/internal/domain/forecast"
	"smartkitchen/pkg/errors"
)

// MockNotifier is a mock for Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PublishForecastRefreshed(ctx context.Context, result *forecast.Result, outputPath string) error {
	args := m.Called(ctx, result, outputPath)
	return args.Error(0)
}

type memoryCache struct {
	mu     sync.Mutex
	items  map[string]*forecast.Result
	gets   int
	broken bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]*forecast.Result)}
}

func (c *memoryCache) Get(_ context.Context, key string) (*forecast.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.broken {
		return nil, errors.ErrUnavailable
	}
	r, ok := c.items[key]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return r, nil
}

func (c *memoryCache) Set(_ context.Context, key string, result *forecast.Result, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = result
	return nil
}

type memoryRepository struct {
	saved map[string][]forecast.Point
}

func (r *memoryRepository) Save(_ context.Context, path string, points []forecast.Point) error {
	r.saved[path] = points
	return nil
}

func (r *memoryRepository) Load(_ context.Context, path string) ([]forecast.Point, error) {
	points, ok := r.saved[path]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return points, nil
}

func writeSales(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,ingredient,quantity\n")
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		fmt.Fprintf(&b, "%s,Tomato,%d\n", d, 10+i%7)
		fmt.Fprintf(&b, "%s,Milk,%d\n", d, 3)
	}
	path := filepath.Join(t.TempDir(), "sales_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func newService(t *testing.T, deps Deps) *Service {
	t.Helper()
	return NewService(Config{
		DataPath:      writeSales(t),
		OutputPath:    filepath.Join(t.TempDir(), "forecast.csv"),
		Periods:       30,
		IntervalWidth: 0.95,
		CacheTTL:      time.Hour,
	}, deps)
}

func TestForecast_Defaults(t *testing.T) {
	svc := newService(t, Deps{})

	got, err := svc.Forecast(context.Background(), forecast.Request{Ingredient: "tomato"})
	require.NoError(t, err)
	assert.Len(t, got.Points, 30)
	assert.Equal(t, 60, got.History)
	for _, p := range got.Points {
		assert.GreaterOrEqual(t, p.Forecast, 0.0)
		assert.LessOrEqual(t, p.Lower, p.Upper)
	}
}

func TestForecast_CacheHit(t *testing.T) {
	cache := newMemoryCache()
	svc := newService(t, Deps{Cache: cache})
	req := forecast.Request{Ingredient: "Milk", Periods: 10}

	first, err := svc.Forecast(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, cache.items, 1)

	second, err := svc.Forecast(context.Background(), req)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 2, cache.gets)
}

func TestForecast_BrokenCacheStillServes(t *testing.T) {
	cache := newMemoryCache()
	cache.broken = true
	svc := newService(t, Deps{Cache: cache})

	got, err := svc.Forecast(context.Background(), forecast.Request{Periods: 5})
	require.NoError(t, err)
	assert.Len(t, got.Points, 5)
}

func TestCacheKey(t *testing.T) {
	svc := newService(t, Deps{})

	a, err := svc.CacheKey(forecast.Request{Ingredient: "Tomato", Periods: 30})
	require.NoError(t, err)
	b, err := svc.CacheKey(forecast.Request{Ingredient: " tomato ", Periods: 30})
	require.NoError(t, err)
	c, err := svc.CacheKey(forecast.Request{Ingredient: "Tomato", Periods: 31})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}

func TestForecast_MissingData(t *testing.T) {
	svc := NewService(Config{DataPath: filepath.Join(t.TempDir(), "absent.csv"), IntervalWidth: 0.95}, Deps{})

	_, err := svc.Forecast(context.Background(), forecast.Request{})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestForecast_UnknownIngredient(t *testing.T) {
	svc := newService(t, Deps{})

	_, err := svc.Forecast(context.Background(), forecast.Request{Ingredient: "Saffron"})
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Contains(t, err.Error(), "Available ingredients: Tomato, Milk")
}

func TestRefresh_SavesAndNotifies(t *testing.T) {
	repo := &memoryRepository{saved: make(map[string][]forecast.Point)}
	notifier := new(MockNotifier)
	svc := newService(t, Deps{Repository: repo, Notifier: notifier})

	expectedPath := svc.OutputPathFor("Tomato")
	notifier.On("PublishForecastRefreshed", mock.Anything, mock.AnythingOfType("*forecast.Result"), expectedPath).Return(nil)

	got, err := svc.Refresh(context.Background(), "Tomato")
	require.NoError(t, err)

	assert.Equal(t, got.Points, repo.saved[expectedPath])
	notifier.AssertExpectations(t)
}

func TestRefresh_NotifyFailureIsNotFatal(t *testing.T) {
	repo := &memoryRepository{saved: make(map[string][]forecast.Point)}
	notifier := new(MockNotifier)
	notifier.On("PublishForecastRefreshed", mock.Anything, mock.Anything, mock.Anything).Return(errors.ErrUnavailable)
	svc := newService(t, Deps{Repository: repo, Notifier: notifier})

	_, err := svc.Refresh(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, repo.saved, svc.OutputPathFor(""))
}

func TestOutputPathFor(t *testing.T) {
	svc := NewService(Config{OutputPath: "out/forecast.csv"}, Deps{})

	assert.Equal(t, "out/forecast.csv", svc.OutputPathFor(""))
	assert.Equal(t, "out/forecast_olive_oil.csv", svc.OutputPathFor("Olive Oil"))
	assert.Equal(t, "out/forecast_tomato.csv", svc.OutputPathFor(" TOMATO "))
}
