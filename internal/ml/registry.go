package ml

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"smartkitchen/internal/metrics"
	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

// Loader builds a model; called at most once per successful load
type Loader func(ctx context.Context) (Model, error)

// FileLoader checks the artifact exists before calling load
func FileLoader(path string, load func(path string) (Model, error)) Loader {
	return func(ctx context.Context) (Model, error) {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(errors.ErrModelUnavailable, "model file not found at %s", path)
		}
		return load(path)
	}
}

// Registry owns model lifecycles: lazy load-once, reload and teardown.
// Concurrent first requests for a model share a single load; failures are not cached.
type Registry struct {
	loaders map[string]Loader
	models  map[string]Model
	mu      sync.RWMutex
	group   singleflight.Group
	log     *logger.Logger
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[string]Loader),
		models:  make(map[string]Model),
		log:     logger.Get().Component("model_registry"),
	}
}

// Register adds a loader under name
func (r *Registry) Register(name string, loader Loader) error {
	if loader == nil {
		return errors.Newf("loader for model %s is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.loaders[name]; exists {
		return errors.Newf("model %s already registered", name)
	}
	r.loaders[name] = loader
	return nil
}

// Get returns the loaded model, loading it on first use
func (r *Registry) Get(ctx context.Context, name string) (Model, error) {
	r.mu.RLock()
	model, ok := r.models[name]
	_, registered := r.loaders[name]
	r.mu.RUnlock()

	if ok {
		return model, nil
	}
	if !registered {
		return nil, errors.Wrapf(errors.ErrModelUnavailable, "model %s is not registered", name)
	}

	v, err, _ := r.group.Do(name, func() (interface{}, error) {
		return r.load(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(Model), nil
}

func (r *Registry) load(ctx context.Context, name string) (Model, error) {
	r.mu.RLock()
	if model, ok := r.models[name]; ok {
		r.mu.RUnlock()
		return model, nil
	}
	loader := r.loaders[name]
	r.mu.RUnlock()

	start := time.Now()
	model, err := loader(ctx)
	metrics.RecordModelLoad(name, time.Since(start), err)
	if err != nil {
		r.log.Warn("model load failed", "model", name, "error", err)
		if !errors.Is(err, errors.ErrModelUnavailable) {
			err = errors.Wrapf(errors.ErrModelUnavailable, "load model %s: %v", name, err)
		}
		return nil, err
	}
	if model == nil {
		return nil, errors.Wrapf(errors.ErrModelUnavailable, "loader for %s returned no model", name)
	}

	r.mu.Lock()
	r.models[name] = model
	r.mu.Unlock()

	r.log.Info("model loaded", "model", name, "duration", time.Since(start))
	return model, nil
}

// Lookup returns the named model asserted to T
func Lookup[T Model](ctx context.Context, r *Registry, name string) (T, error) {
	var zero T
	model, err := r.Get(ctx, name)
	if err != nil {
		return zero, err
	}
	typed, ok := model.(T)
	if !ok {
		return zero, errors.Newf("model %s has type %T", name, model)
	}
	return typed, nil
}

// Loaded reports whether name is currently loaded
func (r *Registry) Loaded(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.models[name]
	return ok
}

// Names returns registered model names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.loaders))
	for name := range r.loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status snapshots the loaded flag of every registered model
func (r *Registry) Status() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := make(map[string]bool, len(r.loaders))
	for name := range r.loaders {
		_, ok := r.models[name]
		status[name] = ok
	}
	return status
}

// Preload loads every registered model and returns the failures. Missing
// optional models are expected, so callers usually only log the result.
func (r *Registry) Preload(ctx context.Context) error {
	var errs errors.MultiError
	for _, name := range r.Names() {
		if _, err := r.Get(ctx, name); err != nil {
			errs.Add(err)
		}
	}
	return errs.ToError()
}

// Reload drops the current instance and loads the artifact again
func (r *Registry) Reload(ctx context.Context, name string) (Model, error) {
	r.mu.Lock()
	old, ok := r.models[name]
	delete(r.models, name)
	r.mu.Unlock()

	if ok {
		if err := old.Close(); err != nil {
			r.log.Warn("failed to close model before reload", "model", name, "error", err)
		}
	}
	r.group.Forget(name)
	return r.Get(ctx, name)
}

// Close tears down every loaded model
func (r *Registry) Close() error {
	r.mu.Lock()
	models := r.models
	r.models = make(map[string]Model)
	r.mu.Unlock()

	var errs errors.MultiError
	for name, model := range models {
		if err := model.Close(); err != nil {
			errs.Add(errors.Wrapf(err, "close model %s", name))
		}
	}
	return errs.ToError()
}
