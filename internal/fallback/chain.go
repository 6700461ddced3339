package fallback

import (
	"context"
	"time"

	"smartkitchen/internal/metrics"
	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

// Provider is one capability in a fallback chain.
// Returning errors.ErrNoResult means the stage ran cleanly but found nothing.
type Provider[In, Out any] interface {
	Name() string
	Run(ctx context.Context, in In) (Out, error)
}

// ProviderFunc adapts a function to Provider
type ProviderFunc[In, Out any] struct {
	ProviderName string
	Fn           func(ctx context.Context, in In) (Out, error)
}

func (p ProviderFunc[In, Out]) Name() string { return p.ProviderName }

func (p ProviderFunc[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	return p.Fn(ctx, in)
}

// Func builds a named ProviderFunc
func Func[In, Out any](name string, fn func(ctx context.Context, in In) (Out, error)) ProviderFunc[In, Out] {
	return ProviderFunc[In, Out]{ProviderName: name, Fn: fn}
}

// Attempt records one stage of a run
type Attempt struct {
	Provider string        `json:"provider"`
	Outcome  string        `json:"outcome"` // success|no_result|error
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

const (
	OutcomeSuccess  = "success"
	OutcomeNoResult = "no_result"
	OutcomeError    = "error"
)

// Outcome is the result of the first successful provider
type Outcome[Out any] struct {
	Value    Out
	Provider string
	Attempts []Attempt
}

// Chain polls providers in priority order; the first success wins
type Chain[In, Out any] struct {
	name      string
	providers []Provider[In, Out]
	log       *logger.Logger
}

// NewChain creates a named chain over providers in priority order
func NewChain[In, Out any](name string, providers ...Provider[In, Out]) *Chain[In, Out] {
	return &Chain[In, Out]{
		name:      name,
		providers: providers,
		log:       logger.Get().With("component", "fallback", "chain", name),
	}
}

// Name returns the chain name
func (c *Chain[In, Out]) Name() string {
	return c.name
}

// Providers returns provider names in priority order
func (c *Chain[In, Out]) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Run tries every provider once, in order. Stage failures are not fatal.
// When no provider succeeds the error wraps ErrChainExhausted and every stage error.
func (c *Chain[In, Out]) Run(ctx context.Context, in In) (Outcome[Out], error) {
	var (
		out  Outcome[Out]
		errs errors.MultiError
	)

	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return out, errors.Wrapf(err, "fallback chain %s cancelled", c.name)
		}

		start := time.Now()
		value, err := c.call(ctx, p, in)
		attempt := Attempt{Provider: p.Name(), Duration: time.Since(start), Err: err}

		switch {
		case err == nil:
			attempt.Outcome = OutcomeSuccess
		case errors.Is(err, errors.ErrNoResult):
			attempt.Outcome = OutcomeNoResult
		default:
			attempt.Outcome = OutcomeError
		}
		out.Attempts = append(out.Attempts, attempt)
		metrics.RecordFallbackAttempt(c.name, p.Name(), attempt.Outcome)

		if err == nil {
			out.Value = value
			out.Provider = p.Name()
			if len(out.Attempts) > 1 {
				c.log.Debug("fallback provider succeeded", "provider", p.Name(), "attempts", len(out.Attempts))
			}
			return out, nil
		}

		c.log.Debug("fallback provider failed", "provider", p.Name(), "outcome", attempt.Outcome, "error", err)
		errs.Add(errors.Wrapf(err, "%s", p.Name()))
	}

	metrics.RecordFallbackExhausted(c.name)
	if !errs.HasErrors() {
		return out, errors.Wrapf(errors.ErrChainExhausted, "fallback chain %s has no providers", c.name)
	}
	return out, errors.Wrapf(errors.Join(errors.ErrChainExhausted, &errs), "fallback chain %s", c.name)
}

// call runs a provider, turning a panic into a stage error
func (c *Chain[In, Out]) call(ctx context.Context, p Provider[In, Out], in In) (value Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("provider %s panicked: %v", p.Name(), r)
		}
	}()
	return p.Run(ctx, in)
}
