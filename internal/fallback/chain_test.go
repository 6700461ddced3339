package fallback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartkitchen/pkg/errors"
)

func constant(name string, v string, err error) Provider[int, string] {
	return Func(name, func(_ context.Context, _ int) (string, error) {
		return v, err
	})
}

func TestChain_FirstSuccessWins(t *testing.T) {
	calls := 0
	counting := Func("counting", func(_ context.Context, _ int) (string, error) {
		calls++
		return "late", nil
	})

	chain := NewChain[int, string]("test",
		constant("primary", "", errors.ErrModelUnavailable),
		constant("secondary", "found", nil),
		counting,
	)

	out, err := chain.Run(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "found", out.Value)
	assert.Equal(t, "secondary", out.Provider)
	require.Len(t, out.Attempts, 2)
	assert.Equal(t, OutcomeError, out.Attempts[0].Outcome)
	assert.Equal(t, OutcomeSuccess, out.Attempts[1].Outcome)
	assert.Zero(t, calls, "providers after the winner are not called")
}

func TestChain_NoResultMovesOn(t *testing.T) {
	chain := NewChain[int, string]("test",
		constant("detector", "", errors.Wrap(errors.ErrNoResult, "no boxes")),
		constant("heuristic", "vegetables", nil),
	)

	out, err := chain.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "heuristic", out.Provider)
	assert.Equal(t, OutcomeNoResult, out.Attempts[0].Outcome)
}

func TestChain_Exhausted(t *testing.T) {
	chain := NewChain[int, string]("test",
		constant("a", "", errors.ErrModelUnavailable),
		constant("b", "", errors.ErrNoResult),
	)

	out, err := chain.Run(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrChainExhausted))
	assert.True(t, errors.Is(err, errors.ErrModelUnavailable))
	assert.True(t, errors.Is(err, errors.ErrNoResult))
	assert.Len(t, out.Attempts, 2)
	assert.Empty(t, out.Provider)
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChain[int, string]("empty").Run(context.Background(), 0)
	assert.True(t, errors.Is(err, errors.ErrChainExhausted))
}

func TestChain_PanicIsStageFailure(t *testing.T) {
	chain := NewChain[int, string]("test",
		Func("boom", func(_ context.Context, _ int) (string, error) { panic("bad tensor") }),
		constant("safe", "ok", nil),
	)

	out, err := chain.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
	assert.Equal(t, []string{"boom", "safe"}, chain.Providers())
}

func TestChain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChain[int, string]("test", constant("a", "x", nil)).Run(ctx, 0)
	assert.True(t, errors.Is(err, context.Canceled))
}
