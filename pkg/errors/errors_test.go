package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_MatchesInvalidInput(t *testing.T) {
	err := Wrap(NewValidationError("category", "unknown label", "Seafood"), "encode item")

	assert.True(t, Is(err, ErrInvalidInput))

	var ve *ValidationError
	assert.True(t, As(err, &ve))
	assert.Equal(t, "category", ve.Field)
}

func TestMultiError_UnwrapsEveryError(t *testing.T) {
	var m MultiError
	assert.Nil(t, m.ToError())

	m.Add(nil)
	m.Add(Wrap(ErrModelUnavailable, "yolo"))
	m.Add(Wrap(ErrNoResult, "item classifier"))

	err := m.ToError()
	assert.Error(t, err)
	assert.True(t, Is(err, ErrModelUnavailable))
	assert.True(t, Is(err, ErrNoResult))
	assert.Contains(t, err.Error(), "multiple errors (2)")
}

func TestWrap_NilPassesThrough(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))
	assert.NoError(t, Wrapf(nil, "context %d", 1))
}
