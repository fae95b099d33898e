package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrTypeParse, "bad input")
	assert.Equal(t, "parse: bad input", err.Error())

	wrapped := Wrap(errors.New("io fail"), ErrTypeSourceLoad, "cannot read source")
	assert.Equal(t, "source_load: cannot read source (caused by: io fail)", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(cause, ErrTypeDatabase, "query failed")

	assert.ErrorIs(t, err, cause)
}

func TestIsTypeAndGetType(t *testing.T) {
	err := Newf(ErrTypeEmbedding, "batch %d failed", 3)

	assert.True(t, IsType(err, ErrTypeEmbedding))
	assert.False(t, IsType(err, ErrTypeDatabase))
	assert.Equal(t, ErrTypeEmbedding, GetType(err))

	// works through further wrapping
	outer := fmt.Errorf("outer: %w", err)
	assert.True(t, IsType(outer, ErrTypeEmbedding))

	assert.Equal(t, ErrTypeInternal, GetType(errors.New("plain")))
	assert.False(t, IsType(errors.New("plain"), ErrTypeEmbedding))
}

func TestSuggestions(t *testing.T) {
	err := NewConfigError("missing value", "api_key")

	require.NotEmpty(t, err.Suggestions)
	assert.Contains(t, err.Message, "api_key")

	err = err.WithSuggestion("another hint")
	assert.Contains(t, err.Suggestions, "another hint")
}
