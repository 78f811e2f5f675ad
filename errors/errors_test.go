package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/Skryldev/plotting/errors"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("redis: connection refused")
	err := apperrors.Wrap(apperrors.CategoryCache, "cache.get", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryCache))
	assert.False(t, apperrors.IsCategory(err, apperrors.CategoryStorage))
	assert.Equal(t, "[cache] cache.get: redis: connection refused", err.Error())

	var pe *apperrors.ProcessingError
	assert.True(t, apperrors.As(err, &pe))
	assert.Equal(t, "cache.get", pe.Op)
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, apperrors.Wrap(apperrors.CategoryRender, "x", nil))
}

func TestMustOverrideSentinels(t *testing.T) {
	assert.ErrorIs(t, apperrors.ErrMissingRenderer, apperrors.ErrMustOverride)
	assert.ErrorIs(t, apperrors.ErrMissingCacheKey, apperrors.ErrMustOverride)

	err := fmt.Errorf("outer: %w", apperrors.New(apperrors.CategoryConfig, "plot", apperrors.ErrMissingRenderer))
	assert.True(t, apperrors.Is(err, apperrors.ErrMustOverride))
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfig))
}
