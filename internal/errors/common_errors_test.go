package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("disk gone")
		err := NewAppError(ErrTypeStorage, "write failed", cause)
		assert.Equal(t, "[STORAGE] write failed: disk gone", err.Error())
		assert.Equal(t, cause, errors.Unwrap(err))
	})

	t.Run("without cause", func(t *testing.T) {
		err := NewAppError(ErrTypeConfig, "missing data dir", nil)
		assert.Equal(t, "[CONFIG] missing data dir", err.Error())
		assert.Nil(t, errors.Unwrap(err))
	})
}

func TestAppErrorWithContext(t *testing.T) {
	err := NewAppValidationError("bad field").
		WithContext("field", "lag").
		WithContext("value", -1)

	assert.Equal(t, "lag", err.Context["field"])
	assert.Equal(t, -1, err.Context["value"])
}

func TestNewLoadError(t *testing.T) {
	err := NewLoadError("casasola.csv", "missing required column embalse_reserva", nil)
	assert.Equal(t, ErrTypeLoad, err.Type)
	assert.Equal(t, "casasola.csv", err.Context["file"])
	assert.True(t, IsLoadError(err))
	assert.False(t, IsFormatError(err))
}

func TestNewFormatError(t *testing.T) {
	err := NewFormatError("conde.csv", 17, "invalid date \"2020-13-40\"", nil)
	assert.Equal(t, ErrTypeFormat, err.Type)
	assert.Equal(t, "conde.csv", err.Context["file"])
	assert.Equal(t, 17, err.Context["row"])
	assert.True(t, IsFormatError(err))
}

func TestNewInvalidLagError(t *testing.T) {
	err := NewInvalidLagError(-5)
	assert.Contains(t, err.Error(), "-5")
	assert.True(t, IsInvalidLagError(err))
	assert.Equal(t, -5, err.Context["lag"])
}

func TestNewInsufficientDataError(t *testing.T) {
	err := NewInsufficientDataError("decomposition needs two full periods", 365, 730)
	assert.True(t, IsInsufficientDataError(err))
	assert.Equal(t, 365, err.Context["have"])
	assert.Equal(t, 730, err.Context["need"])
}

func TestIsTypeThroughWrapping(t *testing.T) {
	inner := NewInvalidLagError(-1)
	wrapped := fmt.Errorf("correlation request: %w", inner)

	assert.True(t, IsInvalidLagError(wrapped))
	assert.False(t, IsLoadError(wrapped))

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeInvalidLag, appErr.Type)
}

func TestIsTypePlainError(t *testing.T) {
	assert.False(t, IsType(errors.New("plain"), ErrTypeLoad))
	assert.False(t, IsType(nil, ErrTypeLoad))
}
