package types

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationInvalidJSON, http.StatusBadRequest},
		{ErrCodeValidationMissingField, http.StatusBadRequest},
		{ErrCodeUpstreamWeather, http.StatusBadGateway},
		{ErrCodeUpstreamRateLimited, http.StatusBadGateway},
		{ErrCodeInternalStore, http.StatusInternalServerError},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
		// Training codes never reach HTTP; the safe default applies.
		{ErrCodeDataTargetNotFound, http.StatusInternalServerError},
		{ErrCodeConfigNoFeatures, http.StatusInternalServerError},
		{ErrorCode("something_unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewAppError(ErrCodeUpstreamWeather, "weather fetch failed", inner)

	assert.Equal(t, "upstream_weather_unavailable: weather fetch failed", err.Error())
	assert.Equal(t, inner, errors.Unwrap(err))
	assert.True(t, errors.Is(err, inner))
}

func TestAppError_AsThroughWrapping(t *testing.T) {
	err := NewAppError(ErrCodeDataTargetNotFound, "no rain column", nil)
	wrapped := &AppError{Code: ErrCodeInternalUnexpected, Message: "outer", Err: err}

	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrCodeInternalUnexpected, appErr.Code)
}

func TestNewAppErrorWithDetails(t *testing.T) {
	err := NewAppErrorWithDetails(ErrCodeValidationInvalidMode, "bad mode", nil, map[string]any{"mode": "HALF"})
	assert.Equal(t, "HALF", err.Details["mode"])
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
}
