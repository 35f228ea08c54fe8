package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ServiceError
		expected string
	}{
		{
			name: "error without underlying cause",
			err: &ServiceError{
				Code:    ErrCodeValidation,
				Message: "amount below provider minimum",
			},
			expected: "amount below provider minimum",
		},
		{
			name: "error with underlying cause",
			err: &ServiceError{
				Code:    ErrCodeUpstream,
				Message: "provider check failed",
				Err:     errors.New("connection refused"),
			},
			expected: "provider check failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestServiceError_Unwrap(t *testing.T) {
	underlying := errors.New("connection refused")
	err := &ServiceError{
		Code:    ErrCodeUpstream,
		Message: "provider check failed",
		Err:     underlying,
	}

	assert.Equal(t, underlying, err.Unwrap())
	assert.True(t, errors.Is(err, underlying))

	bare := &ServiceError{Code: ErrCodeNotFound, Message: "not found"}
	assert.Nil(t, bare.Unwrap())
}
