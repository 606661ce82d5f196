package errors_test

import (
	"fmt"
	"testing"

	"github.com/absmach/fusion/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRetryable(t *testing.T) {
	t.Parallel()

	retryable := []error{
		errors.ErrInvalidPhase,
		errors.ErrExpired,
		errors.ErrUnauthorized,
		errors.ErrDuplicateParticipant,
		errors.ErrInsufficientParticipants,
		errors.ErrMaxParticipants,
		errors.ErrStaleUpdate,
	}
	for _, err := range retryable {
		assert.True(t, errors.Retryable(err), err.Error())
		// Classification survives wrapping.
		assert.True(t, errors.Retryable(fmt.Errorf("context: %w", err)))
	}

	terminal := []error{
		errors.ErrProofRejected,
		errors.ErrInsufficientShares,
		errors.ErrDimensionMismatch,
		errors.ErrHashMismatch,
		errors.ErrWeightCalculation,
		errors.ErrNotFound,
	}
	for _, err := range terminal {
		assert.False(t, errors.Retryable(err), err.Error())
	}
}
