package errors

import "errors"

// Phase errors. Fatal to the attempted operation; the caller must
// re-check the session phase and deadlines before retrying.
var (
	ErrInvalidPhase = errors.New("operation not allowed in current session phase")
	ErrExpired      = errors.New("session deadline has passed")
)

// Admission errors. Fatal to the current attempt; retryable with a
// corrected participant set.
var (
	ErrUnauthorized             = errors.New("participant is not allowed in this session")
	ErrDuplicateParticipant     = errors.New("participant already admitted")
	ErrInsufficientParticipants = errors.New("insufficient participants for aggregation")
	ErrMaxParticipants          = errors.New("session participant limit reached")
	ErrStaleUpdate              = errors.New("model update exceeds maximum allowed age")
)

// Integrity errors. Security-relevant and never retryable; callers
// must surface these to an audit trail.
var (
	ErrProofRejected      = errors.New("proof verification rejected")
	ErrInsufficientShares = errors.New("insufficient secret shares for threshold")
	ErrDimensionMismatch  = errors.New("parameter dimension mismatch")
	ErrHashMismatch       = errors.New("model hash mismatch")
)

// Numeric errors. The round must abort rather than fall back to a
// partial aggregate.
var ErrWeightCalculation = errors.New("weight calculation error")

// Storage and API errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrEmptyKey      = errors.New("empty key")
	ErrInvalidData   = errors.New("invalid data type")
	ErrEntityExists  = errors.New("entity already exists")
	ErrInvalidConfig = errors.New("invalid session configuration")
)

// Retryable reports whether the orchestration layer may re-attempt the
// operation against the same session. Timing and admission failures
// are retryable once the caller corrects its input; integrity and
// numeric failures are terminal for the round.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidPhase),
		errors.Is(err, ErrExpired),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrDuplicateParticipant),
		errors.Is(err, ErrInsufficientParticipants),
		errors.Is(err, ErrMaxParticipants),
		errors.Is(err, ErrStaleUpdate):
		return true
	default:
		return false
	}
}
