package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Queue admission errors. The three are distinct so callers can tell
	// "never got a chance to run" apart from capacity pressure and from an
	// explicit skip request.
	ErrQueueAtCapacity  = fmt.Errorf("queue at capacity")
	ErrQueueWaitTimeout = fmt.Errorf("timed out waiting for queue slot")
	ErrQueueSkipped     = fmt.Errorf("queue skipped by request")

	// Verification errors
	ErrVerificationUnavailable = fmt.Errorf("verification unavailable")
	ErrRateLimited             = fmt.Errorf("provider rate limited")
	ErrQuotaExhausted          = fmt.Errorf("provider quota exhausted")
	ErrTimeout                 = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrMappingNotFound    = fmt.Errorf("mapping not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
