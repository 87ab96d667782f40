package leave

import "errors"

var (
	// Validation.
	ErrInvalidRange    = errors.New("invalid date range")
	ErrInvalidArgument = errors.New("invalid argument")

	// Business rules. Reported synchronously, nothing persisted.
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrOverlappingRequest  = errors.New("overlapping leave request")
	ErrNoAllocation        = errors.New("no leave allocation")

	// Authorization.
	ErrForbidden = errors.New("forbidden")

	// Lifecycle.
	ErrNotFound          = errors.New("leave request not found")
	ErrInvalidTransition = errors.New("invalid status transition")

	// Consistency. The whole transition aborted; the caller may retry.
	ErrConflictRetryable = errors.New("conflicting concurrent update, retry")
)
