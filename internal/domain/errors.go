package domain

import "errors"

// Error kinds. Network-facing failures are wrapped into one of these at the
// component boundary so callers can map them without inspecting provider
// detail.
var (
	// ErrValidation marks bad user input, raised before any store or feed
	// call is made.
	ErrValidation = errors.New("validation failed")

	// ErrInsertRejected marks a deal insert the store's access policy
	// refused. Not retried automatically.
	ErrInsertRejected = errors.New("insert rejected")

	// ErrAuth covers unknown accounts, bad passwords and unconfirmed email
	// addresses. Callers surface a uniform message for all three.
	ErrAuth = errors.New("authentication failed")

	// ErrInitialization marks a failed dashboard bring-up (bulk read or
	// feed subscription). The caller may retry.
	ErrInitialization = errors.New("initialization failed")

	// ErrFeedDisconnected marks a dropped change feed subscription.
	// Recovery is a full resync, never a blind resubscribe.
	ErrFeedDisconnected = errors.New("change feed disconnected")

	// ErrNotFound marks a missing row.
	ErrNotFound = errors.New("not found")
)
