package backend

import "errors"

// Errors surfaced by backend operations.
//
// Callers check them with errors.Is; the underlying transport or decode
// error is wrapped alongside:
//
//	if errors.Is(err, backend.ErrTimeout) {
//	    // report, registry is unchanged
//	}
var (
	// ErrBackendUnavailable is returned when the backend channel is not ready
	// or the request could not be handed to it.
	ErrBackendUnavailable = errors.New("backend: unavailable")

	// ErrTimeout is returned when the backend does not respond within the
	// request timeout or the caller's deadline.
	ErrTimeout = errors.New("backend: request timed out")

	// ErrSerialization is returned when a payload fails its schema, either
	// before sending or when decoding a reply.
	ErrSerialization = errors.New("backend: serialization failed")

	// ErrSubscriptionSetup is returned when a push-event listener could not
	// be registered.
	ErrSubscriptionSetup = errors.New("backend: subscription setup failed")

	// ErrCommandFailed is returned when the backend answers a command with
	// an error.
	ErrCommandFailed = errors.New("backend: command failed")
)
