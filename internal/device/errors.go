package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrInvalidPayload) {
//	    // report the malformed event, keep listening
//	}
var (
	// ErrInvalidRecord is returned when a record fails validation.
	ErrInvalidRecord = errors.New("device: invalid record")

	// ErrInvalidPayload is returned when an event or cache payload cannot be
	// decoded into records.
	ErrInvalidPayload = errors.New("device: invalid payload")

	// ErrInvalidUpdate is returned when an Update has an unknown kind.
	ErrInvalidUpdate = errors.New("device: invalid update")
)
