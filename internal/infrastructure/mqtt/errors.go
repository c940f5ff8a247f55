package mqtt

import "errors"

var (
	// ErrNotConnected is returned while the broker connection is down. The
	// backend package maps it to its unavailable error.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed means Connect could not reach the broker.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS rejects levels other than 0, 1 and 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic rejects empty topics and wildcards in published topics.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")
)
