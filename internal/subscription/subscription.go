package subscription

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/bt-monitor/internal/backend"
	"github.com/nerrad567/bt-monitor/internal/device"
)

// State is the lifecycle position of a subscription.
type State int32

const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateSubscribed
	StateFailed
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateUnsubscribed:
		return "unsubscribed"
	case StateSubscribing:
		return "subscribing"
	case StateSubscribed:
		return "subscribed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// SnapshotFunc receives every decoded update in delivery order.
type SnapshotFunc func(device.Update)

// ErrorFunc receives setup failures and per-event decode errors.
type ErrorFunc func(error)

// Logger defines the logging interface used by subscriptions.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Subscription is one listener on a backend push channel.
//
// Events are decoded and dispatched one at a time, in delivery order. Once
// Unsubscribe has returned no new dispatch starts. A dispatch that was
// already running may still complete its callback; callers that need a hard
// stop follow Unsubscribe with Drain from outside any callback.
//
// A nil *Subscription is valid; its Unsubscribe is a no-op.
type Subscription struct {
	channel    string
	onSnapshot SnapshotFunc
	onError    ErrorFunc
	logger     Logger

	state atomic.Int32

	// dispatchMu serialises event dispatch.
	dispatchMu sync.Mutex

	unlistenOnce sync.Once
	unlisten     func() error
	unlistenErr  error
}

// Options configures Subscribe.
type Options struct {
	// Channel is the push channel name; defaults to backend.DefaultEventChannel.
	Channel string

	// Logger is optional.
	Logger Logger
}

// Subscribe registers exactly one listener on the channel.
//
// On setup failure onError is called exactly once, before Subscribe returns,
// with an error wrapping backend.ErrSubscriptionSetup; the same error is
// returned together with a nil handle.
func Subscribe(source backend.EventSource, opts Options, onSnapshot SnapshotFunc, onError ErrorFunc) (*Subscription, error) {
	if opts.Channel == "" {
		opts.Channel = backend.DefaultEventChannel
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if onError == nil {
		onError = func(error) {}
	}
	if onSnapshot == nil {
		err := fmt.Errorf("%w: snapshot callback cannot be nil", backend.ErrSubscriptionSetup)
		onError(err)
		return nil, err
	}

	s := &Subscription{
		channel:    opts.Channel,
		onSnapshot: onSnapshot,
		onError:    onError,
		logger:     opts.Logger,
	}
	s.state.Store(int32(StateSubscribing))

	unlisten, err := source.Listen(opts.Channel, s.handle)
	if err != nil {
		s.state.Store(int32(StateFailed))
		if !errors.Is(err, backend.ErrSubscriptionSetup) {
			err = fmt.Errorf("%w: %w", backend.ErrSubscriptionSetup, err)
		}
		s.logger.Error("event subscription failed", "channel", opts.Channel, "error", err)
		onError(err)
		return nil, err
	}

	s.unlisten = unlisten
	// Events may already have arrived during setup; handle drops them until
	// the state says subscribed.
	s.state.CompareAndSwap(int32(StateSubscribing), int32(StateSubscribed))
	s.logger.Info("event subscription established", "channel", opts.Channel)
	return s, nil
}

// State returns the current lifecycle state.
func (s *Subscription) State() State {
	if s == nil {
		return StateUnsubscribed
	}
	return State(s.state.Load())
}

// Channel returns the subscribed channel name.
func (s *Subscription) Channel() string {
	if s == nil {
		return ""
	}
	return s.channel
}

// Unsubscribe tears the listener down. It is idempotent and never blocks on
// dispatch, so it may be called from inside a callback. The returned error is
// the transport's, from the first call only.
func (s *Subscription) Unsubscribe() error {
	if s == nil {
		return nil
	}

	prev := State(s.state.Swap(int32(StateUnsubscribed)))
	if prev == StateSubscribed {
		s.logger.Info("event subscription closed", "channel", s.channel)
	}

	s.unlistenOnce.Do(func() {
		if s.unlisten != nil {
			s.unlistenErr = s.unlisten()
		}
	})
	return s.unlistenErr
}

// Drain blocks until no dispatch is running. After Unsubscribe followed by
// Drain, onSnapshot and onError are never called again. Drain must not be
// called from inside a callback.
func (s *Subscription) Drain() {
	if s == nil {
		return
	}
	s.dispatchMu.Lock()
	// Empty critical section: acquiring the lock waits out the running
	// dispatch.
	s.dispatchMu.Unlock() //nolint:staticcheck // SA2001: lock used as a barrier
}

// handle is the raw listener registered with the event source.
func (s *Subscription) handle(payload []byte) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	if s.State() != StateSubscribed {
		return
	}

	u, ok, err := device.DecodeUpdate(payload)
	if err != nil {
		s.logger.Warn("dropping malformed device event", "channel", s.channel, "error", err)
		if s.State() == StateSubscribed {
			s.onError(fmt.Errorf("%w: %w", backend.ErrSerialization, err))
		}
		return
	}
	if !ok {
		return
	}

	s.logger.Debug("device event received", "channel", s.channel, "kind", u.Kind, "records", len(u.Records))
	if s.State() == StateSubscribed {
		s.onSnapshot(u)
	}
}
