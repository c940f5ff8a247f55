package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/bt-monitor/internal/device"
	"github.com/nerrad567/bt-monitor/internal/infrastructure/mqtt"
)

// DefaultRequestTimeout bounds how long a command waits for its reply.
const DefaultRequestTimeout = 30 * time.Second

// Transport is the subset of the MQTT client the backend needs.
// *mqtt.Client satisfies it.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
	Topics() mqtt.Topics
	ClientID() string
	QoS() byte
}

// request is published to {prefix}/request/{command}.
type request struct {
	RequestID string          `json:"request_id"`
	ReplyTo   string          `json:"reply_to"`
	Args      json.RawMessage `json:"args,omitempty"`
}

// response is published by the backend to the request's reply_to topic.
type response struct {
	RequestID string          `json:"request_id"`
	OK        bool            `json:"ok"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type pollIntervalArgs struct {
	Minutes int `json:"minutes"`
}

// MQTT implements Backend over an MQTT broker.
//
// Each command publishes a request carrying a fresh correlation ID and waits
// for the matching reply on the client's response topic. Replies that arrive
// after their caller gave up are dropped.
type MQTT struct {
	transport Transport
	timeout   time.Duration

	mu         sync.Mutex
	pending    map[string]chan response
	responding bool

	logger Logger
}

// NewMQTT creates a backend over the given transport. A non-positive timeout
// uses DefaultRequestTimeout.
func NewMQTT(transport Transport, timeout time.Duration) *MQTT {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &MQTT{
		transport: transport,
		timeout:   timeout,
		pending:   make(map[string]chan response),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the backend.
func (b *MQTT) SetLogger(logger Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
}

func (b *MQTT) getLogger() Logger {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logger
}

// ReadConfig implements Commander.
func (b *MQTT) ReadConfig(ctx context.Context) (*Config, error) {
	var raw json.RawMessage
	if err := b.call(ctx, CommandReadConfig, nil, &raw); err != nil {
		return nil, err
	}
	return DecodeConfig(raw)
}

// WriteConfig implements Commander. The configuration is validated before
// anything is sent.
func (b *MQTT) WriteConfig(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return b.call(ctx, CommandWriteConfig, cfg, nil)
}

// TriggerScan implements Commander.
func (b *MQTT) TriggerScan(ctx context.Context) ([]device.Record, error) {
	var raw json.RawMessage
	if err := b.call(ctx, CommandTriggerScan, nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []device.Record{}, nil
	}
	records, err := device.DecodeRecords(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: scan result: %w", ErrSerialization, err)
	}
	return records, nil
}

// SetPollInterval implements Commander.
func (b *MQTT) SetPollInterval(ctx context.Context, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %d", ErrSerialization, minutes)
	}
	return b.call(ctx, CommandSetPollInterval, pollIntervalArgs{Minutes: minutes}, nil)
}

// Listen implements EventSource by subscribing to {prefix}/event/{channel}.
//
// A failed subscription is not tracked by the transport, so nothing needs to
// be released on error.
func (b *MQTT) Listen(channel string, handler func(payload []byte)) (func() error, error) {
	if channel == "" {
		return nil, fmt.Errorf("%w: channel cannot be empty", ErrSubscriptionSetup)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: handler cannot be nil", ErrSubscriptionSetup)
	}
	if !b.transport.IsConnected() {
		return nil, fmt.Errorf("%w: %w", ErrSubscriptionSetup, ErrBackendUnavailable)
	}

	topic := b.transport.Topics().Event(channel)
	err := b.transport.Subscribe(topic, b.transport.QoS(), func(_ string, payload []byte) error {
		handler(payload)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscriptionSetup, err)
	}

	b.getLogger().Debug("listening for backend events", "topic", topic)

	var once sync.Once
	var unsubErr error
	return func() error {
		once.Do(func() {
			unsubErr = b.transport.Unsubscribe(topic)
			if errors.Is(unsubErr, mqtt.ErrNotConnected) {
				// Already untracked; the broker drops it with the session.
				unsubErr = nil
			}
		})
		return unsubErr
	}, nil
}

// Close stops listening for replies and fails every waiting command.
func (b *MQTT) Close() error {
	b.mu.Lock()
	responding := b.responding
	b.responding = false
	for id, ch := range b.pending {
		close(ch)
		delete(b.pending, id)
	}
	b.mu.Unlock()

	if !responding {
		return nil
	}
	err := b.transport.Unsubscribe(b.transport.Topics().AllResponses(b.transport.ClientID()))
	if errors.Is(err, mqtt.ErrNotConnected) {
		return nil
	}
	return err
}

// ensureResponses subscribes to the client's reply topic on first use.
func (b *MQTT) ensureResponses() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.responding {
		return nil
	}
	topic := b.transport.Topics().AllResponses(b.transport.ClientID())
	if err := b.transport.Subscribe(topic, b.transport.QoS(), b.handleResponse); err != nil {
		return err
	}
	b.responding = true
	return nil
}

func (b *MQTT) handleResponse(topic string, payload []byte) error {
	var resp response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("%w: response on %s: %w", ErrSerialization, topic, err)
	}

	b.mu.Lock()
	ch, ok := b.pending[resp.RequestID]
	delete(b.pending, resp.RequestID)
	logger := b.logger
	b.mu.Unlock()

	if !ok {
		logger.Debug("dropping late backend response", "request_id", resp.RequestID)
		return nil
	}
	ch <- resp // buffered, single send
	return nil
}

func (b *MQTT) forget(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// call publishes a command and waits for its reply. A non-nil result is
// decoded from the reply's result field.
func (b *MQTT) call(ctx context.Context, command string, args, result any) error {
	if !b.transport.IsConnected() {
		return fmt.Errorf("%s: %w", command, ErrBackendUnavailable)
	}
	if err := b.ensureResponses(); err != nil {
		return fmt.Errorf("%s: %w: %w", command, ErrBackendUnavailable, err)
	}

	req := request{
		RequestID: uuid.NewString(),
	}
	req.ReplyTo = b.transport.Topics().Response(b.transport.ClientID(), req.RequestID)
	if args != nil {
		encoded, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("%s: %w: %w", command, ErrSerialization, err)
		}
		req.Args = encoded
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", command, ErrSerialization, err)
	}

	ch := make(chan response, 1)
	b.mu.Lock()
	b.pending[req.RequestID] = ch
	b.mu.Unlock()

	if err := b.transport.Publish(b.transport.Topics().Request(command), payload, b.transport.QoS(), false); err != nil {
		b.forget(req.RequestID)
		return fmt.Errorf("%s: %w: %w", command, ErrBackendUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var resp response
	select {
	case r, ok := <-ch:
		if !ok {
			return fmt.Errorf("%s: %w: backend closed", command, ErrBackendUnavailable)
		}
		resp = r
	case <-ctx.Done():
		b.forget(req.RequestID)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", command, ErrTimeout)
		}
		return fmt.Errorf("%s: %w", command, ctx.Err())
	}

	if !resp.OK {
		return fmt.Errorf("%s: %w: %s", command, ErrCommandFailed, resp.Error)
	}
	if result == nil {
		return nil
	}
	if raw, isRaw := result.(*json.RawMessage); isRaw {
		*raw = resp.Result
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("%s: %w: %w", command, ErrSerialization, err)
	}
	return nil
}
