package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rwaledger/core/events"
	"rwaledger/observability"
)

const (
	defaultMaxAttempts = 5
	defaultMinBackoff  = 2 * time.Second
	defaultMaxBackoff  = 30 * time.Second
	defaultQueueSize   = 256

	// SignatureHeader carries "sha256=" followed by the hex HMAC of the body.
	SignatureHeader = "X-RWA-Signature"
	EventHeader     = "X-RWA-Event"
	DeliveryHeader  = "X-RWA-Delivery"
)

// ErrQueueFull is returned when the delivery queue cannot accept more events.
var ErrQueueFull = errors.New("webhook: queue full")

// Payload is the JSON body posted for every committed event.
type Payload struct {
	DeliveryID string            `json:"deliveryId"`
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	Timestamp  int64             `json:"timestamp"`
	Attributes map[string]string `json:"attributes"`
}

// Dispatcher posts committed events to an HTTP endpoint with retry and
// exponential backoff. Deliveries run on a single worker so the endpoint
// observes events in commit order.
type Dispatcher struct {
	endpoint    string
	secret      []byte
	client      *http.Client
	logger      *slog.Logger
	maxAttempts int
	minBackoff  time.Duration
	maxBackoff  time.Duration
	types       map[string]struct{}
	queueSize   int

	ctx    context.Context
	cancel context.CancelFunc
	queue  chan delivery
	wg     sync.WaitGroup
}

type delivery struct {
	id        string
	eventType string
	body      []byte
}

// Option mutates dispatcher configuration.
type Option func(*Dispatcher)

// WithHTTPClient overrides the HTTP client used for deliveries.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// WithRetryPolicy overrides the retry configuration.
func WithRetryPolicy(maxAttempts int, minBackoff, maxBackoff time.Duration) Option {
	return func(d *Dispatcher) {
		if maxAttempts > 0 {
			d.maxAttempts = maxAttempts
		}
		if minBackoff > 0 {
			d.minBackoff = minBackoff
		}
		if maxBackoff >= minBackoff && maxBackoff > 0 {
			d.maxBackoff = maxBackoff
		}
	}
}

// WithEventTypes restricts delivery to the listed event types.
func WithEventTypes(types ...string) Option {
	return func(d *Dispatcher) {
		for _, t := range types {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				if d.types == nil {
					d.types = make(map[string]struct{})
				}
				d.types[trimmed] = struct{}{}
			}
		}
	}
}

// WithQueueSize bounds the number of pending deliveries.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher constructs a dispatcher and spawns the worker goroutine.
func NewDispatcher(endpoint string, secret []byte, opts ...Option) (*Dispatcher, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("webhook: endpoint required")
	}
	if len(secret) == 0 {
		return nil, errors.New("webhook: secret required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	dispatcher := &Dispatcher{
		endpoint:    endpoint,
		secret:      append([]byte(nil), secret...),
		client:      &http.Client{Timeout: 15 * time.Second},
		logger:      slog.Default(),
		maxAttempts: defaultMaxAttempts,
		minBackoff:  defaultMinBackoff,
		maxBackoff:  defaultMaxBackoff,
		queueSize:   defaultQueueSize,
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(dispatcher)
	}
	dispatcher.queue = make(chan delivery, dispatcher.queueSize)
	dispatcher.wg.Add(1)
	go dispatcher.worker()
	return dispatcher, nil
}

// Close stops the dispatcher and waits for the inflight delivery to finish.
// Queued deliveries are dropped.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.cancel()
	d.wg.Wait()
}

// Emit satisfies events.Emitter. It never blocks; events arriving while the
// queue is full are dropped and counted.
func (d *Dispatcher) Emit(evt events.Event) {
	payload := events.Payload(evt)
	if payload == nil {
		return
	}
	if d.types != nil {
		if _, ok := d.types[payload.Type]; !ok {
			return
		}
	}
	err := d.Enqueue(Payload{
		Sequence:   payload.Sequence,
		Type:       payload.Type,
		Timestamp:  payload.Timestamp,
		Attributes: payload.Attributes,
	})
	if err != nil {
		observability.Events().RecordSinkFailure("webhook")
		d.logger.Warn("webhook enqueue failed",
			slog.String("type", payload.Type),
			slog.Uint64("sequence", payload.Sequence),
			slog.String("error", err.Error()))
	}
}

// Enqueue schedules payload for delivery.
func (d *Dispatcher) Enqueue(payload Payload) error {
	if d == nil {
		return errors.New("webhook: dispatcher not initialised")
	}
	if payload.DeliveryID == "" {
		payload.DeliveryID = uuid.NewString()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := delivery{id: payload.DeliveryID, eventType: payload.Type, body: data}
	select {
	case <-d.ctx.Done():
		return errors.New("webhook: dispatcher closed")
	default:
	}
	select {
	case d.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.queue:
			d.process(job)
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) process(job delivery) {
	attempt := 0
	backoff := d.minBackoff
	for {
		attempt++
		ctx, cancel := context.WithTimeout(d.ctx, d.client.Timeout)
		err := d.send(ctx, job)
		cancel()
		if err == nil {
			return
		}
		if attempt >= d.maxAttempts {
			observability.Events().RecordSinkFailure("webhook")
			d.logger.Warn("webhook delivery abandoned",
				slog.String("delivery", job.id),
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()))
			return
		}
		select {
		case <-time.After(backoff):
		case <-d.ctx.Done():
			return
		}
		backoff = nextBackoff(backoff, d.maxBackoff)
	}
}

func (d *Dispatcher) send(ctx context.Context, job delivery) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(job.body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, job.eventType)
	req.Header.Set(DeliveryHeader, job.id)
	req.Header.Set(SignatureHeader, Sign(d.secret, job.body))
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("webhook: delivery failed with status %d", resp.StatusCode)
}

// Sign computes the signature header value for body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret.
func Verify(secret, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(strings.TrimSpace(signature)))
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max || next < current {
		return max
	}
	return next
}
