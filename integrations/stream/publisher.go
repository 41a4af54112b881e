package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"rwaledger/core/events"
	"rwaledger/core/types"
	"rwaledger/observability"
)

// Producer is the subset of *kgo.Client the publisher relies on.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// Config selects the brokers and topic committed events are published to.
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// Message is the JSON value of each published record.
type Message struct {
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	Timestamp  int64             `json:"timestamp"`
	Attributes map[string]string `json:"attributes"`
}

const flushTimeout = 10 * time.Second

// Publisher forwards committed ledger events to a Kafka topic.
type Publisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

// Dial connects a franz-go client using cfg.
func Dial(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("stream: at least one broker required")
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return nil, errors.New("stream: topic required")
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		clientID = "rwad"
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ClientID(clientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("stream: new client: %w", err)
	}
	return NewPublisher(client, topic, logger), nil
}

// NewPublisher wraps an existing producer.
func NewPublisher(producer Producer, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{producer: producer, topic: topic, logger: logger}
}

// Emit publishes evt asynchronously. Records are keyed by asset so that one
// asset's events keep their order within a partition.
func (p *Publisher) Emit(evt events.Event) {
	payload := events.Payload(evt)
	if payload == nil || p.producer == nil {
		return
	}
	record, err := p.record(payload)
	if err != nil {
		observability.Events().RecordSinkFailure("stream")
		p.logger.Warn("stream encode failed", slog.String("type", payload.Type), slog.String("error", err.Error()))
		return
	}
	p.producer.Produce(context.Background(), record, func(r *kgo.Record, err error) {
		if err == nil {
			return
		}
		observability.Events().RecordSinkFailure("stream")
		p.logger.Warn("stream publish failed",
			slog.String("topic", r.Topic),
			slog.Uint64("sequence", payload.Sequence),
			slog.String("error", err.Error()))
	})
}

func (p *Publisher) record(evt *types.Event) (*kgo.Record, error) {
	value, err := json.Marshal(Message{
		Sequence:   evt.Sequence,
		Type:       evt.Type,
		Timestamp:  evt.Timestamp,
		Attributes: evt.Attributes,
	})
	if err != nil {
		return nil, err
	}
	key := evt.Attributes["assetId"]
	if key == "" {
		key = evt.Type
	}
	return &kgo.Record{
		Topic: p.topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte(evt.Type)},
			{Key: "sequence", Value: []byte(strconv.FormatUint(evt.Sequence, 10))},
		},
	}, nil
}

// Close flushes buffered records and closes the producer.
func (p *Publisher) Close(ctx context.Context) error {
	if p == nil || p.producer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	err := p.producer.Flush(ctx)
	p.producer.Close()
	return err
}
