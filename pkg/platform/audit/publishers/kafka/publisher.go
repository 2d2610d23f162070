// Package kafka publishes audit events to a Kafka topic so downstream
// compliance and reporting pipelines can consume them.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "caseflow/pkg/platform/audit"
)

// DefaultTopic is where audit events land unless overridden.
const DefaultTopic = "caseflow.audit.events"

// Publisher emits audit events to Kafka. Events are keyed by principal ID so
// a principal's events stay ordered within a partition.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithTopic overrides the destination topic.
func WithTopic(topic string) Option {
	return func(p *Publisher) {
		p.topic = topic
	}
}

// NewPublisher connects to the given seed brokers and ensures the audit topic
// exists. Topic creation races with other instances are tolerated.
func NewPublisher(ctx context.Context, seedBrokers []string, opts ...Option) (*Publisher, error) {
	if len(seedBrokers) == 0 {
		return nil, fmt.Errorf("at least one seed broker is required")
	}

	p := &Publisher{topic: DefaultTopic}
	for _, opt := range opts {
		opt(p)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(seedBrokers...),
		kgo.DefaultProduceTopic(p.topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p.client = client

	if err := p.ensureTopic(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return p, nil
}

func (p *Publisher) ensureTopic(ctx context.Context) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Emit produces the event to the audit topic and waits for the broker ack.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(strconv.FormatInt(event.PrincipalID, 10)),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes outstanding records and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
