package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
)

// KafkaTopics routes event types to topics.
type KafkaTopics struct {
	Items   string
	Stock   string
	Quality string
}

// KafkaConfig configures the producer.
type KafkaConfig struct {
	Brokers  []string
	ClientID string
	Retries  int
	Acks     string
	Topics   KafkaTopics
}

// KafkaPublisher writes events to Kafka with a synchronous producer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topics   KafkaTopics
}

// NewSaramaConfig builds the producer settings shared by the real and mock producers.
func NewSaramaConfig(cfg KafkaConfig) *sarama.Config {
	config := sarama.NewConfig()
	if cfg.ClientID != "" {
		config.ClientID = cfg.ClientID
	}
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = cfg.Retries
	if config.Producer.Retry.Max <= 0 {
		config.Producer.Retry.Max = 3
	}
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	switch cfg.Acks {
	case "0":
		config.Producer.RequiredAcks = sarama.NoResponse
	case "1":
		config.Producer.RequiredAcks = sarama.WaitForLocal
	default:
		config.Producer.RequiredAcks = sarama.WaitForAll
	}
	// Idempotence requires acks=all.
	if config.Producer.RequiredAcks != sarama.WaitForAll {
		config.Producer.Idempotent = false
	}
	return config
}

// NewKafkaPublisher dials the brokers.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Topics), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topics KafkaTopics) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topics: topics}
}

func (p *KafkaPublisher) Name() string { return "kafka" }

// Publish sends e keyed by entity id, so one item's events stay ordered on a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	topic, err := p.topicFor(e.Type)
	if err != nil {
		return err
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(e.EntityType + ":" + strconv.FormatInt(e.EntityID, 10)),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(e.Type)},
			{Key: []byte("event-id"), Value: []byte(e.ID)},
			{Key: []byte("timestamp"), Value: []byte(e.OccurredAt.Format(time.RFC3339))},
		},
	}
	if _, _, err := p.producer.SendMessage(message); err != nil {
		return fmt.Errorf("sending to %s: %w", topic, err)
	}
	return nil
}

// Close closes the producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

func (p *KafkaPublisher) topicFor(t Type) (string, error) {
	switch t {
	case TypeItemCreated, TypeItemUpdated, TypeItemDeactivated:
		return p.topics.Items, nil
	case TypeStockChanged, TypeLowStock, TypeOverstock:
		return p.topics.Stock, nil
	case TypeBatchReceived, TypeQualityChecked:
		return p.topics.Quality, nil
	default:
		return "", fmt.Errorf("no topic for event type %q", t)
	}
}
