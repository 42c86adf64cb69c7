package notifications

import (
	"context"
	"fmt"
	"time"

	"busline/internal/shared/config"
	"busline/pkg/logger"

	"github.com/IBM/sarama"
)

// Notifier delivers one event to its destination.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
	Close() error
}

// KafkaProducerConfig contains configuration for the Kafka notifier
type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	ClientID         string
	RetryMax         int
	Timeout          time.Duration
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "busline.booking-events",
		ClientID:         "busline",
		RetryMax:         3,
		Timeout:          10 * time.Second,
		RequiredAcks:     sarama.WaitForAll, // Wait for all in-sync replicas
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000, // 1MB
	}
}

// KafkaProducerConfigFrom maps application config onto producer settings
func KafkaProducerConfigFrom(cfg config.KafkaConfig) *KafkaProducerConfig {
	pc := DefaultKafkaProducerConfig()
	if len(cfg.Brokers) > 0 {
		pc.Brokers = cfg.Brokers
	}
	if cfg.NotificationTopic != "" {
		pc.Topic = cfg.NotificationTopic
	}
	if cfg.ClientID != "" {
		pc.ClientID = cfg.ClientID
	}
	if cfg.RetryMax > 0 {
		pc.RetryMax = cfg.RetryMax
	}
	if cfg.Timeout > 0 {
		pc.Timeout = cfg.Timeout
	}
	return pc
}

// KafkaNotifier publishes booking and payment events to a Kafka topic
type KafkaNotifier struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
	logger   *logger.Logger
}

// NewKafkaNotifier connects a sync producer to the configured brokers
func NewKafkaNotifier(cfg *KafkaProducerConfig) (*KafkaNotifier, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = cfg.ClientID

	// Producer configuration
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = cfg.RequiredAcks
	saramaConfig.Producer.Compression = cfg.CompressionType
	saramaConfig.Producer.Retry.Max = cfg.RetryMax
	saramaConfig.Producer.Timeout = cfg.Timeout
	saramaConfig.Producer.Idempotent = cfg.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = cfg.MaxMessageBytes

	// Enable idempotent producer
	if cfg.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Events of one booking share a key, so the hash partitioner keeps them ordered
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	notifier := NewKafkaNotifierWithProducer(producer, cfg)
	notifier.logger.Info("Kafka notifier created", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return notifier, nil
}

// NewKafkaNotifierWithProducer wraps an existing producer
func NewKafkaNotifierWithProducer(producer sarama.SyncProducer, cfg *KafkaProducerConfig) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		config:   cfg,
		logger:   logger.GetDefault().WithComponent("kafka-notifier"),
	}
}

// Notify publishes a single event
func (kn *KafkaNotifier) Notify(ctx context.Context, event Event) error {
	messageBytes, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     kn.config.Topic,
		Key:       sarama.StringEncoder(event.PartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Headers:   kn.createHeaders(event),
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := kn.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send event to Kafka: %w", err)
	}

	kn.logger.DebugWithContext(ctx, "Event published", map[string]interface{}{
		"topic":     kn.config.Topic,
		"partition": partition,
		"offset":    offset,
		"type":      event.Type,
		"event_id":  event.ID.String(),
	})
	return nil
}

// createHeaders creates Kafka headers for an event
func (kn *KafkaNotifier) createHeaders(event Event) []sarama.RecordHeader {
	headers := []sarama.RecordHeader{
		{Key: []byte("event_id"), Value: []byte(event.ID.String())},
		{Key: []byte("event_type"), Value: []byte(event.Type)},
		{Key: []byte("priority"), Value: []byte(event.Priority)},
		{Key: []byte("version"), Value: []byte("1.0")},
		{Key: []byte("producer"), Value: []byte(kn.config.ClientID)},
		{Key: []byte("occurred_at"), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
	}

	if event.BookingID != nil {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("booking_id"),
			Value: []byte(event.BookingID.String()),
		})
	}

	if event.PaymentID != nil {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("payment_id"),
			Value: []byte(event.PaymentID.String()),
		})
	}

	return headers
}

// Close closes the Kafka producer
func (kn *KafkaNotifier) Close() error {
	if kn.producer == nil {
		return nil
	}
	if err := kn.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	kn.logger.Info("Kafka notifier closed")
	return nil
}

// LogNotifier writes events to the structured log. Used when Kafka is disabled.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(l *logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.GetDefault()
	}
	return &LogNotifier{logger: l.WithComponent("notifications")}
}

func (ln *LogNotifier) Notify(ctx context.Context, event Event) error {
	fields := map[string]interface{}{
		"event_id": event.ID.String(),
		"type":     event.Type,
		"priority": event.Priority,
	}
	if event.BookingID != nil {
		fields["booking_id"] = event.BookingID.String()
		fields["booking_code"] = event.BookingCode
	}
	if event.PaymentID != nil {
		fields["payment_id"] = event.PaymentID.String()
	}
	if event.Status != "" {
		fields["status"] = event.Status
	}
	ln.logger.InfoWithContext(ctx, "Notification", fields)
	return nil
}

func (ln *LogNotifier) Close() error {
	return nil
}
