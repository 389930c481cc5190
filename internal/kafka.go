package internal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ticketpay/config"
	"ticketpay/entity"
)

// MessageWriter is implemented by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends payment outcome events keyed by reference id, so all
// events of one order land in the same partition.
type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(conf *config.Config) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(conf.Kafka.Brokers...),
		Topic:        conf.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	})
}

func NewKafkaPublisherWithWriter(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (k *KafkaPublisher) PublishPaymentEvent(ctx context.Context, event *entity.PaymentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ReferenceId),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish event %s: %w", event.ReferenceId, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
