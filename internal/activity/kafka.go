package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher writes events to a Kafka topic. The writer runs in async
// mode, so Publish returns before the broker acknowledges.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	logger = logger.With(zap.String("component", "activity"))
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("failed to deliver activity events", zap.Int("count", len(messages)), zap.Error(err))
			}
		},
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, aggregateType, eventType string, data any) {
	event, err := newEvent(aggregateType, eventType, data)
	if err != nil {
		p.logger.Warn("failed to encode activity event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to encode activity event", zap.String("event_type", eventType), zap.Error(err))
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(aggregateType),
		Value: value,
		Time:  event.Timestamp,
	})
	if err != nil {
		p.logger.Warn("failed to publish activity event", zap.String("event_type", eventType), zap.Error(err))
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
