package events

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes events to the application log
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(_ context.Context, msg Message) error {
	s.logger.Info("wizard event",
		zap.String("session_id", msg.Key),
		zap.String("type", string(msg.Type)),
		zap.ByteString("event", msg.Payload))
	return nil
}

// Producer is the part of client.KafkaProducer the sink needs
type Producer interface {
	ProduceMessage(ctx context.Context, key, value []byte, headers map[string]string) error
}

// KafkaSink keys messages by session so one wizard's events stay ordered
// within a partition.
type KafkaSink struct {
	producer Producer
}

func NewKafkaSink(producer Producer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Write(ctx context.Context, msg Message) error {
	return s.producer.ProduceMessage(ctx, []byte(msg.Key), msg.Payload, map[string]string{
		"event-type":   string(msg.Type),
		"content-type": "application/json",
	})
}
