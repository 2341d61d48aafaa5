package queue

import (
	"context"
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/SundayYogurt/auth_service/internal/interfaces"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

const publishTimeout = 5 * time.Second

type Producer struct {
	writer *kafka.Writer
	log    *slog.Logger
}

var _ interfaces.ProducerHandler = (*Producer)(nil)

// saslMechanism returns nil for brokers without authentication.
func saslMechanism(username, password string) sasl.Mechanism {
	if username == "" {
		return nil
	}
	return plain.Mechanism{
		Username: username,
		Password: password,
	}
}

func NewProducer(broker, topic, username, password string, log *slog.Logger) *Producer {
	if log == nil {
		log = slog.Default()
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: 10 * time.Second,
	}
	if mech := saslMechanism(username, password); mech != nil {
		w.Transport = &kafka.Transport{
			SASL: mech,
			TLS:  &tls.Config{},
		}
	}

	return &Producer{writer: w, log: log.With("component", "kafka-producer", "topic", topic)}
}

// PublishMessage writes one message synchronously. Keys hash to a
// partition, so events of one user stay ordered.
func (p *Producer) PublishMessage(ctx context.Context, key, value []byte) error {
	if p == nil || p.writer == nil {
		slog.Debug("kafka producer not configured, skip publish")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	}); err != nil {
		return err
	}
	p.log.Debug("message published", "key", string(key))
	return nil
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
