package queue

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"time"

	"github.com/SundayYogurt/auth_service/internal/interfaces"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConsumer struct {
	Reader      messageReader
	Handler     interfaces.ConsumerHandler
	ServiceName string
	log         *slog.Logger
}

func NewKafkaConsumer(broker, topic, groupID, username, password string, handler interfaces.ConsumerHandler, log *slog.Logger) *KafkaConsumer {
	if log == nil {
		log = slog.Default()
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	if mech := saslMechanism(username, password); mech != nil {
		dialer.TLS = &tls.Config{}
		dialer.SASLMechanism = mech
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{broker},
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3,
		MaxBytes: 10e6,
		Dialer:   dialer,
	})

	return &KafkaConsumer{
		Reader:      reader,
		Handler:     handler,
		ServiceName: "audit-svc",
		log:         log.With("component", "kafka-consumer", "topic", topic, "group", groupID),
	}
}

// Listen blocks until ctx is cancelled. A message whose handler fails is
// logged and committed so a poison message cannot stall the partition.
func (kc *KafkaConsumer) Listen(ctx context.Context) error {
	for {
		msg, err := kc.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			kc.log.Error("read error", "service", kc.ServiceName, "err", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		kc.log.Debug("received", "service", kc.ServiceName, "partition", msg.Partition, "offset", msg.Offset)

		if err := kc.Handler.HandleMessage(ctx, msg.Value); err != nil {
			kc.log.Error("handler error", "service", kc.ServiceName, "offset", msg.Offset, "err", err)
		}
		if err := kc.Reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			kc.log.Error("commit error", "service", kc.ServiceName, "offset", msg.Offset, "err", err)
		}
	}
}

func (kc *KafkaConsumer) Close() error {
	return kc.Reader.Close()
}
