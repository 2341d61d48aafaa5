package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SundayYogurt/auth_service/config"
	"github.com/SundayYogurt/auth_service/infra/queue"
	"github.com/SundayYogurt/auth_service/internal/logging"
	"github.com/SundayYogurt/auth_service/internal/repository"
	"github.com/SundayYogurt/auth_service/internal/services"
)

func main() {
	// ---------- Load Config ----------
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("audit service stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if !cfg.KafkaEnabled() {
		return errors.New("KAFKA_BROKER and KAFKA_TOPIC are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("audit service starting",
		"broker", cfg.KafkaBroker,
		"topic", cfg.KafkaTopic,
		"group", cfg.KafkaGroupID,
	)

	store, err := repository.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	// ---------- Init Service ----------
	auditService := services.NewAuditService(store.Audit, log)

	// ---------- Init Kafka Consumer ----------
	consumer := queue.NewKafkaConsumer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaGroupID,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
		auditService,
		log,
	)
	defer consumer.Close()

	// ---------- Start Listening ----------
	log.Info("audit service listening for events")
	return consumer.Listen(ctx)
}
