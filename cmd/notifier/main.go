package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"motorpool/internal/notifications/repository"
	"motorpool/internal/notifications/worker"
	"motorpool/pkg/config"
	"motorpool/pkg/kafka"
	kafka_config "motorpool/pkg/kafka/config"
	kafka_middleware "motorpool/pkg/kafka/middleware"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Notifier worker")

	notificationRepo := repository.NewMongoNotificationRepository(cfg)
	notificationWorker := worker.NewWorker(notificationRepo, cfg.Log)

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafka.TopicReservationLifecycle,
		kafkaCfg.ConsumerGroupID,
		kafka.TopicDeadLetter,
		notificationWorker.Handle,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware())
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Notifier consuming reservation lifecycle events",
		"topic", kafka.TopicReservationLifecycle,
		"group_id", kafkaCfg.ConsumerGroupID,
	)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}

	cfg.Log.Info("Notifier worker stopped")
}
