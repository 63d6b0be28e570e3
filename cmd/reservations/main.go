package main

import (
	"motorpool/internal/reservations/handler"
	"motorpool/internal/reservations/repository"
	"motorpool/internal/reservations/service"
	"motorpool/internal/reservations/validator"
	vehiclesrepo "motorpool/internal/vehicles/repository"
	"motorpool/pkg/app"
	"motorpool/pkg/config"
	"motorpool/pkg/kafka"
	kafka_config "motorpool/pkg/kafka/config"
	kafka_middleware "motorpool/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")

	producer := initProducer(cfg)
	defer func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}()

	reservationService := initServices(cfg, producer)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReservationHandler(reservationService, cfg.Log))
	serverApp.Run()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, kafka.TopicReservationLifecycle, kafka.TopicDeadLetter)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware())
	producer.Use(kafka_middleware.MetricsProducerMiddleware())

	return producer
}

func initServices(cfg *config.Config, producer *kafka.Producer) service.ReservationService {
	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	vehicleRepo := vehiclesrepo.NewMongoVehicleRepository(cfg)

	reservationService := service.NewReservationService(
		reservationRepo,
		vehicleRepo,
		reservationValidator,
		producer,
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName)
	return reservationService
}
