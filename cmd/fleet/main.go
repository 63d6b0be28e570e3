package main

import (
	"motorpool/internal/vehicles/handler"
	"motorpool/internal/vehicles/repository"
	"motorpool/internal/vehicles/service"
	"motorpool/pkg/app"
	"motorpool/pkg/config"
)

const ServiceName = "fleet"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Fleet service")
	vehicleService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewVehicleHandler(vehicleService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.VehicleService {
	vehicleRepo := repository.NewMongoVehicleRepository(cfg)
	vehicleService := service.NewVehicleService(vehicleRepo, cfg)

	cfg.Log.Info("Vehicle service initialized", "database", cfg.MongoDatabaseName)
	return vehicleService
}
