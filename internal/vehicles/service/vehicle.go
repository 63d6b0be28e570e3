package service

import (
	"context"
	"errors"
	"sync"

	vehicleserrors "motorpool/internal/vehicles/errors"
	"motorpool/internal/vehicles/repository"
	"motorpool/pkg/config"
	apperrors "motorpool/pkg/errors"
	"motorpool/pkg/middleware"
	"motorpool/pkg/model"
	"motorpool/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type VehicleService interface {
	Provision(ctx context.Context, vehicle *model.Vehicle) error
	GetByID(ctx context.Context, id string) (*model.Vehicle, error)
	GetAll(ctx context.Context, status model.VehicleStatus, limit int, offset int64) ([]*model.Vehicle, int64, error)
	EnterMaintenance(ctx context.Context, id string) error
	ExitMaintenance(ctx context.Context, id string) error
}

type vehicleService struct {
	repo     repository.VehicleRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewVehicleService(repo repository.VehicleRepository, cfg *config.Config) VehicleService {
	return &vehicleService{
		repo:     repo,
		validate: validator.New(),
		cfg:      cfg,
	}
}

// Provision registers a new vehicle in the fleet. Vehicles always start
// available; availability afterwards is owned by the reservation pipeline.
func (s *vehicleService) Provision(ctx context.Context, vehicle *model.Vehicle) error {
	if !middleware.IsAdmin(ctx) {
		return apperrors.Forbidden("Vehicle provisioning requires administrator role")
	}

	vehicle.ID = uuid.NewString()
	vehicle.Status = model.VehicleAvailable
	vehicle.PlateNumber = sanitizer.SanitizePlate(vehicle.PlateNumber)
	vehicle.Model = sanitizer.NormalizeModel(vehicle.Model)

	if err := s.validate.Struct(vehicle); err != nil {
		s.cfg.Log.Warn("Vehicle validation failed", "error", err)
		return apperrors.Validation("Vehicle validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, vehicle); err != nil {
		if errors.Is(err, vehicleserrors.ErrDuplicatePlate) {
			return apperrors.Conflict("A vehicle with this plate number already exists")
		}
		s.cfg.Log.Error("Failed to provision vehicle", "plate_number", vehicle.PlateNumber, "error", err)
		return apperrors.Internal("Failed to provision vehicle", err)
	}

	s.cfg.Log.Info("Vehicle provisioned successfully",
		"id", vehicle.ID,
		"plate_number", vehicle.PlateNumber,
		"model", vehicle.Model,
	)
	return nil
}

func (s *vehicleService) GetByID(ctx context.Context, id string) (*model.Vehicle, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Vehicle ID cannot be empty")
	}

	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, vehicleserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Vehicle", id)
		}
		return nil, apperrors.Internal("Failed to retrieve vehicle", err)
	}

	return vehicle, nil
}

func (s *vehicleService) GetAll(ctx context.Context, status model.VehicleStatus, limit int, offset int64) ([]*model.Vehicle, int64, error) {
	var count int64
	var vehicles []*model.Vehicle
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, status)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count vehicles", "error", errCount)
			errCount = apperrors.Internal("Failed to count vehicles", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		vehicles, errFind = s.repo.FindAll(ctx, status, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list vehicles", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve vehicles", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return vehicles, count, nil
}

// EnterMaintenance moves an available vehicle into maintenance. A claimed
// vehicle cannot enter maintenance while a reservation holds it.
func (s *vehicleService) EnterMaintenance(ctx context.Context, id string) error {
	if !middleware.IsAdmin(ctx) {
		return apperrors.Forbidden("Maintenance transitions require administrator role")
	}
	if id == "" {
		return apperrors.InvalidInput("Vehicle ID cannot be empty")
	}

	err := s.repo.SetStatus(ctx, id, model.VehicleAvailable, model.VehicleMaintenance)
	if err != nil {
		switch {
		case errors.Is(err, vehicleserrors.ErrNotFound):
			return apperrors.NotFoundWithID("Vehicle", id)
		case errors.Is(err, vehicleserrors.ErrUnavailable):
			return apperrors.Conflict("Vehicle is currently claimed by a reservation and cannot enter maintenance")
		case errors.Is(err, vehicleserrors.ErrInMaintenance):
			return apperrors.Conflict("Vehicle is already in maintenance")
		default:
			s.cfg.Log.Error("Failed to move vehicle into maintenance", "id", id, "error", err)
			return apperrors.Internal("Failed to update vehicle status", err)
		}
	}

	s.cfg.Log.Info("Vehicle moved into maintenance", "id", id)
	return nil
}

// ExitMaintenance returns a maintenance vehicle to the available pool.
func (s *vehicleService) ExitMaintenance(ctx context.Context, id string) error {
	if !middleware.IsAdmin(ctx) {
		return apperrors.Forbidden("Maintenance transitions require administrator role")
	}
	if id == "" {
		return apperrors.InvalidInput("Vehicle ID cannot be empty")
	}

	err := s.repo.SetStatus(ctx, id, model.VehicleMaintenance, model.VehicleAvailable)
	if err != nil {
		switch {
		case errors.Is(err, vehicleserrors.ErrNotFound):
			return apperrors.NotFoundWithID("Vehicle", id)
		case errors.Is(err, vehicleserrors.ErrUnavailable), errors.Is(err, vehicleserrors.ErrInMaintenance):
			return apperrors.Conflict("Vehicle is not in maintenance")
		default:
			s.cfg.Log.Error("Failed to return vehicle from maintenance", "id", id, "error", err)
			return apperrors.Internal("Failed to update vehicle status", err)
		}
	}

	s.cfg.Log.Info("Vehicle returned from maintenance", "id", id)
	return nil
}
