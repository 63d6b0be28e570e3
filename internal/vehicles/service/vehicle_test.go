package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	vehicleserrors "motorpool/internal/vehicles/errors"
	"motorpool/pkg/config"
	mongotx "motorpool/pkg/db/mongo"
	apperrors "motorpool/pkg/errors"
	"motorpool/pkg/logger"
	"motorpool/pkg/middleware"
	"motorpool/pkg/model"
)

type mockVehicleRepository struct {
	createFunc    func(ctx context.Context, vehicle *model.Vehicle) error
	findByIDFunc  func(ctx context.Context, id string) (*model.Vehicle, error)
	setStatusFunc func(ctx context.Context, id string, from, to model.VehicleStatus) error
}

func (m *mockVehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, vehicle)
	}
	return nil
}

func (m *mockVehicleRepository) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, vehicleserrors.ErrNotFound
}

func (m *mockVehicleRepository) FindAll(ctx context.Context, status model.VehicleStatus, limit int, offset int64) ([]*model.Vehicle, error) {
	return []*model.Vehicle{}, nil
}

func (m *mockVehicleRepository) Count(ctx context.Context, status model.VehicleStatus) (int64, error) {
	return 0, nil
}

func (m *mockVehicleRepository) Claim(ctx context.Context, id string) error {
	return nil
}

func (m *mockVehicleRepository) Release(ctx context.Context, id string) error {
	return nil
}

func (m *mockVehicleRepository) SetStatus(ctx context.Context, id string, from, to model.VehicleStatus) error {
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, id, from, to)
	}
	return nil
}

func (m *mockVehicleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
		WriteTimeout: 5 * time.Second,
	}
}

func adminCtx() context.Context {
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, "ops-admin")
	return context.WithValue(ctx, middleware.AdminKey, true)
}

func userCtx() context.Context {
	return context.WithValue(context.Background(), middleware.UserIDKey, "user-1")
}

func TestProvision_Success(t *testing.T) {
	cfg := testConfig(t)
	var created *model.Vehicle
	repo := &mockVehicleRepository{
		createFunc: func(ctx context.Context, vehicle *model.Vehicle) error {
			created = vehicle
			return nil
		},
	}
	svc := NewVehicleService(repo, cfg)

	vehicle := &model.Vehicle{
		PlateNumber: " ab-123-cd ",
		Model:       "  ford   transit ",
	}
	if err := svc.Provision(adminCtx(), vehicle); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created == nil {
		t.Fatal("expected vehicle to be persisted")
	}
	if created.Status != model.VehicleAvailable {
		t.Errorf("expected new vehicle to start available, got %s", created.Status)
	}
	if created.ID == "" {
		t.Error("expected a generated vehicle ID")
	}
	if created.PlateNumber != "AB-123-CD" {
		t.Errorf("expected sanitized plate AB-123-CD, got %q", created.PlateNumber)
	}
	if created.Model != "ford transit" {
		t.Errorf("expected whitespace-normalized model, got %q", created.Model)
	}
}

func TestProvision_RequiresAdmin(t *testing.T) {
	cfg := testConfig(t)
	svc := NewVehicleService(&mockVehicleRepository{}, cfg)

	err := svc.Provision(userCtx(), &model.Vehicle{PlateNumber: "AB-123", Model: "Ford Transit"})
	if err == nil {
		t.Fatal("expected forbidden")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != "FORBIDDEN" {
		t.Errorf("expected FORBIDDEN, got %s", appErr.Code)
	}
	if appErr.HTTPStatus != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", appErr.HTTPStatus)
	}
}

func TestProvision_DuplicatePlate(t *testing.T) {
	cfg := testConfig(t)
	repo := &mockVehicleRepository{
		createFunc: func(ctx context.Context, vehicle *model.Vehicle) error {
			return vehicleserrors.ErrDuplicatePlate
		},
	}
	svc := NewVehicleService(repo, cfg)

	err := svc.Provision(adminCtx(), &model.Vehicle{PlateNumber: "AB-123", Model: "Ford Transit"})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != "CONFLICT" {
		t.Errorf("expected CONFLICT, got %s", appErr.Code)
	}
}

func TestProvision_ValidationFailure(t *testing.T) {
	cfg := testConfig(t)
	svc := NewVehicleService(&mockVehicleRepository{}, cfg)

	err := svc.Provision(adminCtx(), &model.Vehicle{PlateNumber: "A", Model: ""})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", appErr.Code)
	}
}

func TestEnterMaintenance_Transitions(t *testing.T) {
	cfg := testConfig(t)

	tests := []struct {
		name     string
		repoErr  error
		wantCode string
	}{
		{name: "available vehicle", repoErr: nil, wantCode: ""},
		{name: "claimed vehicle", repoErr: vehicleserrors.ErrUnavailable, wantCode: "CONFLICT"},
		{name: "already in maintenance", repoErr: vehicleserrors.ErrInMaintenance, wantCode: "CONFLICT"},
		{name: "unknown vehicle", repoErr: vehicleserrors.ErrNotFound, wantCode: "NOT_FOUND"},
		{name: "storage failure", repoErr: errors.New("socket closed"), wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockVehicleRepository{
				setStatusFunc: func(ctx context.Context, id string, from, to model.VehicleStatus) error {
					if from != model.VehicleAvailable || to != model.VehicleMaintenance {
						t.Errorf("expected available→maintenance, got %s→%s", from, to)
					}
					return tt.repoErr
				},
			}
			svc := NewVehicleService(repo, cfg)

			err := svc.EnterMaintenance(adminCtx(), "veh-1")
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if appErr := apperrors.AsAppError(err); appErr.Code != tt.wantCode {
				t.Errorf("expected %s, got %s", tt.wantCode, appErr.Code)
			}
		})
	}
}

func TestMaintenance_RequiresAdmin(t *testing.T) {
	cfg := testConfig(t)
	svc := NewVehicleService(&mockVehicleRepository{}, cfg)

	if err := svc.EnterMaintenance(userCtx(), "veh-1"); err == nil {
		t.Error("expected forbidden entering maintenance")
	}
	if err := svc.ExitMaintenance(userCtx(), "veh-1"); err == nil {
		t.Error("expected forbidden exiting maintenance")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	cfg := testConfig(t)
	svc := NewVehicleService(&mockVehicleRepository{}, cfg)

	_, err := svc.GetByID(userCtx(), "missing")
	if err == nil {
		t.Fatal("expected not found")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %s", appErr.Code)
	}
}
