package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	reservationserrors "motorpool/internal/reservations/errors"
	"motorpool/internal/reservations/validator"
	vehicleserrors "motorpool/internal/vehicles/errors"
	"motorpool/pkg/config"
	mongotx "motorpool/pkg/db/mongo"
	apperrors "motorpool/pkg/errors"
	"motorpool/pkg/kafka"
	"motorpool/pkg/logger"
	"motorpool/pkg/middleware"
	"motorpool/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockReservationRepository struct {
	createFunc       func(ctx context.Context, reservation *model.Reservation) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Reservation, error)
	updateStatusFunc func(ctx context.Context, id string, from, to model.ReservationStatus) error
	txFunc           func(ctx context.Context, fn mongotx.TransactionFunc) error

	mu      sync.Mutex
	created []*model.Reservation
}

func (m *mockReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, reservation); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.created = append(m.created, reservation)
	m.mu.Unlock()
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, errors.New("not configured")
}

func (m *mockReservationRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to)
	}
	return nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.txFunc != nil {
		return m.txFunc(ctx, fn)
	}
	return fn(mongo.SessionContext(nil))
}

func (m *mockReservationRepository) createdCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

// fakeVehicleStore is an in-memory claimable store. Its mutex-guarded
// check-and-set mirrors the conditional update the Mongo repository performs,
// so concurrent claims contend the same way they would against the database.
type fakeVehicleStore struct {
	mu       sync.Mutex
	statuses map[string]model.VehicleStatus
	claims   int
	releases int
}

func newFakeVehicleStore(vehicles map[string]model.VehicleStatus) *fakeVehicleStore {
	return &fakeVehicleStore{statuses: vehicles}
}

func (f *fakeVehicleStore) Create(ctx context.Context, vehicle *model.Vehicle) error {
	return nil
}

func (f *fakeVehicleStore) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[id]
	if !ok {
		return nil, vehicleserrors.ErrNotFound
	}
	return &model.Vehicle{ID: id, Status: status}, nil
}

func (f *fakeVehicleStore) FindAll(ctx context.Context, status model.VehicleStatus, limit int, offset int64) ([]*model.Vehicle, error) {
	return []*model.Vehicle{}, nil
}

func (f *fakeVehicleStore) Count(ctx context.Context, status model.VehicleStatus) (int64, error) {
	return 0, nil
}

func (f *fakeVehicleStore) Claim(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims++
	status, ok := f.statuses[id]
	if !ok {
		return vehicleserrors.ErrNotFound
	}
	switch status {
	case model.VehicleAvailable:
		f.statuses[id] = model.VehicleUnavailable
		return nil
	case model.VehicleMaintenance:
		return vehicleserrors.ErrInMaintenance
	default:
		return vehicleserrors.ErrUnavailable
	}
}

func (f *fakeVehicleStore) Release(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	status, ok := f.statuses[id]
	if !ok {
		return vehicleserrors.ErrNotFound
	}
	if status != model.VehicleUnavailable {
		return vehicleserrors.ErrNotClaimed
	}
	f.statuses[id] = model.VehicleAvailable
	return nil
}

func (f *fakeVehicleStore) SetStatus(ctx context.Context, id string, from, to model.VehicleStatus) error {
	return nil
}

func (f *fakeVehicleStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.SessionContext(nil))
}

func (f *fakeVehicleStore) status(id string) model.VehicleStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[id]
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []kafka.Message
	err    error
}

func (p *capturingPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, msg)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, msg := range p.events {
		types = append(types, msg.GetEventType())
	}
	return types
}

// ────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
		ReservationTimeout: 2 * time.Second,
	}
}

func userContext(userID string) context.Context {
	return context.WithValue(context.Background(), middleware.UserIDKey, userID)
}

func adminContext(userID string) context.Context {
	return context.WithValue(userContext(userID), middleware.AdminKey, true)
}

func validRequest(vehicleID, userID string) *model.ReservationRequest {
	start := time.Now().Add(1 * time.Hour).UTC()
	return &model.ReservationRequest{
		VehicleID: vehicleID,
		UserID:    userID,
		StartTime: start.Format(time.RFC3339),
		EndTime:   start.Add(2 * time.Hour).Format(time.RFC3339),
	}
}

func newTestService(
	repo *mockReservationRepository,
	vehicles *fakeVehicleStore,
	publisher *capturingPublisher,
	cfg *config.Config,
) ReservationService {
	return NewReservationService(
		repo,
		vehicles,
		validator.NewReservationValidator(cfg.Log),
		publisher,
		cfg,
	)
}

const testVehicleID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

// ────────────────────────────────────────────────
// Reserve
// ────────────────────────────────────────────────

func TestReserve_Success(t *testing.T) {
	cfg := testConfig(t)
	repo := &mockReservationRepository{}
	vehicles := newFakeVehicleStore(map[string]model.VehicleStatus{
		testVehicleID: model.VehicleAvailable,
	})
	publisher := &capturingPublisher{}
	svc := newTestService(repo, vehicles, publisher, cfg)

	reservation, err := svc.Reserve(userContext("user-1"), validRequest(testVehicleID, "user-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reservation.Status != model.ReservationPending {
		t.Errorf("expected status pending, got %s", reservation.Status)
	}
	if reservation.ID == "" {
		t.Error("expected a generated reservation ID")
	}
	if reservation.UserID != "user-1" {
		t.Errorf("expected owner user-1, got %s", reservation.UserID)
	}
	if vehicles.status(testVehicleID) != model.VehicleUnavailable {
		t.Errorf("expected vehicle claimed, got %s", vehicles.status(testVehicleID))
	}
	if repo.createdCount() != 1 {
		t.Errorf("expected 1 persisted reservation, got %d", repo.createdCount())
	}

	types := publisher.eventTypes()
	if len(types) != 1 || types[0] != kafka.EventReservationCreated {
		t.Errorf("expected one %s event, got %v", kafka.EventReservationCreated, types)
	}
}

func TestReserve_ValidationRejectsBeforeAnyMutation(t *testing.T) {
	cfg := testConfig(t)

	base := validRequest(testVehicleID, "user-1")
	tests := []struct {
		name   string
		mutate func(req *model.ReservationRequest)
	}{
		{
			name:   "missing vehicle id",
			mutate: func(req *model.ReservationRequest) { req.VehicleID = "" },
		},
		{
			name:   "missing user id",
			mutate: func(req *model.ReservationRequest) { req.UserID = "" },
		},
		{
			name:   "missing start time",
			mutate: func(req *model.ReservationRequest) { req.StartTime = "" },
		},
		{
			name:   "malformed start time",
			mutate: func(req *model.ReservationRequest) { req.StartTime = "tomorrow at noon" },
		},
		{
			name:   "malformed end time",
			mutate: func(req *model.ReservationRequest) { req.EndTime = "2026-13-45T99:00:00Z" },
		},
		{
			name: "end not after start",
			mutate: func(req *model.ReservationRequest) {
				req.EndTime = req.StartTime
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockReservationRepository{}
			vehicles := newFakeVehicleStore(map[string]model.VehicleStatus{
				testVehicleID: model.VehicleAvailable,
			})
			publisher := &capturingPublisher{}
			svc := newTestService(repo, vehicles, publisher, cfg)

			req := *base
			tt.mutate(&req)

			_, err := svc.Reserve(userContext("user-1"), &req)
			if err == nil {
				t.Fatal("expected validation error")
			}

			appErr := apperrors.AsAppError(err)
			if appErr.Code != "VALIDATION_ERROR" {
				t.Errorf("expected VALIDATION_ERROR, got %s", appErr.Code)
			}
			if appErr.HTTPStatus != http.StatusUnprocessableEntity {
				t.Errorf("expected status 422, got %d", appErr.HTTPStatus)
			}

			if vehicles.claims != 0 {
				t.Errorf("expected no claim attempts, got %d", vehicles.claims)
			}
			if repo.createdCount() != 0 {
				t.Errorf("expected no persisted reservations, got %d", repo.createdCount())
			}
			if len(publisher.eventTypes()) != 0 {
				t.Errorf("expected no events, got %v", publisher.eventTypes())
			}
		})
	}
}

func TestReserve_ClaimFailures(t *testing.T) {
	cfg := testConfig(t)

	tests := []struct {
		name       string
		status     model.VehicleStatus
		missing    bool
		wantCode   string
		wantStatus int
	}{
		{
			name:       "vehicle already claimed",
			status:     model.VehicleUnavailable,
			wantCode:   "CONFLICT",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "vehicle in maintenance",
			status:     model.VehicleMaintenance,
			wantCode:   "CONFLICT",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "vehicle does not exist",
			missing:    true,
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statuses := map[string]model.VehicleStatus{}
			if !tt.missing {
				statuses[testVehicleID] = tt.status
			}

			repo := &mockReservationRepository{}
			vehicles := newFakeVehicleStore(statuses)
			publisher := &capturingPublisher{}
			svc := newTestService(repo, vehicles, publisher, cfg)

			_, err := svc.Reserve(userContext("user-1"), validRequest(testVehicleID, "user-1"))
			if err == nil {
				t.Fatal("expected claim failure")
			}

			appErr := apperrors.AsAppError(err)
			if appErr.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, appErr.Code)
			}
			if appErr.HTTPStatus != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, appErr.HTTPStatus)
			}

			if repo.createdCount() != 0 {
				t.Errorf("expected no persisted reservations, got %d", repo.createdCount())
			}
			if len(publisher.eventTypes()) != 0 {
				t.Errorf("expected no events, got %v", publisher.eventTypes())
			}
		})
	}
}

func TestReserve_PersistenceFailureReturnsInternal(t *testing.T) {
	cfg := testConfig(t)
	repo := &mockReservationRepository{
		createFunc: func(ctx context.Context, reservation *model.Reservation) error {
			return errors.New("write concern error")
		},
	}
	vehicles := newFakeVehicleStore(map[string]model.VehicleStatus{
		testVehicleID: model.VehicleAvailable,
	})
	publisher := &capturingPublisher{}
	svc := newTestService(repo, vehicles, publisher, cfg)

	_, err := svc.Reserve(userContext("user-1"), validRequest(testVehicleID, "user-1"))
	if err == nil {
		t.Fatal("expected persistence failure")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", appErr.Code)
	}
	if appErr.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", appErr.HTTPStatus)
	}
	if len(publisher.eventTypes()) != 0 {
		t.Errorf("expected no events after aborted transaction, got %v", publisher.eventTypes())
	}
}

func TestReserve_TimeoutMapsTo504(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReservationTimeout = 50 * time.Millisecond

	repo := &mockReservationRepository{
		txFunc: func(ctx context.Context, fn mongotx.TransactionFunc) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	vehicles := newFakeVehicleStore(map[string]model.VehicleStatus{
		testVehicleID: model.VehicleAvailable,
	})
	publisher := &capturingPublisher{}
	svc := newTestService(repo, vehicles, publisher, cfg)

	_, err := svc.Reserve(userContext("user-1"), validRequest(testVehicleID, "user-1"))
	if err == nil {
		t.Fatal("expected timeout")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != "TIMEOUT" {
		t.Errorf("expected TIMEOUT, got %s", appErr.Code)
	}
	if appErr.HTTPStatus != http.StatusGatewayTimeout {
		t.Errorf("expected status 504, got %d", appErr.HTTPStatus)
	}
	if len(publisher.eventTypes()) != 0 {
		t.Errorf("expected no events after timeout, got %v", publisher.eventTypes())
	}
}

func TestReserve_MutualExclusion(t *testing.T) {
	cfg := testConfig(t)
	repo := &mockReservationRepository{}
	vehicles := newFakeVehicleStore(map[string]model.VehicleStatus{
		testVehicleID: model.VehicleAvailable,
	})
	publisher := &capturingPublisher{}
	svc := newTestService(repo, vehicles, publisher, cfg)

	const attempts = 25
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", n)
			_, err := svc.Reserve(userContext(user), validRequest(testVehicleID, user))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		appErr := apperrors.AsAppError(err)
		if appErr.Code != "CONFLICT" {
			t.Errorf("expected CONFLICT for losing attempt, got %s", appErr.Code)
		}
		conflicts++
	}

	if successes != 1 {
		t.Errorf("expected exactly 1 successful claim, got %d", successes)
	}
	if conflicts != attempts-1 {
		t.Errorf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
	if repo.createdCount() != 1 {
		t.Errorf("expected exactly 1 persisted reservation, got %d", repo.createdCount())
	}
	if vehicles.status(testVehicleID) != model.VehicleUnavailable {
		t.Errorf("expected vehicle claimed, got %s", vehicles.status(testVehicleID))
	}
}

func TestReserve_DistinctVehiclesDoNotContend(t *testing.T) {
	cfg := testConfig(t)

	const vehicleCount = 10
	statuses := map[string]model.VehicleStatus{}
	ids := make([]string, 0, vehicleCount)
	for i := 0; i < vehicleCount; i++ {
		id := fmt.Sprintf("7c9e6679-7425-40de-944b-e07fc1f90a%02d", i)
		statuses[id] = model.VehicleAvailable
		ids = append(ids, id)
	}

	repo := &mockReservationRepository{}
	vehicles := newFakeVehicleStore(statuses)
	publisher := &capturingPublisher{}
	svc := newTestService(repo, vehicles, publisher, cfg)

	var wg sync.WaitGroup
	results := make(chan error, vehicleCount)
	for i, id := range ids {
		wg.Add(1)
		go func(n int, vehicleID string) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", n)
			_, err := svc.Reserve(userContext(user), validRequest(vehicleID, user))
			results <- err
		}(i, id)
	}
	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			t.Errorf("unexpected error reserving a distinct vehicle: %v", err)
		}
	}
	if repo.createdCount() != vehicleCount {
		t.Errorf("expected %d reservations, got %d", vehicleCount, repo.createdCount())
	}
}

func TestReserve_PublishFailureDoesNotFailReservation(t *testing.T) {
	cfg := testConfig(t)
	repo := &mockReservationRepository{}
	vehicles := newFakeVehicleStore(map[string]model.VehicleStatus{
		testVehicleID: model.VehicleAvailable,
	})
	publisher := &capturingPublisher{err: errors.New("broker unreachable")}
	svc := newTestService(repo, vehicles, publisher, cfg)

	reservation, err := svc.Reserve(userContext("user-1"), validRequest(testVehicleID, "user-1"))
	if err != nil {
		t.Fatalf("publish failure must not fail the reservation: %v", err)
	}
	if reservation.Status != model.ReservationPending {
		t.Errorf("expected pending reservation, got %s", reservation.Status)
	}
}

// ────────────────────────────────────────────────
// Lifecycle transitions
// ────────────────────────────────────────────────

func lifecycleFixture(status model.ReservationStatus) *model.Reservation {
	return &model.Reservation{
		ID:        "res-1",
		UserID:    "user-1",
		VehicleID: testVehicleID,
		StartTime: time.Now().Add(1 * time.Hour),
		EndTime:   time.Now().Add(3 * time.Hour),
		Status:    status,
	}
}

func TestCancel_ReleasesVehicle(t *testing.T) {
	cfg := testConfig(t)
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return lifecycleFixture(model.ReservationPending), nil
		},
	}
	vehicles := newFakeVehicleStore(map[string]model.VehicleStatus{
		testVehicleID: model.VehicleUnavailable,
	})
	publisher := &capturingPublisher{}
	svc := newTestService(repo, vehicles, publisher, cfg)

	if err := svc.Cancel(userContext("user-1"), "res-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if vehicles.status(testVehicleID) != model.VehicleAvailable {
		t.Errorf("expected vehicle released, got %s", vehicles.status(testVehicleID))
	}
	types := publisher.eventTypes()
	if len(types) != 1 || types[0] != kafka.EventReservationCancelled {
		t.Errorf("expected one %s event, got %v", kafka.EventReservationCancelled, types)
	}
}

func TestCancel_TerminalStateIsConflict(t *testing.T) {
	cfg := testConfig(t)
	for _, status := range []model.ReservationStatus{model.ReservationCancelled, model.ReservationCompleted} {
		t.Run(string(status), func(t *testing.T) {
			repo := &mockReservationRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
					return lifecycleFixture(status), nil
				},
			}
			vehicles := newFakeVehicleStore(map[string]model.VehicleStatus{
				testVehicleID: model.VehicleAvailable,
			})
			svc := newTestService(repo, vehicles, &capturingPublisher{}, cfg)

			err := svc.Cancel(userContext("user-1"), "res-1")
			if err == nil {
				t.Fatal("expected conflict")
			}
			if appErr := apperrors.AsAppError(err); appErr.Code != "CONFLICT" {
				t.Errorf("expected CONFLICT, got %s", appErr.Code)
			}
		})
	}
}

func TestCancel_OtherUsersReservationIsForbidden(t *testing.T) {
	cfg := testConfig(t)
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return lifecycleFixture(model.ReservationPending), nil
		},
	}
	vehicles := newFakeVehicleStore(map[string]model.VehicleStatus{
		testVehicleID: model.VehicleUnavailable,
	})
	svc := newTestService(repo, vehicles, &capturingPublisher{}, cfg)

	err := svc.Cancel(userContext("someone-else"), "res-1")
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != "FORBIDDEN" {
		t.Errorf("expected FORBIDDEN, got %s", appErr.Code)
	}
	if vehicles.status(testVehicleID) != model.VehicleUnavailable {
		t.Error("vehicle must stay claimed when cancellation is refused")
	}
}

func TestCancel_AdminMayActOnAnyReservation(t *testing.T) {
	cfg := testConfig(t)
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return lifecycleFixture(model.ReservationConfirmed), nil
		},
	}
	vehicles := newFakeVehicleStore(map[string]model.VehicleStatus{
		testVehicleID: model.VehicleUnavailable,
	})
	svc := newTestService(repo, vehicles, &capturingPublisher{}, cfg)

	if err := svc.Cancel(adminContext("ops-admin"), "res-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vehicles.status(testVehicleID) != model.VehicleAvailable {
		t.Error("expected vehicle released after admin cancel")
	}
}

func TestConfirm_PendingReservation(t *testing.T) {
	cfg := testConfig(t)
	var gotFrom, gotTo model.ReservationStatus
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return lifecycleFixture(model.ReservationPending), nil
		},
		updateStatusFunc: func(ctx context.Context, id string, from, to model.ReservationStatus) error {
			gotFrom, gotTo = from, to
			return nil
		},
	}
	vehicles := newFakeVehicleStore(map[string]model.VehicleStatus{
		testVehicleID: model.VehicleUnavailable,
	})
	publisher := &capturingPublisher{}
	svc := newTestService(repo, vehicles, publisher, cfg)

	if err := svc.Confirm(userContext("user-1"), "res-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotFrom != model.ReservationPending || gotTo != model.ReservationConfirmed {
		t.Errorf("expected pending→confirmed, got %s→%s", gotFrom, gotTo)
	}
	if vehicles.status(testVehicleID) != model.VehicleUnavailable {
		t.Error("confirming must not release the vehicle")
	}
	types := publisher.eventTypes()
	if len(types) != 1 || types[0] != kafka.EventReservationConfirmed {
		t.Errorf("expected one %s event, got %v", kafka.EventReservationConfirmed, types)
	}
}

func TestComplete_ConfirmedReservation(t *testing.T) {
	cfg := testConfig(t)
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return lifecycleFixture(model.ReservationConfirmed), nil
		},
	}
	vehicles := newFakeVehicleStore(map[string]model.VehicleStatus{
		testVehicleID: model.VehicleUnavailable,
	})
	publisher := &capturingPublisher{}
	svc := newTestService(repo, vehicles, publisher, cfg)

	if err := svc.Complete(userContext("user-1"), "res-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if vehicles.status(testVehicleID) != model.VehicleAvailable {
		t.Errorf("expected vehicle released, got %s", vehicles.status(testVehicleID))
	}
	types := publisher.eventTypes()
	if len(types) != 1 || types[0] != kafka.EventReservationCompleted {
		t.Errorf("expected one %s event, got %v", kafka.EventReservationCompleted, types)
	}
}

func TestComplete_PendingReservationIsConflict(t *testing.T) {
	cfg := testConfig(t)
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return lifecycleFixture(model.ReservationPending), nil
		},
	}
	vehicles := newFakeVehicleStore(map[string]model.VehicleStatus{
		testVehicleID: model.VehicleUnavailable,
	})
	svc := newTestService(repo, vehicles, &capturingPublisher{}, cfg)

	err := svc.Complete(userContext("user-1"), "res-1")
	if err == nil {
		t.Fatal("expected conflict")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != "CONFLICT" {
		t.Errorf("expected CONFLICT, got %s", appErr.Code)
	}
}

// ────────────────────────────────────────────────
// Reads
// ────────────────────────────────────────────────

func TestGetByID_NotFound(t *testing.T) {
	cfg := testConfig(t)
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return nil, reservationserrors.ErrNotFound
		},
	}
	vehicles := newFakeVehicleStore(nil)
	svc := newTestService(repo, vehicles, &capturingPublisher{}, cfg)

	_, err := svc.GetByID(userContext("user-1"), "missing")
	if err == nil {
		t.Fatal("expected not found")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %s", appErr.Code)
	}
}

func TestGetAll_RequiresAdmin(t *testing.T) {
	cfg := testConfig(t)
	svc := newTestService(&mockReservationRepository{}, newFakeVehicleStore(nil), &capturingPublisher{}, cfg)

	_, _, err := svc.GetAll(userContext("user-1"), 10, 0)
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != "FORBIDDEN" {
		t.Errorf("expected FORBIDDEN, got %s", appErr.Code)
	}

	if _, _, err := svc.GetAll(adminContext("ops-admin"), 10, 0); err != nil {
		t.Errorf("admin listing should succeed, got %v", err)
	}
}
