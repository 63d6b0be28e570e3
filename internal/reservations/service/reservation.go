package service

import (
	"context"
	"errors"
	"sync"
	"time"

	reservationserrors "motorpool/internal/reservations/errors"
	"motorpool/internal/reservations/repository"
	"motorpool/internal/reservations/validator"
	vehicleserrors "motorpool/internal/vehicles/errors"
	vehiclesrepo "motorpool/internal/vehicles/repository"
	"motorpool/pkg/config"
	apperrors "motorpool/pkg/errors"
	"motorpool/pkg/kafka"
	"motorpool/pkg/middleware"
	"motorpool/pkg/model"
	"motorpool/pkg/sanitizer"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// EventPublisher is the slice of the Kafka producer the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type ReservationService interface {
	Reserve(ctx context.Context, req *model.ReservationRequest) (*model.Reservation, error)
	Confirm(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
	GetByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, int64, error)
}

type reservationService struct {
	repo        repository.ReservationRepository
	vehicleRepo vehiclesrepo.VehicleRepository
	validator   *validator.ReservationValidator
	publisher   EventPublisher
	cfg         *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	vehicleRepo vehiclesrepo.VehicleRepository,
	validator *validator.ReservationValidator,
	publisher EventPublisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:        repo,
		vehicleRepo: vehicleRepo,
		validator:   validator,
		publisher:   publisher,
		cfg:         cfg,
	}
}

// Reserve claims a vehicle and records the reservation as one atomic unit.
// Validation happens before any storage access; the claim and the insert
// happen inside one transaction, so they commit or roll back together. A
// deadline on the attempt bounds how long a caller can be left waiting.
func (s *reservationService) Reserve(ctx context.Context, req *model.ReservationRequest) (*model.Reservation, error) {
	start, end, err := s.validator.ValidateRequest(req)
	if err != nil {
		s.cfg.Log.Warn("Reservation request validation failed", "error", err)
		return nil, apperrors.Validation("Reservation request validation failed", map[string]any{"error": err.Error()})
	}

	reservation := &model.Reservation{
		ID:           uuid.NewString(),
		UserID:       req.UserID,
		VehicleID:    req.VehicleID,
		StartTime:    start,
		EndTime:      end,
		Status:       model.ReservationPending,
		ContactPhone: sanitizer.SanitizePhone(req.ContactPhone),
	}

	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return nil, apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.ReservationTimeout)
	defer cancel()

	err = s.repo.ExecuteTransaction(attemptCtx, func(sessCtx mongo.SessionContext) error {
		if err := s.vehicleRepo.Claim(sessCtx, reservation.VehicleID); err != nil {
			return s.mapClaimError(err, reservation.VehicleID)
		}
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			return apperrors.Internal("Failed to record reservation", err)
		}
		return nil
	})
	if err != nil {
		if deadlineExceeded(attemptCtx, err) {
			s.cfg.Log.Error("Reservation attempt timed out",
				"vehicle_id", reservation.VehicleID,
				"user_id", reservation.UserID,
				"timeout", s.cfg.ReservationTimeout,
			)
			return nil, apperrors.Timeout("Reservation attempt timed out")
		}
		s.cfg.Log.Error("Failed to create reservation",
			"vehicle_id", reservation.VehicleID,
			"user_id", reservation.UserID,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"vehicle_id", reservation.VehicleID,
		"user_id", reservation.UserID,
		"start_time", reservation.StartTime,
	)

	s.publishEvent(ctx, kafka.EventReservationCreated, reservation)
	return reservation, nil
}

// Confirm moves a pending reservation to confirmed. The vehicle stays
// claimed throughout.
func (s *reservationService) Confirm(ctx context.Context, id string) error {
	reservation, err := s.authorizedReservation(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, id, model.ReservationPending, model.ReservationConfirmed); err != nil {
		return s.mapTransitionError(err, id, model.ReservationConfirmed)
	}

	reservation.Status = model.ReservationConfirmed
	s.cfg.Log.Info("Reservation confirmed", "id", id, "vehicle_id", reservation.VehicleID)
	s.publishEvent(ctx, kafka.EventReservationConfirmed, reservation)
	return nil
}

// Cancel closes an active reservation and releases its vehicle in one
// transaction. The reservation record itself is never deleted.
func (s *reservationService) Cancel(ctx context.Context, id string) error {
	return s.close(ctx, id, model.ReservationCancelled, kafka.EventReservationCancelled)
}

// Complete finishes a confirmed reservation and returns the vehicle to the
// available pool in one transaction.
func (s *reservationService) Complete(ctx context.Context, id string) error {
	return s.close(ctx, id, model.ReservationCompleted, kafka.EventReservationCompleted)
}

func (s *reservationService) close(ctx context.Context, id string, to model.ReservationStatus, event string) error {
	reservation, err := s.authorizedReservation(ctx, id)
	if err != nil {
		return err
	}

	if !reservation.Status.CanTransition(to) {
		return apperrors.Conflict("Reservation cannot move from " + string(reservation.Status) + " to " + string(to))
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.UpdateStatus(sessCtx, id, reservation.Status, to); err != nil {
			return s.mapTransitionError(err, id, to)
		}
		if err := s.vehicleRepo.Release(sessCtx, reservation.VehicleID); err != nil {
			if errors.Is(err, vehicleserrors.ErrNotClaimed) {
				// The vehicle was already freed out of band; the status
				// transition alone is still correct.
				s.cfg.Log.Warn("Vehicle was not claimed during release",
					"reservation_id", id,
					"vehicle_id", reservation.VehicleID,
				)
				return nil
			}
			return apperrors.Internal("Failed to release vehicle", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to close reservation", "id", id, "target_status", to, "error", err)
		return err
	}

	reservation.Status = to
	s.cfg.Log.Info("Reservation closed", "id", id, "status", to, "vehicle_id", reservation.VehicleID)
	s.publishEvent(ctx, event, reservation)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	if reservation.UserID != middleware.UserID(ctx) && !middleware.IsAdmin(ctx) {
		return nil, apperrors.Forbidden("Reservation belongs to a different user")
	}

	return reservation, nil
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if !middleware.IsAdmin(ctx) {
		return nil, 0, apperrors.Forbidden("Listing all reservations requires administrator role")
	}

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

func (s *reservationService) GetByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("User ID cannot be empty")
	}
	if userID != middleware.UserID(ctx) && !middleware.IsAdmin(ctx) {
		return nil, 0, apperrors.Forbidden("Cannot list reservations of a different user")
	}

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByUser(ctx, userID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations by user", "user_id", userID, "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindByUser(ctx, userID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations by user", "user_id", userID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

// --- Helpers ---

// authorizedReservation loads a reservation and checks the caller may act
// on it: the owning user or an administrator.
func (s *reservationService) authorizedReservation(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	if reservation.UserID != middleware.UserID(ctx) && !middleware.IsAdmin(ctx) {
		return nil, apperrors.Forbidden("Reservation belongs to a different user")
	}

	return reservation, nil
}

func (s *reservationService) mapClaimError(err error, vehicleID string) error {
	switch {
	case errors.Is(err, vehicleserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Vehicle", vehicleID)
	case errors.Is(err, vehicleserrors.ErrInMaintenance):
		return apperrors.Conflict("Vehicle is in maintenance and cannot be reserved")
	case errors.Is(err, vehicleserrors.ErrUnavailable):
		return apperrors.Conflict("Vehicle is no longer available")
	default:
		return apperrors.Internal("Failed to claim vehicle", err)
	}
}

func (s *reservationService) mapTransitionError(err error, id string, to model.ReservationStatus) error {
	switch {
	case errors.Is(err, reservationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", id)
	case errors.Is(err, reservationserrors.ErrInvalidTransition):
		return apperrors.Conflict("Reservation is no longer in a state that allows moving to " + string(to))
	default:
		return apperrors.Internal("Failed to update reservation status", err)
	}
}

// deadlineExceeded reports whether a transaction failure was caused by the
// attempt deadline rather than the operation itself.
func deadlineExceeded(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// publishEvent emits a lifecycle event after the state change has committed.
// Publishing is best-effort: a broker failure is logged and never undoes the
// committed reservation.
func (s *reservationService) publishEvent(ctx context.Context, event string, reservation *model.Reservation) {
	if s.publisher == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(reservation.ID).
		WithValue(model.ReservationEvent{
			ReservationID: reservation.ID,
			VehicleID:     reservation.VehicleID,
			UserID:        reservation.UserID,
			Status:        string(reservation.Status),
			StartTime:     reservation.StartTime,
			EndTime:       reservation.EndTime,
			OccurredAt:    time.Now().UTC(),
		}).
		WithEventType(event).
		WithSource("reservations").
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish reservation event",
			"event", event,
			"reservation_id", reservation.ID,
			"error", err,
		)
	}
}
