package worker

import (
	"context"
	"fmt"

	"motorpool/internal/notifications/repository"
	"motorpool/pkg/kafka"
	"motorpool/pkg/logger"
	"motorpool/pkg/model"

	"github.com/google/uuid"
)

// Worker turns reservation lifecycle events into notification records. Each
// consumed event becomes one Notification document; delivery to the user is
// a downstream concern.
type Worker struct {
	repo repository.NotificationRepository
	log  *logger.Logger
}

func NewWorker(repo repository.NotificationRepository, log *logger.Logger) *Worker {
	return &Worker{
		repo: repo,
		log:  log,
	}
}

// Handle is the kafka.MessageHandler the consumer drives.
func (w *Worker) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.ReservationEvent
	if err := msg.DecodeValue(&event); err != nil {
		w.log.Error("Failed to decode reservation event",
			"event_id", msg.GetEventID(),
			"error", err,
		)
		// A payload that does not decode will never decode; don't retry.
		return fmt.Errorf("%w: %v", kafka.ErrInvalidMessage, err)
	}

	if event.ReservationID == "" || event.UserID == "" {
		w.log.Warn("Dropping reservation event without identity",
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
		)
		return fmt.Errorf("%w: missing reservation or user id", kafka.ErrInvalidMessage)
	}

	notification := &model.Notification{
		ID:            uuid.NewString(),
		UserID:        event.UserID,
		ReservationID: event.ReservationID,
		VehicleID:     event.VehicleID,
		Event:         msg.GetEventType(),
	}

	if err := w.repo.Create(ctx, notification); err != nil {
		w.log.Error("Failed to record notification",
			"event_id", msg.GetEventID(),
			"reservation_id", event.ReservationID,
			"error", err,
		)
		return err
	}

	w.log.Info("Notification recorded",
		"id", notification.ID,
		"user_id", notification.UserID,
		"reservation_id", notification.ReservationID,
		"event", notification.Event,
	)
	return nil
}
