package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"motorpool/pkg/logger"
	"motorpool/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	return &ReservationValidator{
		validate: validator.New(),
		logger:   log,
	}
}

// ValidateRequest checks a reservation request and normalizes its timestamps.
// It never touches storage: every rejection happens before any mutation. All
// field problems are collected so the caller sees the full picture at once.
func (v *ReservationValidator) ValidateRequest(req *model.ReservationRequest) (start, end time.Time, err error) {
	var errs ValidationErrors

	if strings.TrimSpace(req.VehicleID) == "" {
		errs = append(errs, ValidationError{Field: "vehicle_id", Message: "vehicle_id is required"})
	}
	if strings.TrimSpace(req.UserID) == "" {
		errs = append(errs, ValidationError{Field: "user_id", Message: "user_id is required"})
	}

	start, startErr := v.parseTimestamp("start_time", req.StartTime, &errs)
	end, endErr := v.parseTimestamp("end_time", req.EndTime, &errs)

	if startErr == nil && endErr == nil && !end.After(start) {
		errs = append(errs, ValidationError{Field: "end_time", Message: "end_time must be after start_time"})
	}

	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}

	return start, end, nil
}

func (v *ReservationValidator) parseTimestamp(field, value string, errs *ValidationErrors) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		err := fmt.Errorf("%s is required", field)
		*errs = append(*errs, ValidationError{Field: field, Message: err.Error()})
		return time.Time{}, err
	}

	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		*errs = append(*errs, ValidationError{Field: field, Message: fmt.Sprintf("%s must be a valid RFC3339 timestamp", field)})
		return time.Time{}, err
	}

	return parsed, nil
}

// Validate checks a fully-assembled reservation before it is persisted.
func (v *ReservationValidator) Validate(reservation *model.Reservation) error {
	if err := v.validate.Struct(reservation); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if !reservation.EndTime.After(reservation.StartTime) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndTime",
				Message: "end_time must be after start_time",
			},
		}
	}

	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "uuid4":
			message = fmt.Sprintf("%s must be a valid UUID", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +14155552671)", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
