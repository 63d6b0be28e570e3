package kafka

// Topics used by the reservation pipeline
const (
	TopicReservationLifecycle = "reservation-lifecycle"
	TopicDeadLetter           = "reservation-lifecycle-dlq"
)

// Event types carried in the event-type header
const (
	EventReservationCreated   = "reservation.created"
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationCompleted = "reservation.completed"
)
