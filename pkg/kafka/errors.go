package kafka

import (
	"errors"
	"fmt"
	"strings"
)

// Common Kafka errors
var (
	ErrProducerClosed    = errors.New("producer is closed")
	ErrConsumerClosed    = errors.New("consumer is closed")
	ErrInvalidMessage    = errors.New("invalid message format")
	ErrEmptyKey          = errors.New("message key cannot be empty")
	ErrEmptyValue        = errors.New("message value cannot be empty")
	ErrConnectionFailed  = errors.New("failed to connect to kafka")
	ErrPublishTimeout    = errors.New("message publish timeout")
	ErrConsumeTimeout    = errors.New("message consume timeout")
	ErrMaxRetriesReached = errors.New("maximum retries reached")
)

// KafkaError wraps Kafka-specific errors with additional context
type KafkaError struct {
	Op      string // Operation that failed (publish, consume, connect)
	Topic   string // Topic involved
	Err     error  // Underlying error
	Retries int    // Number of retries attempted
}

func (e *KafkaError) Error() string {
	if e.Topic != "" {
		return fmt.Sprintf("kafka %s failed for topic %s: %v (retries: %d)", e.Op, e.Topic, e.Err, e.Retries)
	}
	return fmt.Sprintf("kafka %s failed: %v (retries: %d)", e.Op, e.Err, e.Retries)
}

func (e *KafkaError) Unwrap() error {
	return e.Err
}

func NewKafkaError(op, topic string, err error, retries int) *KafkaError {
	return &KafkaError{
		Op:      op,
		Topic:   topic,
		Err:     err,
		Retries: retries,
	}
}

// IsRetryable determines if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Non-retryable errors
	if errors.Is(err, ErrInvalidMessage) ||
		errors.Is(err, ErrProducerClosed) ||
		errors.Is(err, ErrConsumerClosed) ||
		errors.Is(err, ErrMaxRetriesReached) {
		return false
	}

	// Retryable errors
	if errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrPublishTimeout) ||
		errors.Is(err, ErrConsumeTimeout) {
		return true
	}

	// Transient broker conditions reported as plain strings
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"broker not available",
		"leader not available",
		"network",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// ShouldRetry reports whether processing should be retried given the error
// and the number of attempts already made.
func ShouldRetry(err error, retries, maxRetries int) bool {
	if retries >= maxRetries {
		return false
	}
	return IsRetryable(err)
}
