package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateEvaluation OutboxAggregateType = "evaluation"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateEvaluation,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventEvaluationCreated             OutboxEventType = "evaluation_created"
	EventEvaluationValuationCalculated OutboxEventType = "evaluation_valuation_calculated"
	EventEvaluationSubmitted           OutboxEventType = "evaluation_submitted"
	EventEvaluationApproved            OutboxEventType = "evaluation_approved"
	EventEvaluationRejected            OutboxEventType = "evaluation_rejected"
	EventEvaluationCanceled            OutboxEventType = "evaluation_canceled"
	EventEvaluationExpired             OutboxEventType = "evaluation_expired"
	EventEvaluationPhotoAttached       OutboxEventType = "evaluation_photo_attached"
)

var validOutboxEventTypes = []OutboxEventType{
	EventEvaluationCreated,
	EventEvaluationValuationCalculated,
	EventEvaluationSubmitted,
	EventEvaluationApproved,
	EventEvaluationRejected,
	EventEvaluationCanceled,
	EventEvaluationExpired,
	EventEvaluationPhotoAttached,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxDLQErrorReason records why an outbox row was dead-lettered.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
}

// IsValid reports whether the value is known.
func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}
