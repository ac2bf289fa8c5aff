package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drivelane/appraisal-backend/pkg/enums"
	"github.com/drivelane/appraisal-backend/pkg/money"
)

// EvaluationCreatedEvent signals a new draft evaluation.
type EvaluationCreatedEvent struct {
	EvaluationID uuid.UUID `json:"evaluation_id"`
	EvaluatorID  uuid.UUID `json:"evaluator_id"`
	Plate        string    `json:"plate"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	YearModel    int       `json:"year_model"`
}

// ValuationCalculatedEvent carries the monetary snapshot after a calculation.
type ValuationCalculatedEvent struct {
	EvaluationID        uuid.UUID       `json:"evaluation_id"`
	FipePrice           money.Value     `json:"fipe_price"`
	TotalDepreciation   money.Value     `json:"total_depreciation"`
	SuggestedValue      money.Value     `json:"suggested_value"`
	FinalValue          money.Value     `json:"final_value"`
	LiquidityPercentage decimal.Decimal `json:"liquidity_percentage"`
	HasManualAdjustment bool            `json:"has_manual_adjustment"`
}

// EvaluationSubmittedEvent is emitted when the evaluator sends the
// evaluation to managerial review.
type EvaluationSubmittedEvent struct {
	EvaluationID uuid.UUID   `json:"evaluation_id"`
	EvaluatorID  uuid.UUID   `json:"evaluator_id"`
	FinalValue   money.Value `json:"final_value"`
	SubmittedAt  time.Time   `json:"submitted_at"`
}

// EvaluationApprovedEvent carries the approved value and its validity window.
type EvaluationApprovedEvent struct {
	EvaluationID    uuid.UUID   `json:"evaluation_id"`
	ApproverID      uuid.UUID   `json:"approver_id"`
	ApprovedValue   money.Value `json:"approved_value"`
	ApprovedAt      time.Time   `json:"approved_at"`
	ValidUntil      time.Time   `json:"valid_until"`
	ValidationToken uuid.UUID   `json:"validation_token"`
}

// EvaluationRejectedEvent carries the mandatory rejection reason.
type EvaluationRejectedEvent struct {
	EvaluationID uuid.UUID `json:"evaluation_id"`
	ApproverID   uuid.UUID `json:"approver_id"`
	Reason       string    `json:"reason"`
	RejectedAt   time.Time `json:"rejected_at"`
}

// EvaluationCanceledEvent is emitted when an active evaluation is abandoned.
type EvaluationCanceledEvent struct {
	EvaluationID uuid.UUID              `json:"evaluation_id"`
	ActorID      uuid.UUID              `json:"actor_id"`
	FromStatus   enums.EvaluationStatus `json:"from_status"`
	CanceledAt   time.Time              `json:"canceled_at"`
}

// EvaluationExpiredEvent is emitted by the expiry sweep when an approved
// valuation passes its validity window.
type EvaluationExpiredEvent struct {
	EvaluationID uuid.UUID `json:"evaluation_id"`
	ValidUntil   time.Time `json:"valid_until"`
	ExpiredAt    time.Time `json:"expired_at"`
}

// EvaluationPhotoAttachedEvent signals a confirmed photo upload.
type EvaluationPhotoAttachedEvent struct {
	EvaluationID uuid.UUID `json:"evaluation_id"`
	PhotoID      uuid.UUID `json:"photo_id"`
	ObjectKey    string    `json:"object_key"`
	ContentType  string    `json:"content_type"`
	UploadedBy   uuid.UUID `json:"uploaded_by"`
}
