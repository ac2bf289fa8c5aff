package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/drivelane/appraisal-backend/pkg/enums"
)

// Notification stores in-app notification payloads addressed to a single
// user, typically the evaluator who owns the underlying evaluation.
type Notification struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID  uuid.UUID              `gorm:"column:recipient_id;type:uuid;not null;index"`
	EvaluationID uuid.UUID              `gorm:"column:evaluation_id;type:uuid;not null"`
	Type         enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title        string                 `gorm:"column:title;not null"`
	Message      string                 `gorm:"column:message;not null"`
	Link         *string                `gorm:"column:link"`
	ReadAt       *time.Time             `gorm:"column:read_at"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
}
