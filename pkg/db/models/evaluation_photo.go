package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/drivelane/appraisal-backend/pkg/enums"
)

// EvaluationPhoto tracks one photo attached to an evaluation. The object
// itself lives in GCS; this row records the key and upload lifecycle.
type EvaluationPhoto struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EvaluationID uuid.UUID         `gorm:"column:evaluation_id;type:uuid;not null;index"`
	ObjectKey    string            `gorm:"column:object_key;not null;uniqueIndex"`
	ContentType  string            `gorm:"column:content_type;not null"`
	SizeBytes    int64             `gorm:"column:size_bytes;not null;default:0"`
	Caption      *string           `gorm:"column:caption"`
	Status       enums.PhotoStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	UploadedBy   uuid.UUID         `gorm:"column:uploaded_by;type:uuid;not null"`
	UploadedAt   *time.Time        `gorm:"column:uploaded_at"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
