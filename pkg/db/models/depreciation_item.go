package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepreciationItem is a single catalogued deduction recorded during checklist
// review. Rows are immutable once created; removal deletes the row outright.
type DepreciationItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EvaluationID  uuid.UUID       `gorm:"column:evaluation_id;type:uuid;not null;index"`
	Category      string          `gorm:"column:category;not null"`
	Description   string          `gorm:"column:description;not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	Justification string          `gorm:"column:justification;not null"`
	CreatedBy     uuid.UUID       `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
