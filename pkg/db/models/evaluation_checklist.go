package models

import (
	"time"

	"github.com/google/uuid"
)

// EvaluationChecklist is the structured condition review embedded in an
// evaluation. Scores run 0-10 per area; notes hold free-text findings the
// evaluator turns into depreciation items.
type EvaluationChecklist struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EvaluationID uuid.UUID `gorm:"column:evaluation_id;type:uuid;not null;uniqueIndex"`

	BodyScore       int `gorm:"column:body_score;not null;default:0"`
	EngineScore     int `gorm:"column:engine_score;not null;default:0"`
	InteriorScore   int `gorm:"column:interior_score;not null;default:0"`
	TiresScore      int `gorm:"column:tires_score;not null;default:0"`
	ElectricalScore int `gorm:"column:electrical_score;not null;default:0"`

	HasAccidentHistory bool    `gorm:"column:has_accident_history;not null;default:false"`
	Notes              *string `gorm:"column:notes"`

	ReviewedBy uuid.UUID `gorm:"column:reviewed_by;type:uuid;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
