package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BodyType string

const (
	BodyEctomorph BodyType = "Ectomorph"
	BodyMesomorph BodyType = "Mesomorph"
	BodyEndomorph BodyType = "Endomorph"
)

func (b BodyType) Valid() bool {
	switch b {
	case BodyEctomorph, BodyMesomorph, BodyEndomorph:
		return true
	}
	return false
}

type PlanIcon string

const (
	IconFitness PlanIcon = "fitness"
	IconLeaf    PlanIcon = "leaf"
	IconBarbell PlanIcon = "barbell"
	IconFlash   PlanIcon = "flash"
	IconArmFlex PlanIcon = "arm-flex"
	IconRunFast PlanIcon = "run-fast"
)

func (i PlanIcon) Valid() bool {
	switch i {
	case IconFitness, IconLeaf, IconBarbell, IconFlash, IconArmFlex, IconRunFast:
		return true
	}
	return false
}

// Plan is an admin-authored workout template.
type Plan struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string                      `gorm:"size:255;not null" json:"title"`
	Description string                      `gorm:"type:text;not null" json:"description"`
	BodyType    BodyType                    `gorm:"size:20;not null;index" json:"body_type"`
	Focus       string                      `gorm:"size:255;not null" json:"focus"`
	Days        datatypes.JSONSlice[string] `gorm:"not null" json:"days"`
	Tips        string                      `gorm:"type:text;not null" json:"tips"`
	Icon        PlanIcon                    `gorm:"size:20;not null;default:'fitness'" json:"icon"`
	CreatedBy   *uuid.UUID                  `gorm:"type:uuid;index" json:"created_by,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}
