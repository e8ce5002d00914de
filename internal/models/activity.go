package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is an append-only record of a mutation inside a project.
type Activity struct {
	ID           uint           `gorm:"primaryKey"`
	ProjectID    uint           `gorm:"not null;index:idx_activity_project,priority:1"`
	ActorID      uint           `gorm:"not null;index"`
	Action       string         `gorm:"size:64;not null"`
	ResourceType string         `gorm:"size:32;not null"`
	ResourceID   uint           `gorm:"not null"`
	Details      datatypes.JSON
	CreatedAt    time.Time      `gorm:"index:idx_activity_project,priority:2"`

	// Relationships
	Actor User `gorm:"foreignKey:ActorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
