package models

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID          uint      `gorm:"primaryKey"`
	UUID        uuid.UUID `gorm:"type:varchar(36);uniqueIndex;not null"`
	Description string    `gorm:"type:text;not null"`
	IssueID     uint      `gorm:"not null;index"`
	AuthorID    uint      `gorm:"not null;index"`
	CreatedAt   time.Time

	// Relationships
	Issue  Issue `gorm:"foreignKey:IssueID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Author User  `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
