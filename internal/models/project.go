package models

import "time"

type ProjectType string

const (
	ProjectTypeBackend  ProjectType = "back-end"
	ProjectTypeFrontend ProjectType = "front-end"
	ProjectTypeIOS      ProjectType = "iOS"
	ProjectTypeAndroid  ProjectType = "Android"
)

func (t ProjectType) Valid() bool {
	switch t {
	case ProjectTypeBackend, ProjectTypeFrontend, ProjectTypeIOS, ProjectTypeAndroid:
		return true
	}
	return false
}

type Project struct {
	ID          uint        `gorm:"primaryKey"`
	Name        string      `gorm:"size:255;not null"`
	Description string      `gorm:"type:text"`
	Type        ProjectType `gorm:"size:20;not null"`
	AuthorID    uint        `gorm:"not null;index"`
	CreatedAt   time.Time

	// Relationships
	Author       User          `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Contributors []Contributor `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Issues       []Issue       `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Activities   []Activity    `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
