package models

import "time"

type IssuePriority string

const (
	PriorityLow    IssuePriority = "LOW"
	PriorityMedium IssuePriority = "MEDIUM"
	PriorityHigh   IssuePriority = "HIGH"
)

func (p IssuePriority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type IssueTag string

const (
	TagBug     IssueTag = "BUG"
	TagFeature IssueTag = "FEATURE"
	TagTask    IssueTag = "TASK"
)

func (t IssueTag) Valid() bool {
	return t == TagBug || t == TagFeature || t == TagTask
}

type IssueStatus string

const (
	StatusToDo       IssueStatus = "To Do"
	StatusInProgress IssueStatus = "In Progress"
	StatusFinished   IssueStatus = "Finished"
)

func (s IssueStatus) Valid() bool {
	return s == StatusToDo || s == StatusInProgress || s == StatusFinished
}

type Issue struct {
	ID           uint          `gorm:"primaryKey"`
	Name         string        `gorm:"size:255;not null"`
	Description  string        `gorm:"type:text"`
	Priority     IssuePriority `gorm:"size:10;not null;default:MEDIUM"`
	Tag          IssueTag      `gorm:"size:10;not null;default:TASK"`
	Status       IssueStatus   `gorm:"size:20;not null;default:'To Do'"`
	ProjectID    uint          `gorm:"not null;index"`
	AuthorID     uint          `gorm:"not null;index"`
	AssignedToID *uint         `gorm:"index"`
	CreatedAt    time.Time

	// Relationships
	Project    Project   `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Author     User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	AssignedTo *User     `gorm:"foreignKey:AssignedToID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Comments   []Comment `gorm:"foreignKey:IssueID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
