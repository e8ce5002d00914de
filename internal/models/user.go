package models

import "time"

const MinimumAge = 15

type User struct {
	ID              uint   `gorm:"primaryKey"`
	Username        string `gorm:"size:150;uniqueIndex;not null"`
	Email           string `gorm:"size:254"`
	PasswordHash    string `gorm:"not null"`
	Age             int    `gorm:"not null"`
	CanBeContacted  bool   `gorm:"not null;default:false"`
	CanDataBeShared bool   `gorm:"not null;default:false"`
	CreatedAt       time.Time

	// Relationships
	AuthoredProjects []Project     `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Contributions    []Contributor `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
