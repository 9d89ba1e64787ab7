package models

import (
	"time"

	"github.com/google/uuid"
)

type Candidate struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Name            string     `gorm:"type:text;not null" json:"name"`
	Email           string     `gorm:"type:text;uniqueIndex;not null" json:"email"`
	Phone           string     `gorm:"type:text" json:"phone"`
	ResumeURL       string     `gorm:"type:text" json:"resume_url"`
	ResumeFile      string     `gorm:"type:text" json:"resume_file"`
	Skills          StringList `gorm:"type:text" json:"skills"`
	ExperienceYears *int       `json:"experience_years,omitempty"`
	Education       string     `gorm:"type:text" json:"education"`
	CreatedAt       time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Candidate) TableName() string {
	return "candidates"
}
