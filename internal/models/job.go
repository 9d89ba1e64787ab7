package models

import (
	"time"

	"github.com/google/uuid"
)

type JobPosting struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title           string     `gorm:"type:text;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	Requirements    string     `gorm:"type:text" json:"requirements"`
	Skills          StringList `gorm:"type:text" json:"skills"`
	Location        string     `gorm:"type:text" json:"location"`
	EmploymentType  string     `gorm:"type:text;default:'full-time'" json:"employment_type"`
	ExperienceLevel string     `gorm:"type:text" json:"experience_level"`
	SalaryRange     string     `gorm:"type:text" json:"salary_range"`
	IsActive        bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (JobPosting) TableName() string {
	return "job_postings"
}
