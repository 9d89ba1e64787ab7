package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"recruitmate/internal/models"
)

type JobRepository interface {
	Create(job *models.JobPosting) error
	FindByID(id, userID uuid.UUID) (*models.JobPosting, error)
	FindByUser(userID uuid.UUID) ([]models.JobPosting, error)
	FindActiveByUser(userID uuid.UUID) ([]models.JobPosting, error)
	Update(job *models.JobPosting) error
	Delete(id, userID uuid.UUID) error
	CountByUser(userID uuid.UUID) (int64, error)
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

// Create implements JobRepository.
func (r *jobRepository) Create(job *models.JobPosting) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// FindByID implements JobRepository. The user id acts as an ownership
// check: another user's job behaves like a missing one.
func (r *jobRepository) FindByID(id, userID uuid.UUID) (*models.JobPosting, error) {
	var job models.JobPosting
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return &job, nil
}

// FindByUser implements JobRepository.
func (r *jobRepository) FindByUser(userID uuid.UUID) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// FindActiveByUser implements JobRepository.
func (r *jobRepository) FindActiveByUser(userID uuid.UUID) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	err := r.db.
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active jobs: %w", err)
	}
	return jobs, nil
}

// Update implements JobRepository.
func (r *jobRepository) Update(job *models.JobPosting) error {
	if err := r.db.Save(job).Error; err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// Delete implements JobRepository.
func (r *jobRepository) Delete(id, userID uuid.UUID) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.JobPosting{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountByUser implements JobRepository.
func (r *jobRepository) CountByUser(userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.Model(&models.JobPosting{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}
