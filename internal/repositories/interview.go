package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"recruitmate/internal/models"
)

// ErrAnswerExists is returned when an answer for the same question is
// already recorded, which keeps "one answer per question" an enforced
// invariant under concurrent submissions.
var ErrAnswerExists = errors.New("question already answered")

type InterviewRepository interface {
	CreateSession(session *models.InterviewSession) error
	FindSessionByID(id uuid.UUID) (*models.InterviewSession, error)
	FindOwnedSessionByID(id, userID uuid.UUID) (*models.InterviewSession, error)
	FindSessionByToken(token uuid.UUID) (*models.InterviewSession, error)
	FindSessionsByUser(userID uuid.UUID, status models.SessionStatus) ([]models.InterviewSession, error)
	FindAllSessionsByUser(userID uuid.UUID) ([]models.InterviewSession, error)
	FindMasterSessions(userID uuid.UUID) ([]models.InterviewSession, error)
	FindAttemptsByMaster(masterID uuid.UUID) ([]models.InterviewSession, error)
	FindAttemptsByUser(userID uuid.UUID) ([]models.InterviewSession, error)
	FindAttemptsByEmail(userID uuid.UUID, email string) ([]models.InterviewSession, error)
	UpdateSessionStatus(id uuid.UUID, status models.SessionStatus) error
	CompleteSession(id uuid.UUID, completedAt time.Time) error
	DeleteSession(id uuid.UUID) error

	CreateQuestions(questions []*models.InterviewQuestion) error
	FindQuestionsBySession(sessionID uuid.UUID) ([]models.InterviewQuestion, error)

	CreateAnswer(answer *models.InterviewAnswer) error
	FindAnswersBySession(sessionID uuid.UUID) ([]models.InterviewAnswer, error)
	CountAnswers(sessionID uuid.UUID) (int64, error)

	CreateResult(result *models.InterviewResult) error
	FindResultBySession(sessionID uuid.UUID) (*models.InterviewResult, error)

	FindUnindexedAttempts(limit int) ([]models.InterviewSession, error)
	MarkResumeIndexed(id uuid.UUID) error
}

type interviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) InterviewRepository {
	return &interviewRepository{db: db}
}

// CreateSession implements InterviewRepository.
func (r *interviewRepository) CreateSession(session *models.InterviewSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindSessionByID implements InterviewRepository.
func (r *interviewRepository) FindSessionByID(id uuid.UUID) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := r.db.
		Preload("Job").
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("question_order ASC") }).
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Result").
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &session, nil
}

// FindOwnedSessionByID implements InterviewRepository. Ownership mismatch
// behaves like a missing session.
func (r *interviewRepository) FindOwnedSessionByID(id, userID uuid.UUID) (*models.InterviewSession, error) {
	session, err := r.FindSessionByID(id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return session, nil
}

// FindSessionByToken implements InterviewRepository.
func (r *interviewRepository) FindSessionByToken(token uuid.UUID) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := r.db.
		Preload("Job").
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("question_order ASC") }).
		Where("token = ?", token).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session token %s: %w", token, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find session by token: %w", err)
	}
	return &session, nil
}

// FindSessionsByUser implements InterviewRepository. Master sessions that
// were never entered (pending) are excluded; an empty status returns every
// non-pending session.
func (r *interviewRepository) FindSessionsByUser(userID uuid.UUID, status models.SessionStatus) ([]models.InterviewSession, error) {
	query := r.db.
		Preload("Job").
		Preload("Result").
		Where("user_id = ? AND status <> ?", userID, models.StatusPending)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var sessions []models.InterviewSession
	if err := query.Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// FindAllSessionsByUser implements InterviewRepository.
func (r *interviewRepository) FindAllSessionsByUser(userID uuid.UUID) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := r.db.
		Preload("Result").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// FindMasterSessions implements InterviewRepository.
func (r *interviewRepository) FindMasterSessions(userID uuid.UUID) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := r.db.
		Preload("Job").
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("question_order ASC") }).
		Where("user_id = ? AND master_id IS NULL", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list interview links: %w", err)
	}
	return sessions, nil
}

// FindAttemptsByMaster implements InterviewRepository. This is the indexed
// parent-child lookup for "all candidate attempts for link X".
func (r *interviewRepository) FindAttemptsByMaster(masterID uuid.UUID) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := r.db.
		Preload("Result").
		Where("master_id = ?", masterID).
		Order("started_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return sessions, nil
}

// FindAttemptsByUser implements InterviewRepository. Only candidate attempts
// with a recorded email qualify for the roll-up.
func (r *interviewRepository) FindAttemptsByUser(userID uuid.UUID) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := r.db.
		Preload("Result").
		Where("user_id = ? AND master_id IS NOT NULL AND candidate_email <> ''", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate attempts: %w", err)
	}
	return sessions, nil
}

// FindAttemptsByEmail implements InterviewRepository.
func (r *interviewRepository) FindAttemptsByEmail(userID uuid.UUID, email string) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := r.db.
		Preload("Job").
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("question_order ASC") }).
		Preload("Answers").
		Preload("Result").
		Where("user_id = ? AND master_id IS NOT NULL AND LOWER(TRIM(candidate_email)) = ?", userID, email).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts by email: %w", err)
	}
	return sessions, nil
}

// UpdateSessionStatus implements InterviewRepository.
func (r *interviewRepository) UpdateSessionStatus(id uuid.UUID, status models.SessionStatus) error {
	result := r.db.Model(&models.InterviewSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update session status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// CompleteSession implements InterviewRepository. Only an in-progress
// session can complete, which makes the transition one-shot.
func (r *interviewRepository) CompleteSession(id uuid.UUID, completedAt time.Time) error {
	result := r.db.Model(&models.InterviewSession{}).
		Where("id = ? AND status = ?", id, models.StatusInProgress).
		Updates(map[string]interface{}{
			"status":       models.StatusCompleted,
			"completed_at": completedAt,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to complete session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("session %s not in progress: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteSession implements InterviewRepository. Questions, answers and the
// result go with the session.
func (r *interviewRepository) DeleteSession(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&models.InterviewAnswer{}).Error; err != nil {
			return fmt.Errorf("failed to delete answers: %w", err)
		}
		if err := tx.Where("session_id = ?", id).Delete(&models.InterviewQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to delete questions: %w", err)
		}
		if err := tx.Where("session_id = ?", id).Delete(&models.InterviewResult{}).Error; err != nil {
			return fmt.Errorf("failed to delete result: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.InterviewSession{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// CreateQuestions implements InterviewRepository.
func (r *interviewRepository) CreateQuestions(questions []*models.InterviewQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	if err := r.db.Create(questions).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}
	return nil
}

// FindQuestionsBySession implements InterviewRepository.
func (r *interviewRepository) FindQuestionsBySession(sessionID uuid.UUID) ([]models.InterviewQuestion, error) {
	var questions []models.InterviewQuestion
	err := r.db.
		Where("session_id = ?", sessionID).
		Order("question_order ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// CreateAnswer implements InterviewRepository. A pre-write recheck inside
// the transaction plus the unique (session_id, question_id) index reject a
// concurrent double submit.
func (r *interviewRepository) CreateAnswer(answer *models.InterviewAnswer) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.InterviewAnswer{}).
			Where("session_id = ? AND question_id = ?", answer.SessionID, answer.QuestionID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check existing answer: %w", err)
		}
		if count > 0 {
			return ErrAnswerExists
		}
		if err := tx.Create(answer).Error; err != nil {
			return fmt.Errorf("failed to create answer: %w", err)
		}
		return nil
	})
}

// FindAnswersBySession implements InterviewRepository.
func (r *interviewRepository) FindAnswersBySession(sessionID uuid.UUID) ([]models.InterviewAnswer, error) {
	var answers []models.InterviewAnswer
	err := r.db.
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

// CountAnswers implements InterviewRepository.
func (r *interviewRepository) CountAnswers(sessionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.InterviewAnswer{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return count, nil
}

// CreateResult implements InterviewRepository. The unique session index
// guarantees at most one result per session.
func (r *interviewRepository) CreateResult(result *models.InterviewResult) error {
	if err := r.db.Create(result).Error; err != nil {
		return fmt.Errorf("failed to create result: %w", err)
	}
	return nil
}

// FindResultBySession implements InterviewRepository.
func (r *interviewRepository) FindResultBySession(sessionID uuid.UUID) (*models.InterviewResult, error) {
	var result models.InterviewResult
	if err := r.db.Where("session_id = ?", sessionID).First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("result for session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find result: %w", err)
	}
	return &result, nil
}

// FindUnindexedAttempts implements InterviewRepository.
func (r *interviewRepository) FindUnindexedAttempts(limit int) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := r.db.
		Where("master_id IS NOT NULL AND candidate_resume_file <> '' AND resume_indexed = ?", false).
		Order("created_at ASC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find unindexed attempts: %w", err)
	}
	return sessions, nil
}

// MarkResumeIndexed implements InterviewRepository.
func (r *interviewRepository) MarkResumeIndexed(id uuid.UUID) error {
	result := r.db.Model(&models.InterviewSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"resume_indexed": true,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark resume indexed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}
