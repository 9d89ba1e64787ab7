package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	StatusPending    SessionStatus = "pending"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusAbandoned  SessionStatus = "abandoned"
)

type QuestionType string

const (
	QuestionTechnical   QuestionType = "technical"
	QuestionBehavioral  QuestionType = "behavioral"
	QuestionSituational QuestionType = "situational"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyMixed  Difficulty = "mixed"
)

type Recommendation string

const (
	RecommendHire  Recommendation = "hire"
	RecommendMaybe Recommendation = "maybe"
	RecommendNo    Recommendation = "no"
)

// InterviewSession is both the shareable interview link (MasterID == nil,
// owns the question template, never answered) and a candidate's attempt
// (MasterID set, owns an independent copy of the master's questions).
type InterviewSession struct {
	ID          uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	JobID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"job_id"`
	CandidateID *uuid.UUID    `gorm:"type:uuid" json:"candidate_id,omitempty"`
	Token       uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"token"`
	MasterID    *uuid.UUID    `gorm:"type:uuid;index" json:"master_id,omitempty"`
	Status      SessionStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	ExpiresAt   time.Time     `gorm:"not null" json:"expires_at"`

	// Anonymous candidate fields, filled at public registration when no
	// Candidate record is linked.
	CandidateName       string `gorm:"type:text" json:"candidate_name"`
	CandidateEmail      string `gorm:"type:text" json:"candidate_email"`
	CandidatePhone      string `gorm:"type:text" json:"candidate_phone"`
	CandidateResumeURL  string `gorm:"type:text" json:"candidate_resume_url"`
	CandidateResumeFile string `gorm:"type:text" json:"candidate_resume_file"`

	ResumeIndexed bool `gorm:"not null;default:false" json:"-"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Job       JobPosting          `gorm:"foreignKey:JobID" json:"-"`
	Questions []InterviewQuestion `gorm:"foreignKey:SessionID" json:"questions,omitempty"`
	Answers   []InterviewAnswer   `gorm:"foreignKey:SessionID" json:"answers,omitempty"`
	Result    *InterviewResult    `gorm:"foreignKey:SessionID" json:"result,omitempty"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}

// IsMaster reports whether the session is a link-defining master session.
func (s *InterviewSession) IsMaster() bool {
	return s.MasterID == nil
}

type InterviewQuestion struct {
	ID                uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	SessionID         uuid.UUID    `gorm:"type:uuid;not null;index" json:"session_id"`
	QuestionText      string       `gorm:"type:text;not null" json:"question_text"`
	QuestionType      QuestionType `gorm:"type:text;not null" json:"question_type"`
	Difficulty        Difficulty   `gorm:"type:text;not null" json:"difficulty"`
	ExpectedKeyPoints StringList   `gorm:"type:text" json:"expected_key_points"`
	Order             int          `gorm:"column:question_order;not null" json:"order"`
	IsMandatory       bool         `gorm:"not null;default:false" json:"is_mandatory"`
	IsCustom          bool         `gorm:"not null;default:false" json:"is_custom"`
	CreatedAt         time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (InterviewQuestion) TableName() string {
	return "interview_questions"
}

type InterviewAnswer struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SessionID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_answers_session_question" json:"session_id"`
	QuestionID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_answers_session_question" json:"question_id"`
	AnswerText   string     `gorm:"type:text;not null" json:"answer_text"`
	Score        int        `gorm:"not null;default:0" json:"score"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	Strengths    StringList `gorm:"type:text" json:"strengths"`
	Improvements StringList `gorm:"type:text" json:"improvements"`
	CreatedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (InterviewAnswer) TableName() string {
	return "interview_answers"
}

type InterviewResult struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	SessionID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	OverallScore     int            `gorm:"not null" json:"overall_score"`
	Summary          string         `gorm:"type:text" json:"summary"`
	Strengths        StringList     `gorm:"type:text" json:"strengths"`
	Weaknesses       StringList     `gorm:"type:text" json:"weaknesses"`
	Recommendation   Recommendation `gorm:"type:text;not null;default:'maybe'" json:"recommendation"`
	DetailedFeedback string         `gorm:"type:text" json:"detailed_feedback"`
	CreatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (InterviewResult) TableName() string {
	return "interview_results"
}
