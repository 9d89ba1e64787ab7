package models

import "github.com/google/uuid"

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type JobRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Requirements    string `json:"requirements"`
	Location        string `json:"location"`
	EmploymentType  string `json:"employment_type"`
	ExperienceLevel string `json:"experience_level"`
	SalaryRange     string `json:"salary_range"`
}

type CustomQuestionRequest struct {
	QuestionText string `json:"question_text"`
	QuestionType string `json:"question_type"`
	Difficulty   string `json:"difficulty"`
}

type CreateLinkRequest struct {
	JobID           string                  `json:"job_id"`
	CandidateID     string                  `json:"candidate_id,omitempty"`
	NumQuestions    int                     `json:"num_questions"`
	DifficultyLevel string                  `json:"difficulty_level"`
	CustomQuestions []CustomQuestionRequest `json:"custom_questions,omitempty"`
}

type AnswerRequest struct {
	Answer string `json:"answer"`
}

// TypeScores is the read-side technical/behavioral partition of a session's
// answer scores. Nil means the partition has no answers.
type TypeScores struct {
	Technical  *int `json:"technical_score"`
	Behavioral *int `json:"behavioral_score"`
}

// CandidateSummary is one group of the candidate roll-up, keyed by
// normalized email across a user's candidate attempts.
type CandidateSummary struct {
	Name                string        `json:"name"`
	Email               string        `json:"email"`
	Phone               string        `json:"phone"`
	TotalInterviews     int           `json:"total_interviews"`
	CompletedInterviews int           `json:"completed_interviews"`
	LatestStatus        SessionStatus `json:"latest_status"`
	BestScore           *int          `json:"best_score"`
}

type LinkStats struct {
	TotalCandidates int `json:"total_candidates"`
	Completed       int `json:"completed"`
	InProgress      int `json:"in_progress"`
	Abandoned       int `json:"abandoned"`
}

type DashboardStats struct {
	TotalInterviews int     `json:"total_interviews"`
	Completed       int     `json:"completed"`
	InProgress      int     `json:"in_progress"`
	AvgScore        float64 `json:"avg_score"`
	TotalCandidates int64   `json:"total_candidates"`
	TotalJobs       int64   `json:"total_jobs"`
	CompletionRate  float64 `json:"completion_rate"`
}

type SimilarCandidate struct {
	SessionID uuid.UUID `json:"session_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Score     float32   `json:"similarity"`
}
