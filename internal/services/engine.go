package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"recruitmate/internal/models"
	"recruitmate/internal/repositories"
)

// Interview links stay open for a week.
const linkTTL = 7 * 24 * time.Hour

var (
	// ErrLinkUnavailable gates entry to an expired or deactivated link
	// before any attempt lookup.
	ErrLinkUnavailable = errors.New("interview link expired or deactivated")
	// ErrResumeRequired rejects a registration without a resume upload.
	ErrResumeRequired = errors.New("resume upload is required")
)

// CustomQuestion is a recruiter-authored question submitted at link
// creation. These always precede the generated ones and are mandatory.
type CustomQuestion struct {
	Text       string
	Type       string
	Difficulty string
}

// LinkParams describes a new interview link.
type LinkParams struct {
	JobID           uuid.UUID
	CandidateID     *uuid.UUID
	NumQuestions    int
	Difficulty      models.Difficulty
	CustomQuestions []CustomQuestion
}

// Registration is a candidate entering the public flow. ResumeFile is the
// stored path of the uploaded resume.
type Registration struct {
	Name       string
	Email      string
	Phone      string
	ResumeFile string
}

// FlowState is what the public flow renders: where the candidate is and
// what comes next.
type FlowState struct {
	Session      *models.InterviewSession  `json:"session"`
	NextQuestion *models.InterviewQuestion `json:"next_question,omitempty"`
	Answered     int                       `json:"answered"`
	Total        int                       `json:"total"`
	Completed    bool                      `json:"completed"`
	Result       *models.InterviewResult   `json:"result,omitempty"`
}

// InterviewEngine drives the interview lifecycle: link creation, the public
// candidate flow, answer evaluation and completion.
type InterviewEngine interface {
	CreateLink(ctx context.Context, userID uuid.UUID, params LinkParams) (*models.InterviewSession, error)
	LookupMaster(token uuid.UUID) (*models.InterviewSession, error)
	Register(ctx context.Context, masterToken uuid.UUID, reg Registration) (*models.InterviewSession, error)
	FlowState(sessionID uuid.UUID) (*FlowState, error)
	SubmitAnswer(ctx context.Context, sessionID uuid.UUID, answerText string) (*FlowState, error)
}

type interviewEngine struct {
	interviewRepo repositories.InterviewRepository
	jobRepo       repositories.JobRepository
	candidateRepo repositories.CandidateRepository
	provider      QuestionProvider
	resumeParser  ResumeParserService
	promptBuilder *PromptBuilder
	now           func() time.Time
}

func NewInterviewEngine(
	interviewRepo repositories.InterviewRepository,
	jobRepo repositories.JobRepository,
	candidateRepo repositories.CandidateRepository,
	provider QuestionProvider,
	resumeParser ResumeParserService,
) InterviewEngine {
	return &interviewEngine{
		interviewRepo: interviewRepo,
		jobRepo:       jobRepo,
		candidateRepo: candidateRepo,
		provider:      provider,
		resumeParser:  resumeParser,
		promptBuilder: NewPromptBuilder(),
		now:           time.Now,
	}
}

// CreateLink implements InterviewEngine. The master session owns the
// question template: recruiter questions first, then generated ones.
func (e *interviewEngine) CreateLink(ctx context.Context, userID uuid.UUID, params LinkParams) (*models.InterviewSession, error) {
	job, err := e.jobRepo.FindByID(params.JobID, userID)
	if err != nil {
		return nil, err
	}

	var candidate *models.Candidate
	if params.CandidateID != nil {
		candidate, err = e.candidateRepo.FindByID(*params.CandidateID)
		if err != nil {
			return nil, err
		}
	}

	session := &models.InterviewSession{
		ID:          uuid.New(),
		UserID:      userID,
		JobID:       job.ID,
		CandidateID: params.CandidateID,
		Token:       uuid.New(),
		Status:      models.StatusPending,
		ExpiresAt:   e.now().Add(linkTTL),
	}
	if err := e.interviewRepo.CreateSession(session); err != nil {
		return nil, err
	}

	var questions []*models.InterviewQuestion
	order := 0

	for _, custom := range params.CustomQuestions {
		if custom.Text == "" {
			continue
		}
		order++
		questions = append(questions, &models.InterviewQuestion{
			ID:                uuid.New(),
			SessionID:         session.ID,
			QuestionText:      custom.Text,
			QuestionType:      normalizeQuestionType(custom.Type),
			Difficulty:        normalizeDifficulty(custom.Difficulty, models.DifficultyMedium),
			ExpectedKeyPoints: models.StringList{},
			Order:             order,
			IsMandatory:       true,
			IsCustom:          true,
		})
	}

	if remaining := params.NumQuestions - order; remaining > 0 {
		jobContext := e.promptBuilder.BuildJobContext(job, params.Difficulty)
		candidateContext := e.candidateContext(candidate)

		generated := e.provider.GenerateQuestions(ctx, jobContext, candidateContext, remaining)
		for _, g := range generated {
			difficulty := normalizeDifficulty(g.Difficulty, models.DifficultyMedium)
			if params.Difficulty != models.DifficultyMixed && params.Difficulty != "" {
				// A fixed policy overrides whatever the model picked.
				difficulty = params.Difficulty
			}
			order++
			questions = append(questions, &models.InterviewQuestion{
				ID:                uuid.New(),
				SessionID:         session.ID,
				QuestionText:      g.Question,
				QuestionType:      normalizeQuestionType(g.Type),
				Difficulty:        difficulty,
				ExpectedKeyPoints: models.StringList(g.ExpectedKeyPoints),
				Order:             order,
				IsMandatory:       false,
				IsCustom:          false,
			})
		}
	}

	if err := e.interviewRepo.CreateQuestions(questions); err != nil {
		return nil, err
	}

	log.Printf("🔗 Interview link created for %q with %d questions\n", job.Title, len(questions))
	return e.interviewRepo.FindSessionByID(session.ID)
}

func (e *interviewEngine) candidateContext(candidate *models.Candidate) string {
	if candidate == nil {
		return e.promptBuilder.BuildCandidateContext(nil, "")
	}

	resumeText := ""
	if candidate.ResumeFile != "" {
		text, err := e.resumeParser.ExtractText(candidate.ResumeFile)
		if err != nil {
			log.Printf("⚠️ Failed to parse candidate resume: %v\n", err)
		} else {
			resumeText = CleanText(text)
		}
	}
	return e.promptBuilder.BuildCandidateContext(candidate, resumeText)
}

// LookupMaster implements InterviewEngine. The gate check runs before any
// attempt lookup: an expired or deactivated link refuses entry outright.
func (e *interviewEngine) LookupMaster(token uuid.UUID) (*models.InterviewSession, error) {
	session, err := e.interviewRepo.FindSessionByToken(token)
	if err != nil {
		return nil, err
	}
	if !session.IsMaster() {
		return nil, fmt.Errorf("session token %s: %w", token, repositories.ErrNotFound)
	}
	if e.now().After(session.ExpiresAt) || session.Status == models.StatusAbandoned {
		return nil, ErrLinkUnavailable
	}
	return session, nil
}

// Register implements InterviewEngine. Spawns a candidate attempt with its
// own copy of the master's questions, so later master edits never change an
// in-flight attempt.
func (e *interviewEngine) Register(ctx context.Context, masterToken uuid.UUID, reg Registration) (*models.InterviewSession, error) {
	master, err := e.LookupMaster(masterToken)
	if err != nil {
		return nil, err
	}
	if reg.ResumeFile == "" {
		return nil, ErrResumeRequired
	}

	now := e.now()
	attempt := &models.InterviewSession{
		ID:                  uuid.New(),
		UserID:              master.UserID,
		JobID:               master.JobID,
		CandidateID:         master.CandidateID,
		Token:               uuid.New(),
		MasterID:            &master.ID,
		Status:              models.StatusInProgress,
		StartedAt:           &now,
		ExpiresAt:           master.ExpiresAt,
		CandidateName:       reg.Name,
		CandidateEmail:      reg.Email,
		CandidatePhone:      reg.Phone,
		CandidateResumeFile: reg.ResumeFile,
	}
	if err := e.interviewRepo.CreateSession(attempt); err != nil {
		return nil, err
	}

	// Mandatory recruiter questions first, then the generated ones,
	// preserving relative order with a contiguous counter.
	var copies []*models.InterviewQuestion
	order := 0
	for _, q := range master.Questions {
		if q.IsCustom && q.IsMandatory {
			order++
			copies = append(copies, copyQuestion(&q, attempt.ID, order))
		}
	}
	for _, q := range master.Questions {
		if !q.IsCustom {
			order++
			copies = append(copies, copyQuestion(&q, attempt.ID, order))
		}
	}
	if err := e.interviewRepo.CreateQuestions(copies); err != nil {
		return nil, err
	}

	log.Printf("🎤 Candidate %q registered for interview %s\n", reg.Name, master.ID)
	return e.interviewRepo.FindSessionByID(attempt.ID)
}

func copyQuestion(q *models.InterviewQuestion, sessionID uuid.UUID, order int) *models.InterviewQuestion {
	keyPoints := make(models.StringList, len(q.ExpectedKeyPoints))
	copy(keyPoints, q.ExpectedKeyPoints)

	return &models.InterviewQuestion{
		ID:                uuid.New(),
		SessionID:         sessionID,
		QuestionText:      q.QuestionText,
		QuestionType:      q.QuestionType,
		Difficulty:        q.Difficulty,
		ExpectedKeyPoints: keyPoints,
		Order:             order,
		IsMandatory:       q.IsMandatory,
		IsCustom:          q.IsCustom,
	}
}

// FlowState implements InterviewEngine.
func (e *interviewEngine) FlowState(sessionID uuid.UUID) (*FlowState, error) {
	session, err := e.interviewRepo.FindSessionByID(sessionID)
	if err != nil {
		return nil, err
	}
	return e.buildFlowState(session), nil
}

func (e *interviewEngine) buildFlowState(session *models.InterviewSession) *FlowState {
	state := &FlowState{
		Session:   session,
		Total:     len(session.Questions),
		Answered:  len(session.Answers),
		Completed: session.Status == models.StatusCompleted,
		Result:    session.Result,
	}
	if !state.Completed {
		state.NextQuestion = nextUnanswered(session)
	}
	return state
}

// nextUnanswered returns the first question by order without an answer.
// This is what makes answer intake strictly sequential.
func nextUnanswered(session *models.InterviewSession) *models.InterviewQuestion {
	answered := make(map[uuid.UUID]bool, len(session.Answers))
	for _, a := range session.Answers {
		answered[a.QuestionID] = true
	}
	for i := range session.Questions {
		if !answered[session.Questions[i].ID] {
			return &session.Questions[i]
		}
	}
	return nil
}

// SubmitAnswer implements InterviewEngine. Records an answer against the
// next unanswered question, and closes the session after the last one.
func (e *interviewEngine) SubmitAnswer(ctx context.Context, sessionID uuid.UUID, answerText string) (*FlowState, error) {
	session, err := e.interviewRepo.FindSessionByID(sessionID)
	if err != nil {
		return nil, err
	}

	// Completed sessions short-circuit: no further writes, ever.
	if session.Status == models.StatusCompleted {
		return e.buildFlowState(session), nil
	}

	question := nextUnanswered(session)
	if question == nil {
		// All answered but not yet marked completed; finish the transition.
		if err := e.finalize(ctx, session); err != nil {
			return nil, err
		}
		return e.FlowState(sessionID)
	}

	evaluation := e.provider.EvaluateAnswer(ctx, question.QuestionText, answerText, question.ExpectedKeyPoints)

	answer := &models.InterviewAnswer{
		ID:           uuid.New(),
		SessionID:    session.ID,
		QuestionID:   question.ID,
		AnswerText:   answerText,
		Score:        ClampScore(evaluation.Score),
		Feedback:     evaluation.Feedback,
		Strengths:    models.StringList(evaluation.Strengths),
		Improvements: models.StringList(evaluation.Improvements),
	}
	if err := e.interviewRepo.CreateAnswer(answer); err != nil {
		if errors.Is(err, repositories.ErrAnswerExists) {
			// Lost a double-submit race; render the current state instead.
			return e.FlowState(sessionID)
		}
		return nil, err
	}

	count, err := e.interviewRepo.CountAnswers(session.ID)
	if err != nil {
		return nil, err
	}
	if int(count) >= len(session.Questions) {
		if err := e.finalize(ctx, session); err != nil {
			return nil, err
		}
	}

	return e.FlowState(sessionID)
}

// finalize computes the provisional average, asks the provider for the
// final report and flips the session to completed exactly once.
func (e *interviewEngine) finalize(ctx context.Context, session *models.InterviewSession) error {
	answers, err := e.interviewRepo.FindAnswersBySession(session.ID)
	if err != nil {
		return err
	}
	if len(answers) == 0 {
		return fmt.Errorf("session %s has no answers to finalize", session.ID)
	}

	byQuestion := make(map[uuid.UUID]*models.InterviewAnswer, len(answers))
	sum := 0
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
		sum += answers[i].Score
	}
	average := float64(sum) / float64(len(answers))

	records := make([]AnswerRecord, 0, len(answers))
	for i := range session.Questions {
		q := &session.Questions[i]
		a, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		records = append(records, AnswerRecord{
			Question: q.QuestionText,
			Answer:   a.AnswerText,
			Score:    a.Score,
			Feedback: a.Feedback,
		})
	}

	candidateName := session.CandidateName
	if candidateName == "" {
		candidateName = "Anonymous"
	}

	report := e.provider.GenerateReport(ctx, ReportInput{
		CandidateName:  candidateName,
		Position:       session.Job.Title,
		TotalQuestions: len(session.Questions),
		AverageScore:   average,
		Answers:        records,
	})

	// The guarded status update decides who owns the transition; only the
	// winner writes the result, so exactly one exists per session.
	if err := e.interviewRepo.CompleteSession(session.ID, e.now()); err != nil {
		log.Printf("⚠️ Session %s already completed, skipping result write\n", session.ID)
		return nil
	}

	result := &models.InterviewResult{
		ID:               uuid.New(),
		SessionID:        session.ID,
		OverallScore:     ClampScore(report.OverallScore),
		Summary:          report.Summary,
		Strengths:        models.StringList(report.Strengths),
		Weaknesses:       models.StringList(report.Weaknesses),
		Recommendation:   models.Recommendation(report.Recommendation),
		DetailedFeedback: report.DetailedFeedback,
	}
	if err := e.interviewRepo.CreateResult(result); err != nil {
		return err
	}

	log.Printf("🏁 Interview %s completed with overall score %d\n", session.ID, result.OverallScore)
	return nil
}

func normalizeQuestionType(value string) models.QuestionType {
	switch models.QuestionType(value) {
	case models.QuestionBehavioral:
		return models.QuestionBehavioral
	case models.QuestionSituational:
		return models.QuestionSituational
	default:
		return models.QuestionTechnical
	}
}

func normalizeDifficulty(value string, fallback models.Difficulty) models.Difficulty {
	switch models.Difficulty(value) {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		return models.Difficulty(value)
	default:
		return fallback
	}
}
