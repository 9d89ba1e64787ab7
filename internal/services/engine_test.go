package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitmate/internal/models"
	"recruitmate/internal/repositories"
	"recruitmate/internal/testhelpers"
)

type stubProvider struct {
	evalScores  []int
	evalCalls   int
	reportScore int
	lastReport  ReportInput
}

func (s *stubProvider) ExtractSkills(ctx context.Context, text string) []string {
	return []string{"Golang"}
}

func (s *stubProvider) GenerateQuestions(ctx context.Context, jobContext, candidateContext string, count int) []GeneratedQuestion {
	questions := make([]GeneratedQuestion, count)
	for i := range questions {
		questions[i] = GeneratedQuestion{
			Question:          fmt.Sprintf("Generated question %d?", i+1),
			Type:              "technical",
			Difficulty:        "easy",
			ExpectedKeyPoints: []string{"point"},
		}
	}
	return questions
}

func (s *stubProvider) EvaluateAnswer(ctx context.Context, question, answer string, expectedKeyPoints []string) AnswerEvaluation {
	score := 50
	if s.evalCalls < len(s.evalScores) {
		score = s.evalScores[s.evalCalls]
	}
	s.evalCalls++
	return AnswerEvaluation{
		Score:    score,
		Feedback: "noted",
	}
}

func (s *stubProvider) GenerateReport(ctx context.Context, input ReportInput) InterviewReport {
	s.lastReport = input
	return InterviewReport{
		OverallScore:   s.reportScore,
		Summary:        "solid interview",
		Recommendation: "maybe",
	}
}

type stubResumeParser struct{}

func (stubResumeParser) ExtractText(filePath string) (string, error) {
	return "resume text", nil
}

func (stubResumeParser) Parse(filePath string) (*ResumeProfile, error) {
	return &ResumeProfile{}, nil
}

func (stubResumeParser) ParseText(text string) *ResumeProfile {
	return &ResumeProfile{}
}

type engineFixture struct {
	engine   *interviewEngine
	provider *stubProvider
	repo     repositories.InterviewRepository
	userID   uuid.UUID
	jobID    uuid.UUID
}

func setupEngine(t *testing.T) *engineFixture {
	t.Helper()
	db := testhelpers.SetupTestDB(t)

	userRepo := repositories.NewUserRepository(db)
	user := &models.User{ID: uuid.New(), Email: t.Name() + "@example.com", PasswordHash: "x", Name: "Recruiter"}
	require.NoError(t, userRepo.Create(user))

	jobRepo := repositories.NewJobRepository(db)
	job := &models.JobPosting{ID: uuid.New(), UserID: user.ID, Title: "Backend Engineer", IsActive: true}
	require.NoError(t, jobRepo.Create(job))

	provider := &stubProvider{reportScore: 75}
	interviewRepo := repositories.NewInterviewRepository(db)
	engine := &interviewEngine{
		interviewRepo: interviewRepo,
		jobRepo:       jobRepo,
		candidateRepo: repositories.NewCandidateRepository(db),
		provider:      provider,
		resumeParser:  stubResumeParser{},
		promptBuilder: NewPromptBuilder(),
		now:           time.Now,
	}

	return &engineFixture{
		engine:   engine,
		provider: provider,
		repo:     interviewRepo,
		userID:   user.ID,
		jobID:    job.ID,
	}
}

func (f *engineFixture) createLink(t *testing.T, params LinkParams) *models.InterviewSession {
	t.Helper()
	if params.JobID == uuid.Nil {
		params.JobID = f.jobID
	}
	session, err := f.engine.CreateLink(context.Background(), f.userID, params)
	require.NoError(t, err)
	return session
}

func (f *engineFixture) register(t *testing.T, masterToken uuid.UUID) *models.InterviewSession {
	t.Helper()
	attempt, err := f.engine.Register(context.Background(), masterToken, Registration{
		Name:       "Ada",
		Email:      "ada@example.com",
		ResumeFile: "/tmp/resume.pdf",
	})
	require.NoError(t, err)
	return attempt
}

func TestCreateLinkBuildsOrderedQuestionSet(t *testing.T) {
	f := setupEngine(t)

	session := f.createLink(t, LinkParams{
		NumQuestions: 5,
		Difficulty:   models.DifficultyHard,
		CustomQuestions: []CustomQuestion{
			{Text: "Why us?", Type: "behavioral"},
			{Text: "Describe a hard bug.", Type: "technical", Difficulty: "easy"},
		},
	})

	assert.Equal(t, models.StatusPending, session.Status)
	assert.Nil(t, session.MasterID)
	assert.NotEqual(t, uuid.Nil, session.Token)
	require.Len(t, session.Questions, 5)

	for i, q := range session.Questions {
		assert.Equal(t, i+1, q.Order)
	}

	assert.True(t, session.Questions[0].IsCustom)
	assert.True(t, session.Questions[0].IsMandatory)
	assert.Equal(t, "Why us?", session.Questions[0].QuestionText)
	assert.Equal(t, models.QuestionBehavioral, session.Questions[0].QuestionType)
	assert.True(t, session.Questions[1].IsCustom)

	for _, q := range session.Questions[2:] {
		assert.False(t, q.IsCustom)
		assert.False(t, q.IsMandatory)
		// Fixed difficulty policy overrides the generated value.
		assert.Equal(t, models.DifficultyHard, q.Difficulty)
	}
}

func TestCreateLinkMixedKeepsGeneratedDifficulty(t *testing.T) {
	f := setupEngine(t)

	session := f.createLink(t, LinkParams{
		NumQuestions: 3,
		Difficulty:   models.DifficultyMixed,
	})

	require.Len(t, session.Questions, 3)
	for _, q := range session.Questions {
		assert.Equal(t, models.DifficultyEasy, q.Difficulty)
	}
}

func TestRegisterSpawnsIndependentAttempt(t *testing.T) {
	f := setupEngine(t)
	master := f.createLink(t, LinkParams{
		NumQuestions: 4,
		CustomQuestions: []CustomQuestion{
			{Text: "Why us?"},
		},
	})

	attempt := f.register(t, master.Token)

	assert.Equal(t, models.StatusInProgress, attempt.Status)
	require.NotNil(t, attempt.MasterID)
	assert.Equal(t, master.ID, *attempt.MasterID)
	assert.NotNil(t, attempt.StartedAt)
	assert.NotEqual(t, master.Token, attempt.Token)
	assert.Equal(t, master.ExpiresAt.Unix(), attempt.ExpiresAt.Unix())

	require.Len(t, attempt.Questions, len(master.Questions))
	masterIDs := make(map[uuid.UUID]bool)
	for _, q := range master.Questions {
		masterIDs[q.ID] = true
	}
	for i, q := range attempt.Questions {
		assert.Equal(t, i+1, q.Order)
		assert.False(t, masterIDs[q.ID], "attempt must own copies, not the master's rows")
		assert.Equal(t, attempt.ID, q.SessionID)
	}
	assert.Equal(t, "Why us?", attempt.Questions[0].QuestionText)
	assert.True(t, attempt.Questions[0].IsCustom)

	// The copy is a snapshot: the master's text can change without
	// touching the attempt.
	assert.Equal(t, master.Questions[1].QuestionText, attempt.Questions[1].QuestionText)
}

func TestRegisterRequiresResume(t *testing.T) {
	f := setupEngine(t)
	master := f.createLink(t, LinkParams{NumQuestions: 2})

	_, err := f.engine.Register(context.Background(), master.Token, Registration{
		Name:  "Ada",
		Email: "ada@example.com",
	})
	assert.ErrorIs(t, err, ErrResumeRequired)
}

func TestLookupMasterGate(t *testing.T) {
	f := setupEngine(t)
	master := f.createLink(t, LinkParams{NumQuestions: 2})

	// Expired link
	f.engine.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	_, err := f.engine.LookupMaster(master.Token)
	assert.ErrorIs(t, err, ErrLinkUnavailable)

	// Deactivated link
	f.engine.now = time.Now
	require.NoError(t, f.repo.UpdateSessionStatus(master.ID, models.StatusAbandoned))
	_, err = f.engine.LookupMaster(master.Token)
	assert.ErrorIs(t, err, ErrLinkUnavailable)

	// Attempt tokens never resolve as links
	require.NoError(t, f.repo.UpdateSessionStatus(master.ID, models.StatusPending))
	attempt := f.register(t, master.Token)
	_, err = f.engine.LookupMaster(attempt.Token)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestSubmitAnswerWalksQuestionsInOrder(t *testing.T) {
	f := setupEngine(t)
	f.provider.evalScores = []int{80, 60, 70}
	master := f.createLink(t, LinkParams{NumQuestions: 3})
	attempt := f.register(t, master.Token)

	state, err := f.engine.SubmitAnswer(context.Background(), attempt.ID, "first answer")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Answered)
	require.NotNil(t, state.NextQuestion)
	assert.Equal(t, 2, state.NextQuestion.Order)
	assert.False(t, state.Completed)

	state, err = f.engine.SubmitAnswer(context.Background(), attempt.ID, "second answer")
	require.NoError(t, err)
	assert.Equal(t, 2, state.Answered)

	state, err = f.engine.SubmitAnswer(context.Background(), attempt.ID, "third answer")
	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Nil(t, state.NextQuestion)
	require.NotNil(t, state.Result)
	assert.Equal(t, 75, state.Result.OverallScore)
	assert.Equal(t, models.StatusCompleted, state.Session.Status)
	assert.NotNil(t, state.Session.CompletedAt)

	// The report saw the running average of the recorded scores.
	assert.InDelta(t, 70.0, f.provider.lastReport.AverageScore, 0.001)
	assert.Equal(t, "Ada", f.provider.lastReport.CandidateName)

	answers, err := f.repo.FindAnswersBySession(attempt.ID)
	require.NoError(t, err)
	require.Len(t, answers, 3)
	assert.Equal(t, attempt.Questions[0].ID, answers[0].QuestionID)
	assert.Equal(t, 80, answers[0].Score)
}

func TestSubmitAnswerAfterCompletionIsInert(t *testing.T) {
	f := setupEngine(t)
	master := f.createLink(t, LinkParams{NumQuestions: 1})
	attempt := f.register(t, master.Token)

	state, err := f.engine.SubmitAnswer(context.Background(), attempt.ID, "only answer")
	require.NoError(t, err)
	require.True(t, state.Completed)

	state, err = f.engine.SubmitAnswer(context.Background(), attempt.ID, "late answer")
	require.NoError(t, err)
	assert.True(t, state.Completed)

	count, err := f.repo.CountAnswers(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	result, err := f.repo.FindResultBySession(attempt.ID)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestSubmitAnswerClampsScores(t *testing.T) {
	f := setupEngine(t)
	f.provider.evalScores = []int{150}
	master := f.createLink(t, LinkParams{NumQuestions: 2})
	attempt := f.register(t, master.Token)

	_, err := f.engine.SubmitAnswer(context.Background(), attempt.ID, "overachieving answer")
	require.NoError(t, err)

	answers, err := f.repo.FindAnswersBySession(attempt.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, 100, answers[0].Score)
}

func TestAnonymousCandidateNameInReport(t *testing.T) {
	f := setupEngine(t)
	master := f.createLink(t, LinkParams{NumQuestions: 1})

	attempt, err := f.engine.Register(context.Background(), master.Token, Registration{
		Email:      "ghost@example.com",
		ResumeFile: "/tmp/resume.pdf",
	})
	require.NoError(t, err)

	_, err = f.engine.SubmitAnswer(context.Background(), attempt.ID, "answer")
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", f.provider.lastReport.CandidateName)
}

func TestCreateLinkUnknownJob(t *testing.T) {
	f := setupEngine(t)

	_, err := f.engine.CreateLink(context.Background(), f.userID, LinkParams{
		JobID:        uuid.New(),
		NumQuestions: 3,
	})
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}
