package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitmate/internal/middleware"
	"recruitmate/internal/models"
	"recruitmate/internal/repositories"
	"recruitmate/internal/services"
)

const testCookieSecret = "test-cookie-secret"

// fakeEngine keeps one master and one attempt in memory, enough to drive
// the public flow handler.
type fakeEngine struct {
	master   *models.InterviewSession
	attempt  *models.InterviewSession
	answered int
}

func newFakeEngine() *fakeEngine {
	masterID := uuid.New()
	return &fakeEngine{
		master: &models.InterviewSession{
			ID:        masterID,
			Token:     uuid.New(),
			Status:    models.StatusPending,
			ExpiresAt: time.Now().Add(24 * time.Hour),
			Job:       models.JobPosting{Title: "Backend Engineer"},
			Questions: []models.InterviewQuestion{
				{ID: uuid.New(), QuestionText: "Q1?", Order: 1},
				{ID: uuid.New(), QuestionText: "Q2?", Order: 2},
			},
		},
	}
}

func (e *fakeEngine) CreateLink(ctx context.Context, userID uuid.UUID, params services.LinkParams) (*models.InterviewSession, error) {
	return e.master, nil
}

func (e *fakeEngine) LookupMaster(token uuid.UUID) (*models.InterviewSession, error) {
	if token != e.master.Token {
		return nil, fmt.Errorf("session token %s: %w", token, repositories.ErrNotFound)
	}
	if e.master.Status == models.StatusAbandoned {
		return nil, services.ErrLinkUnavailable
	}
	return e.master, nil
}

func (e *fakeEngine) Register(ctx context.Context, masterToken uuid.UUID, reg services.Registration) (*models.InterviewSession, error) {
	if _, err := e.LookupMaster(masterToken); err != nil {
		return nil, err
	}
	now := time.Now()
	e.attempt = &models.InterviewSession{
		ID:            uuid.New(),
		Token:         uuid.New(),
		MasterID:      &e.master.ID,
		Status:        models.StatusInProgress,
		StartedAt:     &now,
		ExpiresAt:     e.master.ExpiresAt,
		CandidateName: reg.Name,
		Job:           e.master.Job,
		Questions:     e.master.Questions,
	}
	return e.attempt, nil
}

func (e *fakeEngine) FlowState(sessionID uuid.UUID) (*services.FlowState, error) {
	if e.attempt == nil || sessionID != e.attempt.ID {
		return nil, fmt.Errorf("session %s: %w", sessionID, repositories.ErrNotFound)
	}
	state := &services.FlowState{
		Session:   e.attempt,
		Answered:  e.answered,
		Total:     len(e.attempt.Questions),
		Completed: e.answered >= len(e.attempt.Questions),
	}
	if !state.Completed {
		state.NextQuestion = &e.attempt.Questions[e.answered]
	}
	return state, nil
}

func (e *fakeEngine) SubmitAnswer(ctx context.Context, sessionID uuid.UUID, answerText string) (*services.FlowState, error) {
	if e.attempt == nil || sessionID != e.attempt.ID {
		return nil, fmt.Errorf("session %s: %w", sessionID, repositories.ErrNotFound)
	}
	if e.answered < len(e.attempt.Questions) {
		e.answered++
	}
	return e.FlowState(sessionID)
}

type fakeStorage struct {
	saved   int
	deleted int
}

func (s *fakeStorage) SaveFile(file *multipart.FileHeader, prefix string) (string, string, error) {
	s.saved++
	name := fmt.Sprintf("%s_%d.pdf", prefix, s.saved)
	return name, "/uploads/" + name, nil
}

func (s *fakeStorage) GetFilePath(filename string) string { return "/uploads/" + filename }

func (s *fakeStorage) DeleteFile(filename string) error {
	s.deleted++
	return nil
}

func (s *fakeStorage) EnsureUploadDir() error { return nil }

type fakeWorker struct {
	enqueued []uuid.UUID
}

func (w *fakeWorker) Start(ctx context.Context) {}

func (w *fakeWorker) Stop() {}

func (w *fakeWorker) EnqueueAttempt(sessionID uuid.UUID) {
	w.enqueued = append(w.enqueued, sessionID)
}

type publicFixture struct {
	app     *fiber.App
	engine  *fakeEngine
	worker  *fakeWorker
	storage *fakeStorage
}

func setupPublicApp(t *testing.T) *publicFixture {
	t.Helper()
	engine := newFakeEngine()
	worker := &fakeWorker{}
	storage := &fakeStorage{}
	handler := NewPublicHandler(engine, storage, worker, testCookieSecret, 1<<20)

	app := fiber.New()
	app.Get("/interview/:token", handler.HandleEntry)
	app.Post("/interview/:token/register", handler.HandleRegister)
	app.Post("/interview/:token/answer", handler.HandleAnswer)

	return &publicFixture{app: app, engine: engine, worker: worker, storage: storage}
}

func registrationForm(t *testing.T, name, email string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("name", name))
	require.NoError(t, writer.WriteField("email", email))
	part, err := writer.CreateFormFile("resume", "resume.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func attemptCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, cookie := range resp.Cookies() {
		if len(cookie.Name) > len("interview_attempt_") && cookie.Name[:len("interview_attempt_")] == "interview_attempt_" {
			return cookie
		}
	}
	t.Fatal("attempt cookie not set")
	return nil
}

func TestEntryBeforeRegistration(t *testing.T) {
	f := setupPublicApp(t)

	req := httptest.NewRequest("GET", "/interview/"+f.engine.master.Token.String(), nil)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Registered     bool   `json:"registered"`
		JobTitle       string `json:"job_title"`
		TotalQuestions int    `json:"total_questions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Registered)
	assert.Equal(t, "Backend Engineer", body.JobTitle)
	assert.Equal(t, 2, body.TotalQuestions)
}

func TestEntryUnknownToken(t *testing.T) {
	f := setupPublicApp(t)

	resp, err := f.app.Test(httptest.NewRequest("GET", "/interview/"+uuid.New().String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestEntryDeactivatedLink(t *testing.T) {
	f := setupPublicApp(t)
	f.engine.master.Status = models.StatusAbandoned

	resp, err := f.app.Test(httptest.NewRequest("GET", "/interview/"+f.engine.master.Token.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusGone, resp.StatusCode)
}

func TestRegisterSetsCookieAndEnqueuesIndexing(t *testing.T) {
	f := setupPublicApp(t)
	tokenPath := "/interview/" + f.engine.master.Token.String()

	body, contentType := registrationForm(t, "Ada", "ada@example.com")
	req := httptest.NewRequest("POST", tokenPath+"/register", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	cookie := attemptCookie(t, resp)
	attemptID, err := middleware.ParseAttemptCookie(cookie.Value, f.engine.master.Token, testCookieSecret)
	require.NoError(t, err)
	assert.Equal(t, f.engine.attempt.ID, attemptID)

	require.Len(t, f.worker.enqueued, 1)
	assert.Equal(t, f.engine.attempt.ID, f.worker.enqueued[0])
	assert.Equal(t, 1, f.storage.saved)

	// A revisit with the cookie resumes instead of showing the gate.
	entry := httptest.NewRequest("GET", tokenPath, nil)
	entry.AddCookie(cookie)
	resp, err = f.app.Test(entry)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var entryBody struct {
		Registered bool `json:"registered"`
		State      struct {
			Total int `json:"total"`
		} `json:"state"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entryBody))
	assert.True(t, entryBody.Registered)
	assert.Equal(t, 2, entryBody.State.Total)
}

func TestRegisterWithoutResume(t *testing.T) {
	f := setupPublicApp(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("name", "Ada"))
	require.NoError(t, writer.WriteField("email", "ada@example.com"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/interview/"+f.engine.master.Token.String()+"/register", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAnswerRequiresCookie(t *testing.T) {
	f := setupPublicApp(t)

	payload, _ := json.Marshal(models.AnswerRequest{Answer: "my answer"})
	req := httptest.NewRequest("POST", "/interview/"+f.engine.master.Token.String()+"/answer", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAnswerRejectsCookieIssuedForAnotherLink(t *testing.T) {
	f := setupPublicApp(t)

	attempt, err := f.engine.Register(context.Background(), f.engine.master.Token, services.Registration{
		Name:  "Ada",
		Email: "ada@example.com",
	})
	require.NoError(t, err)

	// Cookie signed for a different link, renamed to this link's cookie.
	// It must be rejected before any answer is recorded.
	foreign, err := middleware.SignAttemptCookie(attempt.ID, uuid.New(), testCookieSecret, time.Now().Add(time.Hour))
	require.NoError(t, err)

	payload, _ := json.Marshal(models.AnswerRequest{Answer: "my answer"})
	req := httptest.NewRequest("POST", "/interview/"+f.engine.master.Token.String()+"/answer", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{
		Name:  middleware.AttemptCookieName(f.engine.master.Token),
		Value: foreign,
	})

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, f.engine.answered)
}

func TestAnswerChecksOwnershipBeforeWriting(t *testing.T) {
	f := setupPublicApp(t)

	attempt, err := f.engine.Register(context.Background(), f.engine.master.Token, services.Registration{
		Name:  "Ada",
		Email: "ada@example.com",
	})
	require.NoError(t, err)

	// Attempt re-parented under another master: even a cookie that verifies
	// for this link must not record an answer on it.
	otherMaster := uuid.New()
	attempt.MasterID = &otherMaster

	value, err := middleware.SignAttemptCookie(attempt.ID, f.engine.master.Token, testCookieSecret, time.Now().Add(time.Hour))
	require.NoError(t, err)

	payload, _ := json.Marshal(models.AnswerRequest{Answer: "my answer"})
	req := httptest.NewRequest("POST", "/interview/"+f.engine.master.Token.String()+"/answer", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{
		Name:  middleware.AttemptCookieName(f.engine.master.Token),
		Value: value,
	})

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, f.engine.answered)
}

func TestAnswerFlowToCompletion(t *testing.T) {
	f := setupPublicApp(t)
	tokenPath := "/interview/" + f.engine.master.Token.String()

	body, contentType := registrationForm(t, "Ada", "ada@example.com")
	register := httptest.NewRequest("POST", tokenPath+"/register", body)
	register.Header.Set("Content-Type", contentType)
	resp, err := f.app.Test(register)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	cookie := attemptCookie(t, resp)

	submit := func() map[string]json.RawMessage {
		payload, _ := json.Marshal(models.AnswerRequest{Answer: "my answer"})
		req := httptest.NewRequest("POST", tokenPath+"/answer", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(cookie)

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var parsed map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
		return parsed
	}

	first := submit()
	var state struct {
		Answered  int  `json:"answered"`
		Completed bool `json:"completed"`
	}
	require.NoError(t, json.Unmarshal(first["state"], &state))
	assert.Equal(t, 1, state.Answered)
	assert.False(t, state.Completed)

	second := submit()
	require.NoError(t, json.Unmarshal(second["state"], &state))
	assert.Equal(t, 2, state.Answered)
	assert.True(t, state.Completed)
}

func TestAnswerRejectsEmptyAnswer(t *testing.T) {
	f := setupPublicApp(t)
	tokenPath := "/interview/" + f.engine.master.Token.String()

	body, contentType := registrationForm(t, "Ada", "ada@example.com")
	register := httptest.NewRequest("POST", tokenPath+"/register", body)
	register.Header.Set("Content-Type", contentType)
	resp, err := f.app.Test(register)
	require.NoError(t, err)
	cookie := attemptCookie(t, resp)

	payload, _ := json.Marshal(models.AnswerRequest{Answer: "   "})
	req := httptest.NewRequest("POST", tokenPath+"/answer", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)

	resp, err = f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
