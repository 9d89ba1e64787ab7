package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"recruitmate/internal/middleware"
	"recruitmate/internal/models"
	"recruitmate/internal/repositories"
	"recruitmate/internal/services"
)

// PublicHandler serves the unauthenticated candidate flow. The link token is
// the only credential; a signed cookie binds the browser to its attempt so a
// revisit resumes instead of restarting.
type PublicHandler struct {
	engine         services.InterviewEngine
	storageService services.StorageService
	worker         services.Worker
	cookieSecret   string
	maxFileSize    int64
}

func NewPublicHandler(
	engine services.InterviewEngine,
	storageService services.StorageService,
	worker services.Worker,
	cookieSecret string,
	maxFileSize int64,
) *PublicHandler {
	return &PublicHandler{
		engine:         engine,
		storageService: storageService,
		worker:         worker,
		cookieSecret:   cookieSecret,
		maxFileSize:    maxFileSize,
	}
}

// publicQuestion is the candidate-facing question view. Expected key points
// never leave the server.
type publicQuestion struct {
	ID           uuid.UUID           `json:"id"`
	QuestionText string              `json:"question_text"`
	QuestionType models.QuestionType `json:"question_type"`
	Difficulty   models.Difficulty   `json:"difficulty"`
	Order        int                 `json:"order"`
}

type publicState struct {
	JobTitle     string               `json:"job_title"`
	Company      string               `json:"company,omitempty"`
	Status       models.SessionStatus `json:"status"`
	Answered     int                  `json:"answered"`
	Total        int                  `json:"total"`
	Completed    bool                 `json:"completed"`
	NextQuestion *publicQuestion      `json:"next_question,omitempty"`
	LastFeedback string               `json:"last_feedback,omitempty"`
}

func toPublicState(state *services.FlowState) publicState {
	view := publicState{
		JobTitle:  state.Session.Job.Title,
		Status:    state.Session.Status,
		Answered:  state.Answered,
		Total:     state.Total,
		Completed: state.Completed,
	}
	if state.NextQuestion != nil {
		view.NextQuestion = &publicQuestion{
			ID:           state.NextQuestion.ID,
			QuestionText: state.NextQuestion.QuestionText,
			QuestionType: state.NextQuestion.QuestionType,
			Difficulty:   state.NextQuestion.Difficulty,
			Order:        state.NextQuestion.Order,
		}
	}
	if n := len(state.Session.Answers); n > 0 {
		view.LastFeedback = state.Session.Answers[n-1].Feedback
	}
	return view
}

// HandleEntry handles GET /interview/:token. A returning browser resumes
// its attempt; a fresh one sees the registration gate.
func (h *PublicHandler) HandleEntry(c *fiber.Ctx) error {
	master, ok := h.gate(c)
	if !ok {
		return nil
	}

	if attemptID, found := h.attemptFromCookie(c, master.Token); found {
		state, err := h.engine.FlowState(attemptID)
		if err == nil && state.Session.MasterID != nil && *state.Session.MasterID == master.ID {
			return c.JSON(fiber.Map{
				"registered": true,
				"state":      toPublicState(state),
			})
		}
		// Cookie points at a gone or foreign attempt; fall through to
		// registration.
	}

	return c.JSON(fiber.Map{
		"registered":      false,
		"job_title":       master.Job.Title,
		"total_questions": len(master.Questions),
		"expires_at":      master.ExpiresAt,
	})
}

// HandleRegister handles POST /interview/:token/register. Multipart form
// with name, email, phone fields and a mandatory resume PDF.
func (h *PublicHandler) HandleRegister(c *fiber.Ctx) error {
	master, ok := h.gate(c)
	if !ok {
		return nil
	}

	if attemptID, found := h.attemptFromCookie(c, master.Token); found {
		// Already registered in this browser; resume instead of forking a
		// second attempt.
		state, err := h.engine.FlowState(attemptID)
		if err == nil && state.Session.MasterID != nil && *state.Session.MasterID == master.ID {
			return c.JSON(fiber.Map{
				"registered": true,
				"state":      toPublicState(state),
			})
		}
	}

	name := strings.TrimSpace(c.FormValue("name"))
	email := strings.TrimSpace(c.FormValue("email"))
	if name == "" || email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name and email are required",
		})
	}

	file, err := c.FormFile("resume")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "resume file is required",
		})
	}
	if file.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Resume file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	filename, filePath, err := h.storageService.SaveFile(file, "resume")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save resume file: %v", err),
		})
	}

	attempt, err := h.engine.Register(c.UserContext(), master.Token, services.Registration{
		Name:       name,
		Email:      email,
		Phone:      strings.TrimSpace(c.FormValue("phone")),
		ResumeFile: filePath,
	})
	if err != nil {
		h.storageService.DeleteFile(filename)
		if errors.Is(err, services.ErrLinkUnavailable) {
			return c.Status(fiber.StatusGone).JSON(fiber.Map{
				"error": "This interview link is no longer available",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start interview",
		})
	}

	cookieValue, err := middleware.SignAttemptCookie(attempt.ID, master.Token, h.cookieSecret, attempt.ExpiresAt)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start interview",
		})
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AttemptCookieName(master.Token),
		Value:    cookieValue,
		Expires:  attempt.ExpiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	h.worker.EnqueueAttempt(attempt.ID)

	state, err := h.engine.FlowState(attempt.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load interview state",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"registered": true,
		"state":      toPublicState(state),
	})
}

// HandleAnswer handles POST /interview/:token/answer. Answers always land
// on the next unanswered question in order.
func (h *PublicHandler) HandleAnswer(c *fiber.Ctx) error {
	master, ok := h.gate(c)
	if !ok {
		return nil
	}

	attemptID, found := h.attemptFromCookie(c, master.Token)
	if !found {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Register before answering",
		})
	}

	var req models.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if strings.TrimSpace(req.Answer) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "answer is required",
		})
	}

	// Ownership is checked before anything is written: the attempt must be
	// a child of the gated master.
	current, err := h.engine.FlowState(attemptID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Interview not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record answer",
		})
	}
	if current.Session.MasterID == nil || *current.Session.MasterID != master.ID {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Interview does not belong to this link",
		})
	}

	state, err := h.engine.SubmitAnswer(c.UserContext(), attemptID, req.Answer)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Interview not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record answer",
		})
	}

	return c.JSON(fiber.Map{"state": toPublicState(state)})
}

// gate resolves the :token param to an open master session. On failure it
// writes the error response and reports false.
func (h *PublicHandler) gate(c *fiber.Ctx) (*models.InterviewSession, bool) {
	token, err := uuid.Parse(c.Params("token"))
	if err != nil {
		c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Interview not found",
		})
		return nil, false
	}

	master, err := h.engine.LookupMaster(token)
	if err != nil {
		if errors.Is(err, services.ErrLinkUnavailable) {
			c.Status(fiber.StatusGone).JSON(fiber.Map{
				"error": "This interview link is no longer available",
			})
		} else {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Interview not found",
			})
		}
		return nil, false
	}
	return master, true
}

func (h *PublicHandler) attemptFromCookie(c *fiber.Ctx, masterToken uuid.UUID) (uuid.UUID, bool) {
	raw := c.Cookies(middleware.AttemptCookieName(masterToken))
	if raw == "" {
		return uuid.Nil, false
	}
	attemptID, err := middleware.ParseAttemptCookie(raw, masterToken, h.cookieSecret)
	if err != nil {
		return uuid.Nil, false
	}
	return attemptID, true
}
