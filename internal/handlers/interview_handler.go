package handlers

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"recruitmate/internal/middleware"
	"recruitmate/internal/models"
	"recruitmate/internal/repositories"
	"recruitmate/internal/services"
)

const defaultQuestionCount = 5

type InterviewHandler struct {
	interviewRepo repositories.InterviewRepository
	candidateRepo repositories.CandidateRepository
	jobRepo       repositories.JobRepository
	engine        services.InterviewEngine
	matcher       services.ResumeMatcher
	resumeIndex   services.ResumeIndex
}

func NewInterviewHandler(
	interviewRepo repositories.InterviewRepository,
	candidateRepo repositories.CandidateRepository,
	jobRepo repositories.JobRepository,
	engine services.InterviewEngine,
	matcher services.ResumeMatcher,
	resumeIndex services.ResumeIndex,
) *InterviewHandler {
	return &InterviewHandler{
		interviewRepo: interviewRepo,
		candidateRepo: candidateRepo,
		jobRepo:       jobRepo,
		engine:        engine,
		matcher:       matcher,
		resumeIndex:   resumeIndex,
	}
}

// HandleCreateLink handles POST /interviews/links
func (h *InterviewHandler) HandleCreateLink(c *fiber.Ctx) error {
	var req models.CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid job_id format",
		})
	}

	var candidateID *uuid.UUID
	if req.CandidateID != "" {
		id, err := uuid.Parse(req.CandidateID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid candidate_id format",
			})
		}
		candidateID = &id
	}

	numQuestions := req.NumQuestions
	if numQuestions <= 0 {
		numQuestions = defaultQuestionCount
	}
	if numQuestions > 20 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "num_questions must be 20 or fewer",
		})
	}

	custom := make([]services.CustomQuestion, 0, len(req.CustomQuestions))
	for _, q := range req.CustomQuestions {
		custom = append(custom, services.CustomQuestion{
			Text:       q.QuestionText,
			Type:       q.QuestionType,
			Difficulty: q.Difficulty,
		})
	}

	session, err := h.engine.CreateLink(c.UserContext(), middleware.UserID(c), services.LinkParams{
		JobID:           jobID,
		CandidateID:     candidateID,
		NumQuestions:    numQuestions,
		Difficulty:      models.Difficulty(req.DifficultyLevel),
		CustomQuestions: custom,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Job posting or candidate not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create interview link",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// HandleListLinks handles GET /interviews/links
func (h *InterviewHandler) HandleListLinks(c *fiber.Ctx) error {
	masters, err := h.interviewRepo.FindMasterSessions(middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list interview links",
		})
	}

	type linkView struct {
		models.InterviewSession
		Stats models.LinkStats `json:"stats"`
	}

	links := make([]linkView, 0, len(masters))
	for i := range masters {
		attempts, err := h.interviewRepo.FindAttemptsByMaster(masters[i].ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load link stats",
			})
		}
		links = append(links, linkView{
			InterviewSession: masters[i],
			Stats:            linkStats(attempts),
		})
	}

	return c.JSON(fiber.Map{"links": links})
}

// HandleListSessions handles GET /interviews/sessions
func (h *InterviewHandler) HandleListSessions(c *fiber.Ctx) error {
	status := models.SessionStatus(c.Query("status"))
	switch status {
	case "", models.StatusInProgress, models.StatusCompleted, models.StatusAbandoned:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status filter",
		})
	}

	sessions, err := h.interviewRepo.FindSessionsByUser(middleware.UserID(c), status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list sessions",
		})
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

// HandleGetSession handles GET /interviews/sessions/:id. Completed attempts
// include the per-type score partition alongside the stored result.
func (h *InterviewHandler) HandleGetSession(c *fiber.Ctx) error {
	session, ok := h.findOwned(c)
	if !ok {
		return nil
	}

	return c.JSON(fiber.Map{
		"session":     session,
		"type_scores": services.ComputeTypeScores(session.Questions, session.Answers),
	})
}

// HandleToggleLink handles POST /interviews/links/:id/toggle. Abandoning a
// master session closes the link; toggling back reopens it.
func (h *InterviewHandler) HandleToggleLink(c *fiber.Ctx) error {
	session, ok := h.findOwned(c)
	if !ok {
		return nil
	}
	if !session.IsMaster() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only interview links can be toggled",
		})
	}

	next := models.StatusAbandoned
	if session.Status == models.StatusAbandoned {
		next = models.StatusPending
	}
	if err := h.interviewRepo.UpdateSessionStatus(session.ID, next); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update link status",
		})
	}

	session.Status = next
	return c.JSON(session)
}

// HandleDeleteSession handles DELETE /interviews/sessions/:id. Deleting a
// master session removes its attempts too.
func (h *InterviewHandler) HandleDeleteSession(c *fiber.Ctx) error {
	session, ok := h.findOwned(c)
	if !ok {
		return nil
	}

	if session.IsMaster() {
		attempts, err := h.interviewRepo.FindAttemptsByMaster(session.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete interview",
			})
		}
		for i := range attempts {
			h.removeSession(c, &attempts[i])
		}
	}
	if err := h.removeSession(c, session); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete interview",
		})
	}

	return c.JSON(fiber.Map{"message": "Interview deleted"})
}

func (h *InterviewHandler) removeSession(c *fiber.Ctx, session *models.InterviewSession) error {
	if err := h.interviewRepo.DeleteSession(session.ID); err != nil {
		return err
	}
	// Index cleanup is best effort; a stale vector only costs a hit that
	// points at a missing session.
	if session.ResumeIndexed {
		if err := h.resumeIndex.DeleteSession(c.UserContext(), session.ID.String()); err != nil {
			log.Printf("⚠️ Failed to remove session %s from resume index: %v\n", session.ID, err)
		}
	}
	return nil
}

// HandleLinkCandidates handles GET /interviews/links/:id/candidates
func (h *InterviewHandler) HandleLinkCandidates(c *fiber.Ctx) error {
	session, ok := h.findOwned(c)
	if !ok {
		return nil
	}
	if !session.IsMaster() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Session is not an interview link",
		})
	}

	attempts, err := h.interviewRepo.FindAttemptsByMaster(session.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list link candidates",
		})
	}

	return c.JSON(fiber.Map{
		"candidates": attempts,
		"stats":      linkStats(attempts),
	})
}

// HandleCandidateRollup handles GET /interviews/candidates
func (h *InterviewHandler) HandleCandidateRollup(c *fiber.Ctx) error {
	attempts, err := h.interviewRepo.FindAttemptsByUser(middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load candidates",
		})
	}
	return c.JSON(fiber.Map{"candidates": services.RollupCandidates(attempts)})
}

// HandleCandidateProfile handles GET /interviews/candidates/profile?email=
func (h *InterviewHandler) HandleCandidateProfile(c *fiber.Ctx) error {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email is required",
		})
	}

	attempts, err := h.interviewRepo.FindAttemptsByEmail(middleware.UserID(c), email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load candidate profile",
		})
	}
	if len(attempts) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No interviews found for this candidate",
		})
	}

	summaries := services.RollupCandidates(attempts)
	return c.JSON(fiber.Map{
		"summary":    summaries[0],
		"interviews": attempts,
	})
}

// HandleSimilarCandidates handles GET /interviews/sessions/:id/similar
func (h *InterviewHandler) HandleSimilarCandidates(c *fiber.Ctx) error {
	session, ok := h.findOwned(c)
	if !ok {
		return nil
	}

	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 50 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid limit",
			})
		}
		limit = parsed
	}

	similar, err := h.matcher.SimilarCandidates(c.UserContext(), session.ID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to search similar candidates",
		})
	}
	return c.JSON(fiber.Map{"similar": similar})
}

// HandleDashboard handles GET /interviews/dashboard
func (h *InterviewHandler) HandleDashboard(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	attempts, err := h.interviewRepo.FindAttemptsByUser(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load dashboard",
		})
	}

	stats := models.DashboardStats{
		TotalInterviews: len(attempts),
	}
	scoreSum := 0
	scored := 0
	for i := range attempts {
		switch attempts[i].Status {
		case models.StatusCompleted:
			stats.Completed++
			if attempts[i].Result != nil {
				scoreSum += attempts[i].Result.OverallScore
				scored++
			}
		case models.StatusInProgress:
			stats.InProgress++
		}
	}
	if scored > 0 {
		stats.AvgScore = float64(scoreSum) / float64(scored)
	}
	if stats.TotalInterviews > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.TotalInterviews) * 100
	}

	if stats.TotalCandidates, err = h.candidateRepo.Count(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load dashboard",
		})
	}
	if stats.TotalJobs, err = h.jobRepo.CountByUser(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load dashboard",
		})
	}

	return c.JSON(stats)
}

func linkStats(attempts []models.InterviewSession) models.LinkStats {
	stats := models.LinkStats{TotalCandidates: len(attempts)}
	for i := range attempts {
		switch attempts[i].Status {
		case models.StatusCompleted:
			stats.Completed++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusAbandoned:
			stats.Abandoned++
		}
	}
	return stats
}

// findOwned loads the session named by the :id param, scoped to the caller.
// On failure it writes the error response and reports false.
func (h *InterviewHandler) findOwned(c *fiber.Ctx) (*models.InterviewSession, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session ID format",
		})
		return nil, false
	}

	session, err := h.interviewRepo.FindOwnedSessionByID(id, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		} else {
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load session",
			})
		}
		return nil, false
	}
	return session, true
}
