package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"recruitmate/internal/middleware"
	"recruitmate/internal/models"
	"recruitmate/internal/repositories"
	"recruitmate/internal/services"
)

type JobHandler struct {
	jobRepo  repositories.JobRepository
	provider services.QuestionProvider
}

func NewJobHandler(jobRepo repositories.JobRepository, provider services.QuestionProvider) *JobHandler {
	return &JobHandler{
		jobRepo:  jobRepo,
		provider: provider,
	}
}

// HandleCreate handles POST /jobs
func (h *JobHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.JobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title is required",
		})
	}

	job := &models.JobPosting{
		ID:              uuid.New(),
		UserID:          middleware.UserID(c),
		Title:           req.Title,
		Description:     req.Description,
		Requirements:    req.Requirements,
		Location:        req.Location,
		EmploymentType:  req.EmploymentType,
		ExperienceLevel: req.ExperienceLevel,
		SalaryRange:     req.SalaryRange,
		IsActive:        true,
	}
	job.Skills = models.StringList(h.provider.ExtractSkills(c.UserContext(), req.Description+"\n"+req.Requirements))

	if err := h.jobRepo.Create(job); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create job posting",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(job)
}

// HandleList handles GET /jobs
func (h *JobHandler) HandleList(c *fiber.Ctx) error {
	var (
		jobs []models.JobPosting
		err  error
	)
	if c.Query("active") == "true" {
		jobs, err = h.jobRepo.FindActiveByUser(middleware.UserID(c))
	} else {
		jobs, err = h.jobRepo.FindByUser(middleware.UserID(c))
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list job postings",
		})
	}
	return c.JSON(fiber.Map{"jobs": jobs})
}

// HandleGet handles GET /jobs/:id
func (h *JobHandler) HandleGet(c *fiber.Ctx) error {
	job, ok := h.findOwned(c)
	if !ok {
		return nil
	}
	return c.JSON(job)
}

// HandleUpdate handles PUT /jobs/:id
func (h *JobHandler) HandleUpdate(c *fiber.Ctx) error {
	job, ok := h.findOwned(c)
	if !ok {
		return nil
	}

	var req models.JobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title is required",
		})
	}

	refreshSkills := req.Description != job.Description || req.Requirements != job.Requirements

	job.Title = req.Title
	job.Description = req.Description
	job.Requirements = req.Requirements
	job.Location = req.Location
	job.EmploymentType = req.EmploymentType
	job.ExperienceLevel = req.ExperienceLevel
	job.SalaryRange = req.SalaryRange
	if refreshSkills {
		job.Skills = models.StringList(h.provider.ExtractSkills(c.UserContext(), req.Description+"\n"+req.Requirements))
	}

	if err := h.jobRepo.Update(job); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update job posting",
		})
	}
	return c.JSON(job)
}

// HandleToggleActive handles POST /jobs/:id/toggle
func (h *JobHandler) HandleToggleActive(c *fiber.Ctx) error {
	job, ok := h.findOwned(c)
	if !ok {
		return nil
	}

	job.IsActive = !job.IsActive
	if err := h.jobRepo.Update(job); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update job posting",
		})
	}
	return c.JSON(job)
}

// HandleDelete handles DELETE /jobs/:id
func (h *JobHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid job ID format",
		})
	}

	if err := h.jobRepo.Delete(id, middleware.UserID(c)); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Job posting not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete job posting",
		})
	}
	return c.JSON(fiber.Map{"message": "Job posting deleted"})
}

// findOwned loads the job named by the :id param, scoped to the caller.
// On failure it writes the error response and reports false.
func (h *JobHandler) findOwned(c *fiber.Ctx) (*models.JobPosting, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid job ID format",
		})
		return nil, false
	}

	job, err := h.jobRepo.FindByID(id, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Job posting not found",
			})
		} else {
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load job posting",
			})
		}
		return nil, false
	}
	return job, true
}
