package handlers

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"recruitmate/internal/models"
	"recruitmate/internal/repositories"
	"recruitmate/internal/services"
)

type CandidateHandler struct {
	candidateRepo  repositories.CandidateRepository
	storageService services.StorageService
	resumeParser   services.ResumeParserService
	maxFileSize    int64
}

func NewCandidateHandler(
	candidateRepo repositories.CandidateRepository,
	storageService services.StorageService,
	resumeParser services.ResumeParserService,
	maxFileSize int64,
) *CandidateHandler {
	return &CandidateHandler{
		candidateRepo:  candidateRepo,
		storageService: storageService,
		resumeParser:   resumeParser,
		maxFileSize:    maxFileSize,
	}
}

// HandleCreate handles POST /candidates
func (h *CandidateHandler) HandleCreate(c *fiber.Ctx) error {
	var candidate models.Candidate
	if err := c.BodyParser(&candidate); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if candidate.Name == "" || candidate.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name and email are required",
		})
	}

	candidate.ID = uuid.New()
	if err := h.candidateRepo.Create(&candidate); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create candidate",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(&candidate)
}

// HandleList handles GET /candidates
func (h *CandidateHandler) HandleList(c *fiber.Ctx) error {
	candidates, err := h.candidateRepo.FindAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list candidates",
		})
	}
	return c.JSON(fiber.Map{"candidates": candidates})
}

// HandleGet handles GET /candidates/:id
func (h *CandidateHandler) HandleGet(c *fiber.Ctx) error {
	candidate, ok := h.find(c)
	if !ok {
		return nil
	}
	return c.JSON(candidate)
}

// HandleUpdate handles PUT /candidates/:id
func (h *CandidateHandler) HandleUpdate(c *fiber.Ctx) error {
	candidate, ok := h.find(c)
	if !ok {
		return nil
	}

	var req models.Candidate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	candidate.Name = req.Name
	candidate.Email = req.Email
	candidate.Phone = req.Phone
	candidate.ResumeURL = req.ResumeURL
	candidate.Skills = req.Skills
	candidate.ExperienceYears = req.ExperienceYears
	candidate.Education = req.Education

	if err := h.candidateRepo.Update(candidate); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update candidate",
		})
	}
	return c.JSON(candidate)
}

// HandleDelete handles DELETE /candidates/:id
func (h *CandidateHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid candidate ID format",
		})
	}

	if err := h.candidateRepo.Delete(id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete candidate",
		})
	}
	return c.JSON(fiber.Map{"message": "Candidate deleted"})
}

// HandleUploadResume handles POST /candidates/:id/resume. Stores the PDF and
// backfills skills, experience and education parsed from its text.
func (h *CandidateHandler) HandleUploadResume(c *fiber.Ctx) error {
	candidate, ok := h.find(c)
	if !ok {
		return nil
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
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save resume file: %v", err),
		})
	}

	previous := candidate.ResumeFile
	candidate.ResumeFile = filePath

	if profile, err := h.resumeParser.Parse(filePath); err != nil {
		log.Printf("⚠️ Failed to parse uploaded resume %s: %v\n", filename, err)
	} else {
		if len(profile.Skills) > 0 {
			candidate.Skills = models.StringList(profile.Skills)
		}
		if profile.ExperienceYears != nil {
			candidate.ExperienceYears = profile.ExperienceYears
		}
		if profile.Education != "" {
			candidate.Education = profile.Education
		}
	}

	if err := h.candidateRepo.Update(candidate); err != nil {
		h.storageService.DeleteFile(filename)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save resume record",
		})
	}

	if previous != "" && previous != filePath {
		h.storageService.DeleteFile(filepath.Base(previous))
	}

	return c.JSON(candidate)
}

// find loads the candidate named by the :id param. On failure it writes the
// error response and reports false.
func (h *CandidateHandler) find(c *fiber.Ctx) (*models.Candidate, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid candidate ID format",
		})
		return nil, false
	}

	candidate, err := h.candidateRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Candidate not found",
			})
		} else {
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load candidate",
			})
		}
		return nil, false
	}
	return candidate, true
}
