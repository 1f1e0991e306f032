package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/kavyp12/carrer-guide-new-one/internal/middleware"
	"github.com/kavyp12/carrer-guide-new-one/internal/models"
	"github.com/kavyp12/carrer-guide-new-one/internal/repositories"
	"github.com/kavyp12/carrer-guide-new-one/internal/services"
)

// ReportHandler is the download gateway: it never blocks on generation, it
// only reads current state and streams the artifact once the report is stored.
type ReportHandler struct {
	repo      repositories.SubmissionRepository
	artifacts services.ArtifactStore
}

func NewReportHandler(repo repositories.SubmissionRepository, artifacts services.ArtifactStore) *ReportHandler {
	return &ReportHandler{
		repo:      repo,
		artifacts: artifacts,
	}
}

// HandleGetReport handles GET /assessments/:id/report.
func (h *ReportHandler) HandleGetReport(c *fiber.Ctx) error {
	submissionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid submission ID format",
		})
	}

	sub, err := h.repo.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "submission not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load submission",
		})
	}

	// Ownership gates everything, including status visibility.
	if sub.OwnerID != middleware.UserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": models.ErrForbidden.Error(),
		})
	}

	switch sub.State {
	case models.StateStored:
		content, err := h.artifacts.Get(submissionID)
		if err != nil {
			// A stored submission without its artifact violates the
			// store invariant; surface loudly.
			log.Printf("ALERT: stored submission %s has no artifact: %v", submissionID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "report artifact unavailable",
			})
		}
		c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="report-`+submissionID.String()+`.md"`)
		return c.Send(content)

	case models.StateFailed:
		resp := models.ReportStatusResponse{
			ID:           sub.ID.String(),
			Status:       "failed",
			ErrorMessage: sub.ErrorMessage,
		}
		if sub.FailedStage != nil {
			stage := string(*sub.FailedStage)
			resp.FailedStage = &stage
		}
		return c.JSON(resp)

	default:
		return c.JSON(models.ReportStatusResponse{
			ID:     sub.ID.String(),
			Status: "pending",
		})
	}
}
