package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/kavyp12/carrer-guide-new-one/internal/middleware"
	"github.com/kavyp12/carrer-guide-new-one/internal/models"
	"github.com/kavyp12/carrer-guide-new-one/internal/repositories"
	"github.com/kavyp12/carrer-guide-new-one/internal/services"
)

type SubmitHandler struct {
	repo    repositories.SubmissionRepository
	schemas *services.SchemaRegistry
	worker  services.Worker
}

func NewSubmitHandler(
	repo repositories.SubmissionRepository,
	schemas *services.SchemaRegistry,
	worker services.Worker,
) *SubmitHandler {
	return &SubmitHandler{
		repo:    repo,
		schemas: schemas,
		worker:  worker,
	}
}

// HandleSubmit handles POST /assessments. Validation is synchronous; on
// success the submission is accepted, queued for background generation, and
// the tracking ID returned immediately.
func (h *SubmitHandler) HandleSubmit(c *fiber.Ctx) error {
	ownerID := middleware.UserID(c)
	if ownerID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing identity",
		})
	}

	var req models.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request payload",
		})
	}
	if len(req.Answers) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "answers are required",
		})
	}

	version := req.SchemaVersion
	if version == "" {
		version = h.schemas.DefaultVersion()
	}
	schema, err := h.schemas.Get(version)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown schema version: " + version,
		})
	}

	if err := services.ValidateAnswers(schema, req.Answers); err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": ve.Error(),
				"field": ve.Field,
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	now := time.Now()
	sub := &models.Submission{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		SchemaVersion: schema.Version,
		Answers:       req.Answers,
		State:         models.StateValidated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.repo.Create(sub); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create submission",
		})
	}

	h.worker.Enqueue(sub.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.SubmitResponse{
		ID:            sub.ID.String(),
		Status:        string(sub.State),
		SchemaVersion: sub.SchemaVersion,
	})
}
