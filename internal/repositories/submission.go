package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"
)

type SubmissionRepository interface {
	Create(sub *models.Submission) error
	FindByID(id uuid.UUID) (*models.Submission, error)
	// FindResumable returns submissions that were accepted but whose
	// pipeline has not started generating yet, oldest first.
	FindResumable(limit int) ([]models.Submission, error)
	// Transition moves a submission from one state to the next, applying
	// the update atomically. It fails with models.ErrStateConflict when the
	// submission is no longer in the expected state.
	Transition(id uuid.UUID, from, to models.SubmissionState, update *SubmissionUpdate) error
	// Fail marks a submission terminally failed, recording the stage it
	// was in. Terminal states are never overwritten.
	Fail(id uuid.UUID, stage models.SubmissionState, message string) error
}

// SubmissionUpdate carries the stage outputs persisted alongside a transition.
type SubmissionUpdate struct {
	ScoreTotal       *float64
	ScoreDetail      map[string]float64
	ScoredAt         *time.Time
	ModelTag         *string
	GeneratedAt      *time.Time
	ArtifactPath     *string
	ArtifactChecksum *string
	StoredAt         *time.Time
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(sub *models.Submission) error {
	if err := r.db.Create(sub).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *submissionRepository) FindByID(id uuid.UUID) (*models.Submission, error) {
	var sub models.Submission
	if err := r.db.Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}
	return &sub, nil
}

func (r *submissionRepository) FindResumable(limit int) ([]models.Submission, error) {
	var subs []models.Submission
	err := r.db.
		Where("state IN ?", []models.SubmissionState{models.StateValidated, models.StateScored}).
		Order("created_at ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find resumable submissions: %w", err)
	}
	return subs, nil
}

func (r *submissionRepository) Transition(id uuid.UUID, from, to models.SubmissionState, update *SubmissionUpdate) error {
	updates := map[string]interface{}{
		"state":      to,
		"updated_at": time.Now(),
	}
	if update != nil {
		if update.ScoreTotal != nil {
			updates["score_total"] = *update.ScoreTotal
		}
		if update.ScoreDetail != nil {
			detail, err := json.Marshal(update.ScoreDetail)
			if err != nil {
				return fmt.Errorf("failed to encode score detail: %w", err)
			}
			updates["score_detail"] = string(detail)
		}
		if update.ScoredAt != nil {
			updates["scored_at"] = *update.ScoredAt
		}
		if update.ModelTag != nil {
			updates["model_tag"] = *update.ModelTag
		}
		if update.GeneratedAt != nil {
			updates["generated_at"] = *update.GeneratedAt
		}
		if update.ArtifactPath != nil {
			updates["artifact_path"] = *update.ArtifactPath
		}
		if update.ArtifactChecksum != nil {
			updates["artifact_checksum"] = *update.ArtifactChecksum
		}
		if update.StoredAt != nil {
			updates["stored_at"] = *update.StoredAt
		}
	}

	result := r.db.Model(&models.Submission{}).
		Where("id = ? AND state = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to transition submission: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(id); err != nil {
			return err
		}
		return models.ErrStateConflict
	}
	return nil
}

func (r *submissionRepository) Fail(id uuid.UUID, stage models.SubmissionState, message string) error {
	result := r.db.Model(&models.Submission{}).
		Where("id = ? AND state NOT IN ?", id, []models.SubmissionState{models.StateStored, models.StateFailed}).
		Updates(map[string]interface{}{
			"state":         models.StateFailed,
			"failed_stage":  stage,
			"error_message": message,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark submission failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(id); err != nil {
			return err
		}
		return models.ErrStateConflict
	}
	return nil
}
