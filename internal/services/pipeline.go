package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"
	"github.com/kavyp12/carrer-guide-new-one/internal/repositories"
)

type Pipeline interface {
	Process(ctx context.Context, submissionID uuid.UUID) error
}

// pipeline chains the stages of one submission: score, build prompt, generate,
// store. Stages run strictly in order; each transition is recorded through the
// tracker, and any unrecoverable error parks the submission in failed(stage).
type pipeline struct {
	repo      repositories.SubmissionRepository
	tracker   *Tracker
	schemas   *SchemaRegistry
	prompts   *PromptBuilder
	generator *ReportGenerator
	artifacts ArtifactStore
}

func NewPipeline(
	repo repositories.SubmissionRepository,
	tracker *Tracker,
	schemas *SchemaRegistry,
	prompts *PromptBuilder,
	generator *ReportGenerator,
	artifacts ArtifactStore,
) Pipeline {
	return &pipeline{
		repo:      repo,
		tracker:   tracker,
		schemas:   schemas,
		prompts:   prompts,
		generator: generator,
		artifacts: artifacts,
	}
}

func (p *pipeline) Process(ctx context.Context, submissionID uuid.UUID) error {
	if !p.tracker.Begin(submissionID) {
		log.Printf("submission %s already in flight, coalescing", submissionID)
		return nil
	}
	defer p.tracker.End(submissionID)

	sub, err := p.repo.FindByID(submissionID)
	if err != nil {
		return fmt.Errorf("failed to load submission: %w", err)
	}
	if sub.State.Terminal() {
		return nil
	}
	if sub.State == models.StateGenerating || sub.State == models.StateGenerated {
		// A previous run died mid-generation. Re-running would risk a
		// second model call for the same submission, so leave it alone.
		log.Printf("submission %s stuck in %s, not resuming", submissionID, sub.State)
		return nil
	}

	schema, err := p.schemas.Get(sub.SchemaVersion)
	if err != nil {
		p.tracker.Fail(submissionID, sub.State, err)
		return fmt.Errorf("schema %q unavailable: %w", sub.SchemaVersion, err)
	}

	score, err := p.scoreStage(sub, schema)
	if err != nil {
		return err
	}
	if score == nil {
		// Lost the scoring race to another run.
		return nil
	}

	prompt := p.prompts.BuildReportPrompt(schema, sub, score)

	if err := p.tracker.Advance(submissionID, models.StateScored, models.StateGenerating, nil); err != nil {
		if errors.Is(err, models.ErrStateConflict) {
			return nil
		}
		return err
	}

	log.Printf("generating report for submission %s (schema %s, marks %.2f)",
		submissionID, schema.Version, score.Total)

	doc, err := p.generator.Generate(ctx, submissionID, prompt)
	if err != nil {
		p.tracker.Fail(submissionID, models.StateGenerating, err)
		return err
	}

	if err := p.tracker.Advance(submissionID, models.StateGenerating, models.StateGenerated,
		&repositories.SubmissionUpdate{ModelTag: &doc.ModelTag, GeneratedAt: &doc.GeneratedAt}); err != nil {
		return err
	}

	ref, err := p.artifacts.Put(doc)
	if err != nil {
		var conflict *models.StorageConflictError
		if errors.As(err, &conflict) {
			log.Printf("ALERT: %v", conflict)
		}
		p.tracker.Fail(submissionID, models.StateGenerated, err)
		return err
	}

	storedAt := doc.GeneratedAt
	if err := p.tracker.Advance(submissionID, models.StateGenerated, models.StateStored,
		&repositories.SubmissionUpdate{
			ArtifactPath:     &ref.Location,
			ArtifactChecksum: &ref.Checksum,
			StoredAt:         &storedAt,
		}); err != nil {
		return err
	}

	log.Printf("report stored for submission %s (%s)", submissionID, ref.Checksum[:12])
	return nil
}

// scoreStage computes and records the score, or reconstructs it when a
// previous run already scored the submission. A nil score with nil error means
// another run holds the submission.
func (p *pipeline) scoreStage(sub *models.Submission, schema *models.QuestionnaireSchema) (*models.Score, error) {
	if sub.State == models.StateScored {
		return scoreFromRecord(sub, schema.Aggregation), nil
	}

	score, err := ScoreAnswers(schema, sub.ID, sub.Answers)
	if err != nil {
		p.tracker.Fail(sub.ID, sub.State, err)
		return nil, fmt.Errorf("failed to score submission: %w", err)
	}

	err = p.tracker.Advance(sub.ID, models.StateValidated, models.StateScored,
		&repositories.SubmissionUpdate{
			ScoreTotal:  &score.Total,
			ScoreDetail: score.PerQuestion,
			ScoredAt:    &score.ComputedAt,
		})
	if err != nil {
		if errors.Is(err, models.ErrStateConflict) {
			return nil, nil
		}
		return nil, err
	}
	sub.State = models.StateScored
	return score, nil
}

func scoreFromRecord(sub *models.Submission, aggregation models.Aggregation) *models.Score {
	score := &models.Score{
		SubmissionID: sub.ID,
		PerQuestion:  sub.ScoreDetail,
		Aggregation:  aggregation,
	}
	if sub.ScoreTotal != nil {
		score.Total = *sub.ScoreTotal
	}
	if sub.ScoredAt != nil {
		score.ComputedAt = *sub.ScoredAt
	}
	return score
}
