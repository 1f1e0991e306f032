package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"
	"github.com/kavyp12/carrer-guide-new-one/internal/repositories"
)

type pipelineFixture struct {
	pipeline  Pipeline
	repo      *repositories.MemorySubmissionRepository
	artifacts ArtifactStore
	model     *stubModel
}

func newPipelineFixture(t *testing.T, model *stubModel, maxAttempts int) *pipelineFixture {
	t.Helper()
	repo := repositories.NewMemorySubmissionRepository()

	schemas := NewSchemaRegistry()
	if err := schemas.Register(quizSchema(t)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	artifacts := newTestArtifactStore(t)
	tracker := NewTracker(repo)
	generator := newTestGenerator(model, maxAttempts)
	pipeline := NewPipeline(repo, tracker, schemas, NewPromptBuilder(0), generator, artifacts)

	return &pipelineFixture{
		pipeline:  pipeline,
		repo:      repo,
		artifacts: artifacts,
		model:     model,
	}
}

func TestPipelineSuccessPath(t *testing.T) {
	report := "# Career Report\n\nConsider project management."
	f := newPipelineFixture(t, &stubModel{text: report}, 3)
	sub := createSubmission(t, f.repo, models.StateValidated)

	if err := f.pipeline.Process(context.Background(), sub.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got, err := f.repo.FindByID(sub.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.State != models.StateStored {
		t.Fatalf("expected stored, got %s", got.State)
	}
	if got.ScoreTotal == nil || *got.ScoreTotal != 19 {
		t.Errorf("expected score 19 recorded, got %v", got.ScoreTotal)
	}
	if got.ModelTag == nil || *got.ModelTag != "stub-model-v1" {
		t.Errorf("expected model tag recorded, got %v", got.ModelTag)
	}
	if got.ArtifactPath == nil || got.ArtifactChecksum == nil {
		t.Fatal("expected artifact reference on stored submission")
	}

	content, err := f.artifacts.Get(sub.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(content, []byte(report)) {
		t.Errorf("stored artifact differs from generated report: %q", content)
	}
}

func TestPipelineGenerationFailure(t *testing.T) {
	// Rate limited three times, then a timeout: retry budget exhausted.
	f := newPipelineFixture(t, &stubModel{
		errs: []error{
			models.ErrModelRateLimited,
			models.ErrModelRateLimited,
			models.ErrModelRateLimited,
			models.ErrModelTimeout,
		},
	}, 4)
	sub := createSubmission(t, f.repo, models.StateValidated)

	err := f.pipeline.Process(context.Background(), sub.ID)
	var genErr *models.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}

	got, findErr := f.repo.FindByID(sub.ID)
	if findErr != nil {
		t.Fatalf("FindByID: %v", findErr)
	}
	if got.State != models.StateFailed {
		t.Fatalf("expected failed, got %s", got.State)
	}
	if got.FailedStage == nil || *got.FailedStage != models.StateGenerating {
		t.Errorf("expected failed stage generating, got %v", got.FailedStage)
	}

	// No artifact reference and no artifact may exist for a failed run.
	if got.ArtifactPath != nil || got.ArtifactChecksum != nil {
		t.Error("failed submission must not carry an artifact reference")
	}
	if _, err := f.artifacts.Get(sub.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected no stored artifact, got %v", err)
	}
}

func TestPipelineCoalescesConcurrentRuns(t *testing.T) {
	f := newPipelineFixture(t, &stubModel{text: "report", delay: 50 * time.Millisecond}, 3)
	sub := createSubmission(t, f.repo, models.StateValidated)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.pipeline.Process(context.Background(), sub.ID)
		}()
	}
	wg.Wait()

	if calls := f.model.callCount(); calls != 1 {
		t.Fatalf("concurrent duplicate runs made %d model calls, want 1", calls)
	}
	got, err := f.repo.FindByID(sub.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.State != models.StateStored {
		t.Errorf("expected stored, got %s", got.State)
	}
}

func TestPipelineSkipsTerminalSubmissions(t *testing.T) {
	f := newPipelineFixture(t, &stubModel{text: "report"}, 3)

	stored := createSubmission(t, f.repo, models.StateStored)
	failed := createSubmission(t, f.repo, models.StateFailed)

	if err := f.pipeline.Process(context.Background(), stored.ID); err != nil {
		t.Fatalf("Process(stored): %v", err)
	}
	if err := f.pipeline.Process(context.Background(), failed.ID); err != nil {
		t.Fatalf("Process(failed): %v", err)
	}
	if calls := f.model.callCount(); calls != 0 {
		t.Errorf("terminal submissions triggered %d model calls", calls)
	}
}

func TestPipelineResumesScoredSubmission(t *testing.T) {
	f := newPipelineFixture(t, &stubModel{text: "report"}, 3)
	sub := createSubmission(t, f.repo, models.StateValidated)

	// Simulate a run that died right after scoring.
	total := 19.0
	now := time.Now()
	if err := f.repo.Transition(sub.ID, models.StateValidated, models.StateScored,
		&repositories.SubmissionUpdate{
			ScoreTotal:  &total,
			ScoreDetail: map[string]float64{"q1": 5, "q2": 7},
			ScoredAt:    &now,
		}); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	if err := f.pipeline.Process(context.Background(), sub.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}
	got, err := f.repo.FindByID(sub.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.State != models.StateStored {
		t.Fatalf("expected stored, got %s", got.State)
	}
	if got.ScoreTotal == nil || *got.ScoreTotal != 19 {
		t.Errorf("resume must keep the original score, got %v", got.ScoreTotal)
	}
}

func TestPipelineUnknownSchemaFails(t *testing.T) {
	f := newPipelineFixture(t, &stubModel{text: "report"}, 3)
	sub := createSubmission(t, f.repo, models.StateValidated)
	sub.SchemaVersion = "missing-v9"
	f.repo.Create(sub) // overwrite with the bad version

	if err := f.pipeline.Process(context.Background(), sub.ID); err == nil {
		t.Fatal("expected failure for unknown schema version")
	}
	got, _ := f.repo.FindByID(sub.ID)
	if got.State != models.StateFailed {
		t.Errorf("expected failed, got %s", got.State)
	}
}
