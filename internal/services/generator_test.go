package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"
)

// stubModel scripts the AI collaborator: errs[i] is returned on call i+1, a
// nil entry (or running past the script) succeeds with text.
type stubModel struct {
	mu    sync.Mutex
	calls int
	errs  []error
	text  string
	delay time.Duration
}

func (m *stubModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.delay):
		}
	}
	if idx < len(m.errs) && m.errs[idx] != nil {
		return "", m.errs[idx]
	}
	return m.text, nil
}

func (m *stubModel) Tag() string { return "stub-model-v1" }

func (m *stubModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestGenerator(model ReportModel, maxAttempts int) *ReportGenerator {
	return NewReportGenerator(model, fastPolicy(maxAttempts), time.Second, 5*time.Second)
}

func TestGenerateSuccess(t *testing.T) {
	model := &stubModel{text: "# Your Career Report\n\nYou should be a beekeeper."}
	gen := newTestGenerator(model, 3)
	id := uuid.New()

	doc, err := gen.Generate(context.Background(), id, "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(doc.Content) != model.text {
		t.Errorf("unexpected content: %q", doc.Content)
	}
	if doc.ModelTag != "stub-model-v1" {
		t.Errorf("expected model tag recorded, got %q", doc.ModelTag)
	}
	if doc.SubmissionID != id {
		t.Errorf("expected submission ID %s, got %s", id, doc.SubmissionID)
	}
	if doc.GeneratedAt.IsZero() {
		t.Error("expected GeneratedAt to be set")
	}
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	model := &stubModel{
		errs: []error{models.ErrModelRateLimited, models.ErrModelUnavailable},
		text: "report",
	}
	gen := newTestGenerator(model, 3)

	doc, err := gen.Generate(context.Background(), uuid.New(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if model.callCount() != 3 {
		t.Errorf("expected 3 calls, got %d", model.callCount())
	}
	if string(doc.Content) != "report" {
		t.Errorf("unexpected content: %q", doc.Content)
	}
}

func TestGenerateExhaustsRetryBudget(t *testing.T) {
	// Rate limited three times, then a timeout: the fourth attempt uses up
	// the budget and the run fails.
	model := &stubModel{
		errs: []error{
			models.ErrModelRateLimited,
			models.ErrModelRateLimited,
			models.ErrModelRateLimited,
			models.ErrModelTimeout,
		},
	}
	gen := newTestGenerator(model, 4)

	_, err := gen.Generate(context.Background(), uuid.New(), "prompt")
	var genErr *models.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if !errors.Is(err, models.ErrModelTimeout) {
		t.Errorf("expected last failure to be the timeout, got %v", genErr.Cause)
	}
	if model.callCount() != 4 {
		t.Errorf("expected 4 calls, got %d", model.callCount())
	}
}

func TestGenerateRejectionIsTerminal(t *testing.T) {
	model := &stubModel{errs: []error{models.ErrModelRejected}}
	gen := newTestGenerator(model, 3)

	_, err := gen.Generate(context.Background(), uuid.New(), "prompt")
	var genErr *models.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if model.callCount() != 1 {
		t.Errorf("rejection must not be retried, got %d calls", model.callCount())
	}
}

func TestGenerateHonorsBudget(t *testing.T) {
	model := &stubModel{delay: time.Hour, text: "never"}
	gen := NewReportGenerator(model, fastPolicy(3), 20*time.Millisecond, 50*time.Millisecond)

	start := time.Now()
	_, err := gen.Generate(context.Background(), uuid.New(), "prompt")
	if err == nil {
		t.Fatal("expected failure from expired budget")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("generation ran %v past its budget", elapsed)
	}
}
