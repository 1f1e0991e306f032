package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"
	"github.com/kavyp12/carrer-guide-new-one/internal/repositories"
)

// nextState is the only legal forward edge out of each non-terminal state.
var nextState = map[models.SubmissionState]models.SubmissionState{
	models.StateReceived:   models.StateValidated,
	models.StateValidated:  models.StateScored,
	models.StateScored:     models.StateGenerating,
	models.StateGenerating: models.StateGenerated,
	models.StateGenerated:  models.StateStored,
}

// Tracker owns per-submission pipeline state. It serializes access per
// submission ID: Begin admits at most one in-flight run per ID, and every
// transition is compare-and-swapped against the expected current state in the
// backing store, so a lost race surfaces as models.ErrStateConflict instead of
// a duplicate run.
type Tracker struct {
	repo repositories.SubmissionRepository

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

func NewTracker(repo repositories.SubmissionRepository) *Tracker {
	return &Tracker{
		repo:     repo,
		inflight: make(map[uuid.UUID]struct{}),
	}
}

// Begin claims the single in-flight slot for a submission. A false return
// means another run already holds it and the caller must coalesce, not
// re-execute.
func (t *Tracker) Begin(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.inflight[id]; busy {
		return false
	}
	t.inflight[id] = struct{}{}
	return true
}

func (t *Tracker) End(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inflight, id)
}

// Advance moves a submission one step along the success path.
func (t *Tracker) Advance(id uuid.UUID, from, to models.SubmissionState, update *repositories.SubmissionUpdate) error {
	if nextState[from] != to {
		return fmt.Errorf("illegal transition %s -> %s: %w", from, to, models.ErrStateConflict)
	}
	return t.repo.Transition(id, from, to, update)
}

// Fail moves a submission to its terminal failed state, recording the stage
// it was in. Failing an already-terminal submission is a conflict.
func (t *Tracker) Fail(id uuid.UUID, stage models.SubmissionState, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return t.repo.Fail(id, stage, msg)
}
