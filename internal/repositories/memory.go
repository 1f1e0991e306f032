package repositories

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"
)

// MemorySubmissionRepository is the in-memory backing store used by tests and
// local runs without Postgres. It honors the same transition guarantees as the
// database-backed repository.
type MemorySubmissionRepository struct {
	mu   sync.Mutex
	subs map[uuid.UUID]*models.Submission
}

func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{
		subs: make(map[uuid.UUID]*models.Submission),
	}
}

func (r *MemorySubmissionRepository) Create(sub *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	r.subs[sub.ID] = &cp
	return nil
}

func (r *MemorySubmissionRepository) FindByID(id uuid.UUID) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (r *MemorySubmissionRepository) FindResumable(limit int) ([]models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Submission
	for _, sub := range r.subs {
		if sub.State == models.StateValidated || sub.State == models.StateScored {
			out = append(out, *sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemorySubmissionRepository) Transition(id uuid.UUID, from, to models.SubmissionState, update *SubmissionUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return models.ErrNotFound
	}
	if sub.State != from {
		return models.ErrStateConflict
	}
	sub.State = to
	sub.UpdatedAt = time.Now()
	if update != nil {
		if update.ScoreTotal != nil {
			sub.ScoreTotal = update.ScoreTotal
		}
		if update.ScoreDetail != nil {
			sub.ScoreDetail = update.ScoreDetail
		}
		if update.ScoredAt != nil {
			sub.ScoredAt = update.ScoredAt
		}
		if update.ModelTag != nil {
			sub.ModelTag = update.ModelTag
		}
		if update.GeneratedAt != nil {
			sub.GeneratedAt = update.GeneratedAt
		}
		if update.ArtifactPath != nil {
			sub.ArtifactPath = update.ArtifactPath
		}
		if update.ArtifactChecksum != nil {
			sub.ArtifactChecksum = update.ArtifactChecksum
		}
		if update.StoredAt != nil {
			sub.StoredAt = update.StoredAt
		}
	}
	return nil
}

func (r *MemorySubmissionRepository) Fail(id uuid.UUID, stage models.SubmissionState, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return models.ErrNotFound
	}
	if sub.State.Terminal() {
		return models.ErrStateConflict
	}
	sub.State = models.StateFailed
	sub.FailedStage = &stage
	sub.ErrorMessage = &message
	sub.UpdatedAt = time.Now()
	return nil
}
