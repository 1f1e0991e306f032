package models

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionState string

const (
	StateReceived   SubmissionState = "received"
	StateValidated  SubmissionState = "validated"
	StateScored     SubmissionState = "scored"
	StateGenerating SubmissionState = "generating"
	StateGenerated  SubmissionState = "generated"
	StateStored     SubmissionState = "stored"
	StateFailed     SubmissionState = "failed"
)

// Terminal reports whether a submission in this state can never move again.
func (s SubmissionState) Terminal() bool {
	return s == StateStored || s == StateFailed
}

// Submission is one user's answered questionnaire. Answers are immutable once
// the record is created; everything else is filled in by the pipeline as the
// submission moves through its states.
type Submission struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID       string          `gorm:"type:text;not null;index" json:"owner_id"`
	SchemaVersion string          `gorm:"type:text;not null" json:"schema_version"`
	Answers       map[string]any  `gorm:"type:jsonb;serializer:json" json:"answers"`
	State         SubmissionState `gorm:"type:text;not null;index" json:"state"`

	FailedStage  *SubmissionState `gorm:"type:text" json:"failed_stage,omitempty"`
	ErrorMessage *string          `gorm:"type:text" json:"error_message,omitempty"`

	ScoreTotal  *float64           `json:"score_total,omitempty"`
	ScoreDetail map[string]float64 `gorm:"type:jsonb;serializer:json" json:"score_detail,omitempty"`
	ScoredAt    *time.Time         `json:"scored_at,omitempty"`

	ModelTag    *string    `gorm:"type:text" json:"model_tag,omitempty"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`

	ArtifactPath     *string    `gorm:"type:text" json:"artifact_path,omitempty"`
	ArtifactChecksum *string    `gorm:"type:text" json:"artifact_checksum,omitempty"`
	StoredAt         *time.Time `json:"stored_at,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Submission) TableName() string {
	return "submissions"
}

// Score is the deterministic evaluation of one submission's answers.
type Score struct {
	SubmissionID uuid.UUID          `json:"submission_id"`
	Total        float64            `json:"total"`
	PerQuestion  map[string]float64 `json:"per_question"`
	Aggregation  Aggregation        `json:"aggregation"`
	ComputedAt   time.Time          `json:"computed_at"`
}

// ReportDocument is the normalized output of one generation call. It exists in
// memory only until the artifact store persists it.
type ReportDocument struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	Content      []byte    `json:"content"`
	ModelTag     string    `json:"model_tag"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// ArtifactReference points at the durably stored form of a report.
type ArtifactReference struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	Location     string    `json:"location"`
	Checksum     string    `json:"checksum"`
}
