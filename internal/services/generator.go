package services

import (
	"context"
	"strings"
	"time"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"

	"github.com/google/uuid"
)

// ReportGenerator orchestrates the external model call: per-call deadline,
// retry with backoff on transient failures, an overall generation budget, and
// normalization of the raw output into a ReportDocument. It touches no
// storage.
type ReportGenerator struct {
	model       ReportModel
	policy      RetryPolicy
	callTimeout time.Duration
	budget      time.Duration
}

func NewReportGenerator(model ReportModel, policy RetryPolicy, callTimeout, budget time.Duration) *ReportGenerator {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	if budget <= 0 {
		budget = 2 * time.Minute
	}
	return &ReportGenerator{
		model:       model,
		policy:      policy,
		callTimeout: callTimeout,
		budget:      budget,
	}
}

// Generate produces the report document for one submission, or a
// *models.GenerationError once the retry budget is exhausted or the model
// rejects the prompt.
func (g *ReportGenerator) Generate(ctx context.Context, submissionID uuid.UUID, prompt string) (*models.ReportDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, g.budget)
	defer cancel()

	var text string
	err := g.policy.Do(ctx, func(ctx context.Context) error {
		callCtx, callCancel := context.WithTimeout(ctx, g.callTimeout)
		defer callCancel()

		out, err := g.model.Generate(callCtx, prompt)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return nil, &models.GenerationError{Cause: err}
	}

	return &models.ReportDocument{
		SubmissionID: submissionID,
		Content:      []byte(strings.TrimSpace(text)),
		ModelTag:     g.model.Tag(),
		GeneratedAt:  time.Now(),
	}, nil
}
