package services

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"
)

// ScoreAnswers maps a validated answer set to its marks. It is deterministic
// and side-effect-free: identical answers against the same schema always yield
// the same score. Weights and the aggregation mode come from the schema.
// Text questions never contribute to the score.
func ScoreAnswers(schema *models.QuestionnaireSchema, submissionID uuid.UUID, answers map[string]any) (*models.Score, error) {
	perQuestion := make(map[string]float64)
	var weightedSum, weightTotal float64

	for i := range schema.Questions {
		q := &schema.Questions[i]
		if q.Kind == models.QuestionText {
			continue
		}
		value, ok := answers[q.ID]
		if !ok || value == nil {
			continue
		}

		var points float64
		switch q.Kind {
		case models.QuestionChoice:
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("answer for %q is not a string", q.ID)
			}
			p, ok := q.OptionPoints(s)
			if !ok {
				return nil, fmt.Errorf("answer for %q is not an allowed option", q.ID)
			}
			points = p
		case models.QuestionNumber:
			n, ok := numericValue(value)
			if !ok {
				return nil, fmt.Errorf("answer for %q is not a number", q.ID)
			}
			points = n
		}

		perQuestion[q.ID] = round2(points)
		weightedSum += points * q.Weight
		weightTotal += q.Weight
	}

	var total float64
	switch schema.Aggregation {
	case models.AggregationSum:
		total = weightedSum
	case models.AggregationWeightedAverage:
		if weightTotal > 0 {
			total = weightedSum / weightTotal
		}
	default:
		return nil, fmt.Errorf("unsupported aggregation %q", schema.Aggregation)
	}

	return &models.Score{
		SubmissionID: submissionID,
		Total:        round2(total),
		PerQuestion:  perQuestion,
		Aggregation:  schema.Aggregation,
		ComputedAt:   time.Now(),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
