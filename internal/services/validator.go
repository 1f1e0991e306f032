package services

import (
	"fmt"
	"sort"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"
)

// ValidateAnswers checks an answer set against a questionnaire schema. It is a
// pure check: the first violation found is returned as a
// *models.ValidationError and nothing is accepted partially. Questions are
// checked in schema order, then any unknown answer keys are rejected.
func ValidateAnswers(schema *models.QuestionnaireSchema, answers map[string]any) error {
	for i := range schema.Questions {
		q := &schema.Questions[i]
		value, ok := answers[q.ID]
		if !ok || value == nil {
			if q.Required {
				return &models.ValidationError{Field: q.ID, Reason: "required question not answered"}
			}
			continue
		}
		if err := validateAnswer(q, value); err != nil {
			return err
		}
	}

	// Unknown question IDs are client faults, not ignorable noise. Sorted
	// so the first violation reported is deterministic.
	unknown := make([]string, 0)
	for id := range answers {
		if _, ok := schema.Question(id); !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &models.ValidationError{Field: unknown[0], Reason: "unknown question id"}
	}
	return nil
}

func validateAnswer(q *models.Question, value any) error {
	switch q.Kind {
	case models.QuestionChoice:
		s, ok := value.(string)
		if !ok {
			return &models.ValidationError{Field: q.ID, Reason: "answer must be a string"}
		}
		if _, ok := q.OptionPoints(s); !ok {
			return &models.ValidationError{Field: q.ID, Reason: fmt.Sprintf("%q is not an allowed option", s)}
		}
	case models.QuestionNumber:
		n, ok := numericValue(value)
		if !ok {
			return &models.ValidationError{Field: q.ID, Reason: "answer must be a number"}
		}
		if q.Min != nil && n < *q.Min {
			return &models.ValidationError{Field: q.ID, Reason: fmt.Sprintf("value %v below minimum %v", n, *q.Min)}
		}
		if q.Max != nil && n > *q.Max {
			return &models.ValidationError{Field: q.ID, Reason: fmt.Sprintf("value %v above maximum %v", n, *q.Max)}
		}
	case models.QuestionText:
		if _, ok := value.(string); !ok {
			return &models.ValidationError{Field: q.ID, Reason: "answer must be a string"}
		}
	default:
		return &models.ValidationError{Field: q.ID, Reason: fmt.Sprintf("unsupported question kind %q", q.Kind)}
	}
	return nil
}

// numericValue accepts the number representations JSON decoding produces.
func numericValue(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
