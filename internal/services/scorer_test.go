package services

import (
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"
)

func TestScoreAnswersSum(t *testing.T) {
	schema := quizSchema(t)
	id := uuid.New()

	// q1 "yes" = 5 points * weight 1, q2 = 7 * weight 2.
	score, err := ScoreAnswers(schema, id, map[string]any{"q1": "yes", "q2": 7.0, "q3": "free text"})
	if err != nil {
		t.Fatalf("ScoreAnswers: %v", err)
	}
	if score.Total != 19 {
		t.Errorf("expected total 19, got %v", score.Total)
	}
	if score.PerQuestion["q1"] != 5 || score.PerQuestion["q2"] != 7 {
		t.Errorf("unexpected per-question marks: %v", score.PerQuestion)
	}
	if _, ok := score.PerQuestion["q3"]; ok {
		t.Error("text questions must not be scored")
	}
	if score.SubmissionID != id {
		t.Errorf("expected submission ID %s, got %s", id, score.SubmissionID)
	}
}

func TestScoreAnswersWeightedAverage(t *testing.T) {
	schema := DefaultCareerSchema()
	answers := map[string]any{
		"work_style":         "leading",     // 9, weight 2
		"problem_solving":    8.0,           // weight 3
		"technical_interest": 10.0,          // weight 3
		"people_interest":    4.0,           // weight 2
		"preferred_field":    "engineering", // 8, weight 1
	}

	score, err := ScoreAnswers(schema, uuid.New(), answers)
	if err != nil {
		t.Fatalf("ScoreAnswers: %v", err)
	}
	// (9*2 + 8*3 + 10*3 + 4*2 + 8*1) / (2+3+3+2+1) = 88/11
	if score.Total != 8 {
		t.Errorf("expected weighted average 8, got %v", score.Total)
	}
}

func TestScoreAnswersDeterministic(t *testing.T) {
	schema := DefaultCareerSchema()
	id := uuid.New()
	answers := map[string]any{
		"work_style":         "collaborative",
		"problem_solving":    6.0,
		"technical_interest": 7.0,
		"people_interest":    9.0,
		"preferred_field":    "design",
	}

	first, err := ScoreAnswers(schema, id, answers)
	if err != nil {
		t.Fatalf("ScoreAnswers: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := ScoreAnswers(schema, id, answers)
		if err != nil {
			t.Fatalf("ScoreAnswers (repeat %d): %v", i, err)
		}
		if again.Total != first.Total {
			t.Fatalf("total changed on repeat %d: %v vs %v", i, again.Total, first.Total)
		}
		if !reflect.DeepEqual(again.PerQuestion, first.PerQuestion) {
			t.Fatalf("per-question marks changed on repeat %d", i)
		}
	}
}

func TestScoreAnswersSkipsUnansweredOptional(t *testing.T) {
	schema := quizSchema(t)
	score, err := ScoreAnswers(schema, uuid.New(), map[string]any{"q1": "no", "q2": 3.0})
	if err != nil {
		t.Fatalf("ScoreAnswers: %v", err)
	}
	// 2*1 + 3*2
	if score.Total != 8 {
		t.Errorf("expected total 8, got %v", score.Total)
	}
}
