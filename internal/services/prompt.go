package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"
)

const defaultMaxPromptChars = 8000

// PromptBuilder renders a submission and its score into a bounded prompt for
// the generative model. Only the submission's own answers ever enter the
// prompt; there is no cross-submission context.
type PromptBuilder struct {
	maxChars int
}

func NewPromptBuilder(maxChars int) *PromptBuilder {
	if maxChars <= 0 {
		maxChars = defaultMaxPromptChars
	}
	return &PromptBuilder{maxChars: maxChars}
}

type promptBlock struct {
	text     string
	priority int
	position int
	freeText bool
}

// BuildReportPrompt produces the prompt. When the rendered answers exceed the
// size bound, free-text answers are dropped first, lowest priority first; the
// score section is never truncated.
func (pb *PromptBuilder) BuildReportPrompt(schema *models.QuestionnaireSchema, sub *models.Submission, score *models.Score) string {
	var header strings.Builder
	header.WriteString("You are an experienced career counselor. Write a personal, encouraging ")
	header.WriteString("career-guidance report in Markdown for the candidate below, based only on ")
	header.WriteString("their questionnaire answers and computed marks. Cover strengths, suggested ")
	header.WriteString("career directions, and concrete next steps. Do not invent facts the answers ")
	header.WriteString("do not support.\n\n")
	fmt.Fprintf(&header, "Questionnaire: %s (version %s)\n", schema.Title, schema.Version)
	fmt.Fprintf(&header, "Overall marks: %.2f (%s)\n", score.Total, score.Aggregation)
	for i := range schema.Questions {
		q := &schema.Questions[i]
		if points, ok := score.PerQuestion[q.ID]; ok {
			fmt.Fprintf(&header, "  - %s: %.2f\n", q.ID, points)
		}
	}
	header.WriteString("\nAnswers:\n")

	blocks := make([]promptBlock, 0, len(schema.Questions))
	for i := range schema.Questions {
		q := &schema.Questions[i]
		value, ok := sub.Answers[q.ID]
		if !ok || value == nil {
			continue
		}
		blocks = append(blocks, promptBlock{
			text:     fmt.Sprintf("Q (%s): %s\nA: %v\n\n", q.ID, q.Text, value),
			priority: q.Priority,
			position: i,
			freeText: q.Kind == models.QuestionText,
		})
	}

	budget := pb.maxChars - header.Len()
	blocks = fitBlocks(blocks, budget)

	var body strings.Builder
	for _, b := range blocks {
		body.WriteString(b.text)
	}
	if body.Len() > budget && budget > 0 {
		return header.String() + body.String()[:budget]
	}
	return header.String() + body.String()
}

// fitBlocks drops free-text blocks, lowest priority first (later questions
// first on ties), until the remaining blocks fit the budget. Non-text answers
// are kept; the final hard cut in the caller handles the degenerate case.
func fitBlocks(blocks []promptBlock, budget int) []promptBlock {
	total := 0
	for _, b := range blocks {
		total += len(b.text)
	}
	if total <= budget {
		return blocks
	}

	dropOrder := make([]int, 0, len(blocks))
	for i, b := range blocks {
		if b.freeText {
			dropOrder = append(dropOrder, i)
		}
	}
	sort.Slice(dropOrder, func(a, b int) bool {
		ba, bb := blocks[dropOrder[a]], blocks[dropOrder[b]]
		if ba.priority != bb.priority {
			return ba.priority < bb.priority
		}
		return ba.position > bb.position
	})

	dropped := make(map[int]bool)
	for _, idx := range dropOrder {
		if total <= budget {
			break
		}
		dropped[idx] = true
		total -= len(blocks[idx].text)
	}

	kept := blocks[:0]
	for i, b := range blocks {
		if !dropped[i] {
			kept = append(kept, b)
		}
	}
	return kept
}
