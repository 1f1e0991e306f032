package models

type QuestionKind string

const (
	QuestionChoice QuestionKind = "choice"
	QuestionNumber QuestionKind = "number"
	QuestionText   QuestionKind = "text"
)

type Aggregation string

const (
	AggregationSum             Aggregation = "sum"
	AggregationWeightedAverage Aggregation = "weighted-average"
)

// Option is one allowed value of a choice question and the points it earns.
type Option struct {
	Value  string  `json:"value"`
	Points float64 `json:"points"`
}

type Question struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Kind     QuestionKind `json:"kind"`
	Required bool         `json:"required"`
	Options  []Option     `json:"options,omitempty"`
	Min      *float64     `json:"min,omitempty"`
	Max      *float64     `json:"max,omitempty"`
	// Weight feeds the scorer. Text questions carry no weight; they exist
	// for the narrative prompt only.
	Weight float64 `json:"weight"`
	// Priority orders prompt truncation: lower-priority answers are cut
	// first when the prompt exceeds its size bound.
	Priority int `json:"priority"`
}

// OptionPoints returns the points for a choice value.
func (q *Question) OptionPoints(value string) (float64, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt.Points, true
		}
	}
	return 0, false
}

// QuestionnaireSchema is one immutable version of the questionnaire, including
// the scoring configuration the scorer reads.
type QuestionnaireSchema struct {
	Version     string      `json:"version"`
	Title       string      `json:"title"`
	Aggregation Aggregation `json:"aggregation"`
	Questions   []Question  `json:"questions"`
}

// Question looks up a question by ID.
func (s *QuestionnaireSchema) Question(id string) (*Question, bool) {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i], true
		}
	}
	return nil, false
}
