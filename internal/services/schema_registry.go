package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"
)

// SchemaRegistry holds the versioned questionnaire schemas the validator and
// scorer run against. Versions are immutable once registered; the submission
// records which version it was validated against.
type SchemaRegistry struct {
	mu             sync.RWMutex
	byVersion      map[string]*models.QuestionnaireSchema
	defaultVersion string
}

func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{
		byVersion: make(map[string]*models.QuestionnaireSchema),
	}
}

// Register adds a schema version. The last registered version becomes the
// default offered to clients that do not pin one.
func (r *SchemaRegistry) Register(schema *models.QuestionnaireSchema) error {
	if err := checkSchema(schema); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byVersion[schema.Version]; exists {
		return fmt.Errorf("schema version %q already registered", schema.Version)
	}
	r.byVersion[schema.Version] = schema
	r.defaultVersion = schema.Version
	return nil
}

func (r *SchemaRegistry) Get(version string) (*models.QuestionnaireSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.byVersion[version]
	if !ok {
		return nil, fmt.Errorf("schema version %q: %w", version, models.ErrNotFound)
	}
	return schema, nil
}

func (r *SchemaRegistry) DefaultVersion() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultVersion
}

func (r *SchemaRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byVersion)
}

// LoadDir registers every *.json schema in dir, in filename order so the
// default version is stable across restarts.
func (r *SchemaRegistry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read schema directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read schema %s: %w", name, err)
		}
		var schema models.QuestionnaireSchema
		if err := json.Unmarshal(data, &schema); err != nil {
			return fmt.Errorf("failed to parse schema %s: %w", name, err)
		}
		if err := r.Register(&schema); err != nil {
			return fmt.Errorf("failed to register schema %s: %w", name, err)
		}
	}
	return nil
}

func checkSchema(schema *models.QuestionnaireSchema) error {
	if schema.Version == "" {
		return fmt.Errorf("schema version is empty")
	}
	if schema.Aggregation != models.AggregationSum && schema.Aggregation != models.AggregationWeightedAverage {
		return fmt.Errorf("schema %s: unsupported aggregation %q", schema.Version, schema.Aggregation)
	}
	if len(schema.Questions) == 0 {
		return fmt.Errorf("schema %s has no questions", schema.Version)
	}

	seen := make(map[string]bool)
	for _, q := range schema.Questions {
		if q.ID == "" {
			return fmt.Errorf("schema %s: question with empty id", schema.Version)
		}
		if seen[q.ID] {
			return fmt.Errorf("schema %s: duplicate question id %q", schema.Version, q.ID)
		}
		seen[q.ID] = true
		if q.Kind == models.QuestionChoice && len(q.Options) == 0 {
			return fmt.Errorf("schema %s: choice question %q has no options", schema.Version, q.ID)
		}
		if q.Weight < 0 {
			return fmt.Errorf("schema %s: question %q has negative weight", schema.Version, q.ID)
		}
	}
	return nil
}

// DefaultCareerSchema is the built-in questionnaire used when no schema
// directory is configured.
func DefaultCareerSchema() *models.QuestionnaireSchema {
	min0, max10 := 0.0, 10.0
	return &models.QuestionnaireSchema{
		Version:     "career-v1",
		Title:       "Career Orientation Assessment",
		Aggregation: models.AggregationWeightedAverage,
		Questions: []models.Question{
			{
				ID: "work_style", Text: "Which working style suits you best?",
				Kind: models.QuestionChoice, Required: true, Weight: 2, Priority: 5,
				Options: []models.Option{
					{Value: "independent", Points: 8},
					{Value: "collaborative", Points: 7},
					{Value: "leading", Points: 9},
					{Value: "supporting", Points: 6},
				},
			},
			{
				ID: "problem_solving", Text: "Rate your comfort with open-ended problems (0-10).",
				Kind: models.QuestionNumber, Required: true, Weight: 3, Priority: 5,
				Min: &min0, Max: &max10,
			},
			{
				ID: "technical_interest", Text: "Rate your interest in technical work (0-10).",
				Kind: models.QuestionNumber, Required: true, Weight: 3, Priority: 4,
				Min: &min0, Max: &max10,
			},
			{
				ID: "people_interest", Text: "Rate your interest in people-facing work (0-10).",
				Kind: models.QuestionNumber, Required: true, Weight: 2, Priority: 4,
				Min: &min0, Max: &max10,
			},
			{
				ID: "preferred_field", Text: "Which field attracts you most?",
				Kind: models.QuestionChoice, Required: true, Weight: 1, Priority: 3,
				Options: []models.Option{
					{Value: "engineering", Points: 8},
					{Value: "design", Points: 7},
					{Value: "business", Points: 7},
					{Value: "healthcare", Points: 8},
					{Value: "education", Points: 6},
				},
			},
			{
				ID: "proudest_achievement", Text: "Describe an achievement you are proud of.",
				Kind: models.QuestionText, Required: false, Priority: 2,
			},
			{
				ID: "five_year_goal", Text: "Where do you want to be in five years?",
				Kind: models.QuestionText, Required: false, Priority: 1,
			},
		},
	}
}
