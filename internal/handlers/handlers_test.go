package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/kavyp12/carrer-guide-new-one/internal/middleware"
	"github.com/kavyp12/carrer-guide-new-one/internal/models"
	"github.com/kavyp12/carrer-guide-new-one/internal/repositories"
	"github.com/kavyp12/carrer-guide-new-one/internal/services"
)

type stubWorker struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (w *stubWorker) Start(ctx context.Context) {}
func (w *stubWorker) Stop()                     {}

func (w *stubWorker) Enqueue(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ids = append(w.ids, id)
}

func (w *stubWorker) enqueued() []uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]uuid.UUID(nil), w.ids...)
}

type testApp struct {
	app       *fiber.App
	repo      *repositories.MemorySubmissionRepository
	artifacts services.ArtifactStore
	auth      *services.AuthService
	worker    *stubWorker
}

func testSchema() *models.QuestionnaireSchema {
	min0, max10 := 0.0, 10.0
	return &models.QuestionnaireSchema{
		Version:     "quiz-v1",
		Title:       "Quiz",
		Aggregation: models.AggregationSum,
		Questions: []models.Question{
			{
				ID: "q1", Text: "Do you enjoy teamwork?", Kind: models.QuestionChoice,
				Required: true, Weight: 1, Priority: 2,
				Options: []models.Option{
					{Value: "yes", Points: 5},
					{Value: "no", Points: 2},
				},
			},
			{
				ID: "q2", Text: "Rate your focus (0-10).", Kind: models.QuestionNumber,
				Required: true, Weight: 2, Priority: 1,
				Min: &min0, Max: &max10,
			},
		},
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	repo := repositories.NewMemorySubmissionRepository()
	schemas := services.NewSchemaRegistry()
	if err := schemas.Register(testSchema()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	artifacts, err := services.NewFileArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileArtifactStore: %v", err)
	}
	auth := services.NewAuthService("test-secret", time.Hour)
	worker := &stubWorker{}

	app := fiber.New()
	api := app.Group("/api/v1", middleware.RequireUser(auth))
	api.Post("/assessments", NewSubmitHandler(repo, schemas, worker).HandleSubmit)
	api.Get("/assessments/:id/report", NewReportHandler(repo, artifacts).HandleGetReport)

	return &testApp{
		app:       app,
		repo:      repo,
		artifacts: artifacts,
		auth:      auth,
		worker:    worker,
	}
}

func (ta *testApp) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := ta.auth.IssueToken(userID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token
}

func (ta *testApp) addSubmission(t *testing.T, ownerID string, state models.SubmissionState) *models.Submission {
	t.Helper()
	now := time.Now()
	sub := &models.Submission{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		SchemaVersion: "quiz-v1",
		Answers:       map[string]any{"q1": "yes", "q2": 7.0},
		State:         state,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := ta.repo.Create(sub); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return sub
}
