package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"
)

// ReportModel is the AI-model collaborator. Implementations translate their
// transport failures into the typed model errors in the models package so the
// retry policy can tell transient from terminal.
type ReportModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Tag() string
}

type geminiModel struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

func NewGeminiModel(apiKey, modelName string) (ReportModel, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &geminiModel{
		client:      client,
		modelName:   modelName,
		temperature: 0.5,
	}, nil
}

func (g *geminiModel) Tag() string {
	return g.modelName
}

func (g *geminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     &g.temperature,
		MaxOutputTokens: 4096,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", classifyModelError(err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", models.ErrModelUnavailable)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty response", models.ErrModelUnavailable)
	}
	return text, nil
}

// classifyModelError maps transport and API errors onto the typed model
// failures. Unknown failures default to transient so the retry budget, not a
// guess, decides when to give up.
func classifyModelError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrModelTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", models.ErrModelRateLimited, err)
		case apiErr.Code == http.StatusBadRequest,
			apiErr.Code == http.StatusForbidden,
			apiErr.Code == http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %v", models.ErrModelRejected, err)
		case apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
}
