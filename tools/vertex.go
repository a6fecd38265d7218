package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"yuu/models"
	"yuu/pipeline"

	"google.golang.org/genai"
)

// VertexAnalyzer analyzes dream text with a Gemini model on Vertex AI.
type VertexAnalyzer struct {
	client          *genai.Client
	modelName       string
	temperature     float32
	maxOutputTokens int32
	now             func() time.Time
}

func NewVertexAnalyzer(ctx context.Context, projectID, location, modelName string, temperature float64, maxOutputTokens int) (*VertexAnalyzer, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("google project and region must be set")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash-lite"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexAnalyzer{
		client:          client,
		modelName:       modelName,
		temperature:     float32(temperature),
		maxOutputTokens: int32(maxOutputTokens),
		now:             time.Now,
	}, nil
}

func (v *VertexAnalyzer) Analyze(ctx context.Context, text string) (*models.Analysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", pipeline.ErrAnalysisService)
	}

	temp := v.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temp,
		MaxOutputTokens:  v.maxOutputTokens,
		ResponseMIMEType: "application/json",
	}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, genai.Text(buildAnalysisPrompt(text)), cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: vertex generate content: %v", pipeline.ErrAnalysisService, err)
	}

	return ParseAnalysis(res.Text(), v.modelName, v.now())
}
