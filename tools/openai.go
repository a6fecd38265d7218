package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"yuu/models"
	"yuu/pipeline"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// OpenAIAnalyzer analyzes dream text with the Responses API and a strict JSON schema.
type OpenAIAnalyzer struct {
	client          *openai.Client
	model           string
	temperature     float64
	maxOutputTokens int64
	now             func() time.Time
}

// NewOpenAIAnalyzer creates the analyzer. Client retries are disabled: one call either succeeds or fails.
func NewOpenAIAnalyzer(apiKey, model string, temperature float64, maxOutputTokens int, opts ...option.RequestOption) *OpenAIAnalyzer {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := openai.NewClient(opts...)

	return &OpenAIAnalyzer{
		client:          &client,
		model:           model,
		temperature:     temperature,
		maxOutputTokens: int64(maxOutputTokens),
		now:             time.Now,
	}
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, text string) (*models.Analysis, error) {
	if a.client == nil {
		return nil, fmt.Errorf("%w: openai client is nil", pipeline.ErrAnalysisService)
	}
	if a.model == "" {
		return nil, fmt.Errorf("%w: openai model is empty", pipeline.ErrAnalysisService)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", pipeline.ErrAnalysisService)
	}

	params := responses.ResponseNewParams{
		Model:           a.model,
		MaxOutputTokens: openai.Int(a.maxOutputTokens),
		Temperature:     openai.Float(a.temperature),
		Instructions:    openai.String(dreamAnalysisInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "DreamAnalysis",
					Schema:      analysisSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Dream analysis JSON"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: openai error %d: %v", pipeline.ErrAnalysisService, apiErr.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: openai request: %v", pipeline.ErrAnalysisService, err)
	}

	return ParseAnalysis(resp.OutputText(), a.model, a.now())
}
