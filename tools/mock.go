package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"yuu/models"
	"yuu/pipeline"
)

const MockModelName = "mock-analyzer"

// MockAnalyzer is used in local mode (no AI credentials). Deterministic output.
type MockAnalyzer struct {
	now func() time.Time
}

func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{now: time.Now}
}

var mockNegativeWords = []string{"chased", "fall", "falling", "dark", "lost", "afraid", "scared", "dead", "trapped"}
var mockPositiveWords = []string{"flying", "fly", "happy", "light", "love", "free", "beach", "sun"}

func (m *MockAnalyzer) Analyze(ctx context.Context, text string) (*models.Analysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", pipeline.ErrAnalysisService)
	}

	lower := strings.ToLower(text)
	var pos, neg int
	for _, w := range mockPositiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range mockNegativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}

	sentiment := 0.0
	if pos+neg > 0 {
		sentiment = float64(pos-neg) / float64(pos+neg)
	}
	emotions := map[string]float64{"calm": 0.5}
	if neg > 0 {
		emotions = map[string]float64{"anxiety": 0.7, "fear": 0.6}
	} else if pos > 0 {
		emotions = map[string]float64{"joy": 0.7, "freedom": 0.6}
	}

	at := m.now().UTC()
	return &models.Analysis{
		Status:         models.ANALYSIS_STATUS_COMPLETE,
		Model:          MockModelName,
		GeneratedAt:    &at,
		Summary:        "Dream about: " + Truncate(text, 80),
		Emotions:       emotions,
		SentimentScore: sentiment,
		Themes:         []string{"personal reflection"},
		RiskFlags: &models.RiskFlags{
			SelfHarm: models.RISK_NONE,
			Suicide:  models.RISK_NONE,
		},
		RawResponse: "mock",
	}, nil
}

// MockTranscriber returns Transcript for any URI. Empty Transcript fails, as in local mode without a speech service.
type MockTranscriber struct {
	Transcript string
}

func (m MockTranscriber) Transcribe(ctx context.Context, remoteAudioURI string) (string, error) {
	if m.Transcript == "" {
		return "", fmt.Errorf("no transcription service configured (local mode) for %s", remoteAudioURI)
	}
	return m.Transcript, nil
}
