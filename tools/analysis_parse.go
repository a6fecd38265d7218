package tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"yuu/models"
	"yuu/pipeline"
)

// analysisOutput is the JSON object the model is asked to produce.
type analysisOutput struct {
	Summary        string          `json:"summary" jsonschema:"required,description=Two or three sentence summary of the dream"`
	Emotions       emotionList     `json:"emotions" jsonschema:"required,description=Emotions present in the dream with intensity from 0 to 1"`
	SentimentScore float64         `json:"sentiment_score" jsonschema:"required,description=Overall sentiment from -1 (negative) to 1 (positive)"`
	Themes         []string        `json:"themes" jsonschema:"required,description=Main themes ordered by relevance"`
	Symbols        []symbolOutput  `json:"symbols" jsonschema:"required"`
	RiskFlags      riskFlagsOutput `json:"risk_flags" jsonschema:"required"`
}

type emotionScore struct {
	Label string  `json:"label" jsonschema:"required"`
	Score float64 `json:"score" jsonschema:"required,description=Intensity from 0 to 1"`
}

// emotionList also accepts the {"fear": 0.8} object form some models return.
type emotionList []emotionScore

func (l *emotionList) UnmarshalJSON(b []byte) error {
	var list []emotionScore
	if err := json.Unmarshal(b, &list); err == nil {
		*l = list
		return nil
	}
	var obj map[string]float64
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("emotions must be a list or an object of scores")
	}
	out := make(emotionList, 0, len(obj))
	for label, score := range obj {
		out = append(out, emotionScore{Label: label, Score: score})
	}
	*l = out
	return nil
}

type symbolOutput struct {
	Symbol      string  `json:"symbol" jsonschema:"required"`
	Confidence  float64 `json:"confidence" jsonschema:"required,description=Confidence from 0 to 1"`
	Explanation string  `json:"explanation" jsonschema:"required"`
}

type riskFlagsOutput struct {
	SelfHarm     string `json:"self_harm" jsonschema:"required,enum=none,enum=low,enum=medium,enum=high"`
	Suicide      string `json:"suicide" jsonschema:"required,enum=none,enum=low,enum=medium,enum=high"`
	Violence     bool   `json:"violence" jsonschema:"required"`
	AbuseMention bool   `json:"abuse_mention" jsonschema:"required"`
}

var analysisSchema = GenerateSchema[analysisOutput]()

// ParseAnalysis turns raw model output into a validated analysis.
// Every failure is reported as pipeline.ErrAnalysisService.
func ParseAnalysis(raw string, model string, generatedAt time.Time) (*models.Analysis, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response from model", pipeline.ErrAnalysisService)
	}

	var out analysisOutput
	if err := decodeModelJSON(cleaned, &out); err != nil {
		return nil, fmt.Errorf("%w: unparseable model output: %v (model_output_prefix=%q)", pipeline.ErrAnalysisService, err, Truncate(cleaned, 200))
	}

	at := generatedAt.UTC()
	analysis := &models.Analysis{
		Status:         models.ANALYSIS_STATUS_COMPLETE,
		Model:          model,
		GeneratedAt:    &at,
		Summary:        strings.TrimSpace(out.Summary),
		SentimentScore: out.SentimentScore,
		RiskFlags: &models.RiskFlags{
			SelfHarm:     normalizeRisk(out.RiskFlags.SelfHarm),
			Suicide:      normalizeRisk(out.RiskFlags.Suicide),
			Violence:     out.RiskFlags.Violence,
			AbuseMention: out.RiskFlags.AbuseMention,
		},
		RawResponse: cleaned,
	}
	if len(out.Emotions) > 0 {
		analysis.Emotions = make(map[string]float64, len(out.Emotions))
		for _, e := range out.Emotions {
			label := strings.ToLower(strings.TrimSpace(e.Label))
			if _, dup := analysis.Emotions[label]; dup {
				return nil, fmt.Errorf("%w: schema violation: duplicate emotion %q", pipeline.ErrAnalysisService, label)
			}
			analysis.Emotions[label] = e.Score
		}
	}
	for _, t := range out.Themes {
		if t = strings.TrimSpace(t); t != "" {
			analysis.Themes = append(analysis.Themes, t)
		}
	}
	for _, s := range out.Symbols {
		analysis.Symbols = append(analysis.Symbols, models.Symbol{
			Symbol:      strings.TrimSpace(s.Symbol),
			Confidence:  s.Confidence,
			Explanation: strings.TrimSpace(s.Explanation),
		})
	}

	if err := analysis.Validate(); err != nil {
		return nil, fmt.Errorf("%w: schema violation: %v", pipeline.ErrAnalysisService, err)
	}
	return analysis, nil
}

func normalizeRisk(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return models.RISK_NONE
	}
	return v
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// decodeModelJSON decodes v from s, falling back to the outermost {...} when
// the model wrapped the object in prose.
func decodeModelJSON(s string, v any) error {
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end <= start {
		return fmt.Errorf("no JSON object found")
	}
	return json.Unmarshal([]byte(s[start:end+1]), v)
}

// Truncate corta s em no máximo n bytes sem quebrar um caractere UTF-8, marcando o corte.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 0 {
		return "..."
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
