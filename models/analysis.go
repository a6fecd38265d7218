package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

/************************************************
/**** MARK: ANALYSIS STATUS ****/
/************************************************/
const ANALYSIS_STATUS_COMPLETE = "complete"
const ANALYSIS_STATUS_ERROR = "error"

/************************************************
/**** MARK: RISK LEVELS ****/
/************************************************/
const RISK_NONE = "none"
const RISK_LOW = "low"
const RISK_MEDIUM = "medium"
const RISK_HIGH = "high"

// Analysis é o resultado do pipeline gravado no dream.
// Status funciona como tag: "complete" carrega o resultado do modelo,
// "error" carrega apenas a mensagem em Error.
type Analysis struct {
	Status         string             `json:"status" firestore:"status"`
	Error          string             `json:"error,omitempty" firestore:"error,omitempty"`
	Model          string             `json:"model,omitempty" firestore:"model,omitempty"`
	GeneratedAt    *time.Time         `json:"generated_at,omitempty" firestore:"generated_at,omitempty"`
	Summary        string             `json:"summary,omitempty" firestore:"summary,omitempty"`
	Emotions       map[string]float64 `json:"emotions,omitempty" firestore:"emotions,omitempty"`
	SentimentScore float64            `json:"sentiment_score" firestore:"sentiment_score"`
	Themes         []string           `json:"themes,omitempty" firestore:"themes,omitempty"`
	Symbols        []Symbol           `json:"symbols,omitempty" firestore:"symbols,omitempty"`
	RiskFlags      *RiskFlags         `json:"risk_flags,omitempty" firestore:"risk_flags,omitempty"`
	RawResponse    string             `json:"raw_response,omitempty" firestore:"raw_response,omitempty"`
}

type Symbol struct {
	Symbol      string  `json:"symbol" firestore:"symbol"`
	Confidence  float64 `json:"confidence" firestore:"confidence"`
	Explanation string  `json:"explanation" firestore:"explanation"`
}

type RiskFlags struct {
	SelfHarm     string `json:"self_harm" firestore:"self_harm"`
	Suicide      string `json:"suicide" firestore:"suicide"`
	Violence     bool   `json:"violence" firestore:"violence"`
	AbuseMention bool   `json:"abuse_mention" firestore:"abuse_mention"`
}

// NewFailedAnalysis monta o objeto mínimo gravado quando o pipeline falha.
func NewFailedAnalysis(message string) *Analysis {
	return &Analysis{Status: ANALYSIS_STATUS_ERROR, Error: message}
}

// IsFailure indica a variante de erro.
func (a Analysis) IsFailure() bool {
	return a.Status == ANALYSIS_STATUS_ERROR
}

// Validate confere a variante indicada por Status.
func (a Analysis) Validate() error {
	switch a.Status {
	case ANALYSIS_STATUS_ERROR:
		if strings.TrimSpace(a.Error) == "" {
			return fmt.Errorf("error analysis without message")
		}
		if a.Summary != "" || len(a.Emotions) > 0 || len(a.Themes) > 0 || len(a.Symbols) > 0 || a.RiskFlags != nil {
			return fmt.Errorf("error analysis carries result fields")
		}
		return nil
	case ANALYSIS_STATUS_COMPLETE:
	default:
		return fmt.Errorf("unknown analysis status %q", a.Status)
	}

	if strings.TrimSpace(a.Summary) == "" {
		return fmt.Errorf("summary is empty")
	}
	if a.SentimentScore < -1 || a.SentimentScore > 1 {
		return fmt.Errorf("sentiment_score %v out of [-1,1]", a.SentimentScore)
	}
	for label, score := range a.Emotions {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("emotion with empty label")
		}
		if score < 0 || score > 1 {
			return fmt.Errorf("emotion %q score %v out of [0,1]", label, score)
		}
	}
	for _, s := range a.Symbols {
		if strings.TrimSpace(s.Symbol) == "" {
			return fmt.Errorf("symbol with empty name")
		}
		if s.Confidence < 0 || s.Confidence > 1 {
			return fmt.Errorf("symbol %q confidence %v out of [0,1]", s.Symbol, s.Confidence)
		}
	}
	if a.RiskFlags == nil {
		return fmt.Errorf("risk_flags missing")
	}
	return a.RiskFlags.Validate()
}

func (r RiskFlags) Validate() error {
	if !IsRiskLevel(r.SelfHarm) {
		return fmt.Errorf("self_harm %q is not a risk level", r.SelfHarm)
	}
	if !IsRiskLevel(r.Suicide) {
		return fmt.Errorf("suicide %q is not a risk level", r.Suicide)
	}
	return nil
}

func IsRiskLevel(v string) bool {
	switch v {
	case RISK_NONE, RISK_LOW, RISK_MEDIUM, RISK_HIGH:
		return true
	}
	return false
}

func (a Analysis) Value() (driver.Value, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis: %w", err)
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Analysis) Scan(src any) error {
	b, err := columnBytes(src)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*a = Analysis{}
		return nil
	}
	if err := json.Unmarshal(b, a); err != nil {
		return err
	}
	return a.Validate()
}
