package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"yuu/pipeline"
	"yuu/tools"

	"github.com/openai/openai-go/option"
)

func responseBody(text string) map[string]any {
	return map[string]any{
		"id":         "resp_test",
		"object":     "response",
		"created_at": 1700000000,
		"model":      "gpt-test",
		"status":     "completed",
		"output": []any{
			map[string]any{
				"type":   "message",
				"id":     "msg_test",
				"role":   "assistant",
				"status": "completed",
				"content": []any{
					map[string]any{"type": "output_text", "text": text, "annotations": []any{}},
				},
			},
		},
	}
}

func TestOpenAIAnalyzerAnalyze(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/responses") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(responseBody(validOutput))
	}))
	defer srv.Close()

	a := tools.NewOpenAIAnalyzer("test-key", "gpt-test", 0.1, 512, option.WithBaseURL(srv.URL+"/"))
	analysis, err := a.Analyze(context.Background(), "I was flying over mountains")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.Summary != "A dream about flying over mountains." || analysis.Model != "gpt-test" {
		t.Fatalf("unexpected analysis %+v", analysis)
	}

	if gotBody["model"] != "gpt-test" {
		t.Fatalf("unexpected model in request: %v", gotBody["model"])
	}
	text, _ := gotBody["text"].(map[string]any)
	format, _ := text["format"].(map[string]any)
	if format["type"] != "json_schema" || format["strict"] != true {
		t.Fatalf("expected strict json_schema format, got %v", format)
	}
	if !strings.Contains(string(mustJSON(t, gotBody["input"])), "I was flying over mountains") {
		t.Fatalf("dream text missing from input: %v", gotBody["input"])
	}
}

func TestOpenAIAnalyzerHTTPErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
	}))
	defer srv.Close()

	a := tools.NewOpenAIAnalyzer("test-key", "gpt-test", 0.1, 512, option.WithBaseURL(srv.URL+"/"))
	_, err := a.Analyze(context.Background(), "text")
	if !errors.Is(err, pipeline.ErrAnalysisService) {
		t.Fatalf("expected ErrAnalysisService, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected a single call, got %d", n)
	}
}

func TestOpenAIAnalyzerBadOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(responseBody("sorry, no JSON today"))
	}))
	defer srv.Close()

	a := tools.NewOpenAIAnalyzer("test-key", "gpt-test", 0.1, 512, option.WithBaseURL(srv.URL+"/"))
	if _, err := a.Analyze(context.Background(), "text"); !errors.Is(err, pipeline.ErrAnalysisService) {
		t.Fatalf("expected ErrAnalysisService, got %v", err)
	}
}

func TestMockAnalyzerIsValid(t *testing.T) {
	a, err := tools.NewMockAnalyzer().Analyze(context.Background(), "I was being chased in the dark")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("mock output must validate: %v", err)
	}
	if a.SentimentScore >= 0 {
		t.Fatalf("expected negative sentiment, got %v", a.SentimentScore)
	}
}

func TestMockAnalyzerSummaryKeepsUTF8(t *testing.T) {
	text := strings.Repeat("a", 79) + "ção sonhei que voava"
	a, err := tools.NewMockAnalyzer().Analyze(context.Background(), text)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !utf8.ValidString(a.Summary) {
		t.Fatalf("summary is not valid UTF-8: %q", a.Summary)
	}
	if want := "Dream about: " + strings.Repeat("a", 79) + "..."; a.Summary != want {
		t.Fatalf("unexpected summary %q", a.Summary)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}
