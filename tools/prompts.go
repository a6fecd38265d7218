package tools

import (
	"encoding/json"
	"strings"
)

const dreamAnalysisInstructions = `You are an empathetic mental health analysis assistant. Analyze the user's dream text.
Describe the dream in a short summary, score the emotions present (0 to 1), give an overall
sentiment score (-1.0 to 1.0), list the main themes and the symbols with a confidence (0 to 1)
and a short explanation. Flag risks conservatively: self_harm and suicide as none, low, medium
or high; violence and abuse_mention as booleans.
Return only the JSON object, no other text and no markdown fences.`

// buildAnalysisPrompt inlines the schema for models without structured output support.
func buildAnalysisPrompt(text string) string {
	schema, _ := json.MarshalIndent(analysisSchema, "", "  ")

	var b strings.Builder
	b.WriteString(dreamAnalysisInstructions)
	b.WriteString("\n\nThe JSON object must follow this JSON schema:\n")
	b.Write(schema)
	b.WriteString("\n\nDream text:\n---\n")
	b.WriteString(text)
	b.WriteString("\n---\n\nReturn only the valid JSON object.")
	return b.String()
}
