package db_test

import (
	"context"
	"strings"
	"testing"

	"yuu/db"
	"yuu/models"
	"yuu/pipeline"
	"yuu/tools"
)

// runAgainstStore leva sonhos pelo orquestrador real usando o repositório dado,
// e confere apenas o que ficou persistido.
func runAgainstStore(t *testing.T, repo db.DreamRepository, ownerID int64) {
	t.Helper()
	ctx := context.Background()

	create := func(d models.Dream) string {
		t.Helper()
		d.OwnerID = ownerID
		if err := repo.Create(ctx, &d); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		return d.ID
	}
	load := func(id string) *models.Dream {
		t.Helper()
		got, err := repo.Load(ctx, id)
		if err != nil {
			t.Fatalf("Load %s failed: %v", id, err)
		}
		return got
	}

	resolver := pipeline.NewResolver(tools.MockTranscriber{Transcript: "I was being chased in the dark"}, []string{"gs://"})
	orch := pipeline.NewOrchestrator(repo, resolver, tools.NewMockAnalyzer())

	text := create(models.Dream{TextContent: "I was flying over the beach"})
	if err := orch.Run(ctx, text); err != nil {
		t.Fatalf("Run text dream failed: %v", err)
	}
	got := load(text)
	if got.Status != models.DREAM_STATUS_ANALYZED || got.Analysis == nil || got.Analysis.IsFailure() {
		t.Fatalf("expected analyzed dream, got %s %+v", got.Status, got.Analysis)
	}
	if got.Analysis.Model != tools.MockModelName || got.Analysis.SentimentScore <= 0 {
		t.Fatalf("unexpected analysis %+v", got.Analysis)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("updated_at before created_at")
	}
	firstUpdate := got.UpdatedAt

	audio := create(models.Dream{AudioURL: "gs://bucket/night.wav"})
	if err := orch.Run(ctx, audio); err != nil {
		t.Fatalf("Run audio dream failed: %v", err)
	}
	got = load(audio)
	if got.Status != models.DREAM_STATUS_ANALYZED || got.AudioTranscript != "I was being chased in the dark" {
		t.Fatalf("expected transcribed dream, got %s %q", got.Status, got.AudioTranscript)
	}
	if got.Analysis.SentimentScore >= 0 {
		t.Fatalf("analysis should come from the transcript, got sentiment %v", got.Analysis.SentimentScore)
	}

	local := create(models.Dream{AudioURL: "uploads/night.m4a"})
	if err := orch.Run(ctx, local); err == nil {
		t.Fatalf("expected error for local audio")
	}
	got = load(local)
	if got.Status != models.DREAM_STATUS_ERROR || got.Analysis == nil || !strings.Contains(got.Analysis.Error, "unsupported audio source") {
		t.Fatalf("expected unsupported source error, got %s %+v", got.Status, got.Analysis)
	}

	noService := pipeline.NewOrchestrator(repo, pipeline.NewResolver(tools.MockTranscriber{}, []string{"gs://"}), tools.NewMockAnalyzer())
	failed := create(models.Dream{AudioURL: "gs://bucket/other.wav"})
	if err := noService.Run(ctx, failed); err == nil {
		t.Fatalf("expected transcription error")
	}
	got = load(failed)
	if got.Status != models.DREAM_STATUS_ERROR || got.AudioTranscript != "" || !got.Analysis.IsFailure() {
		t.Fatalf("expected transcription failure, got %s %+v", got.Status, got.Analysis)
	}

	// nova análise sobrescreve o resultado anterior
	if err := orch.Run(ctx, text); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	again := load(text)
	if again.Status != models.DREAM_STATUS_ANALYZED || again.Analysis == nil || again.UpdatedAt.Before(firstUpdate) {
		t.Fatalf("unexpected dream after re-run %s %+v", again.Status, again.Analysis)
	}

	processing, _ := repo.ListByStatus(ctx, models.DREAM_STATUS_PROCESSING, 100)
	for _, d := range processing {
		if d.OwnerID == ownerID {
			t.Fatalf("dream %s left in processing", d.ID)
		}
	}
}

func TestOrchestratorWithSQLiteStore(t *testing.T) {
	runAgainstStore(t, newStore(t), 1)
}
