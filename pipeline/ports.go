package pipeline

import (
	"context"

	"yuu/models"
)

// Store is the record store used by the orchestrator.
type Store interface {
	// Load returns ErrNotFound when the id is unknown.
	Load(ctx context.Context, id string) (*models.Dream, error)
	// Replace writes the whole document.
	Replace(ctx context.Context, dream *models.Dream) error
	// Claim moves the dream to processing only if the persisted status still
	// equals dream.Status. A dream already processing is only claimed when force is set.
	// On success dream reflects the persisted document.
	Claim(ctx context.Context, dream *models.Dream, force bool) error
}

// Transcriber converts a remote audio reference into text.
type Transcriber interface {
	Transcribe(ctx context.Context, remoteAudioURI string) (string, error)
}

// Analyzer converts text into a complete analysis. Failures must wrap ErrAnalysisService.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*models.Analysis, error)
}
