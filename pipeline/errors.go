package pipeline

import "errors"

var (
	// ErrNotFound: the dream does not exist. Runs abort without mutation.
	ErrNotFound = errors.New("dream not found")

	ErrUnsupportedAudioSource = errors.New("unsupported audio source")
	ErrNoAnalyzableContent    = errors.New("no analyzable content")
	ErrTranscription          = errors.New("transcription error")
	ErrAnalysisService        = errors.New("analysis error")

	// ErrPersistence wraps store write failures. A decision whose write fails is lost.
	ErrPersistence = errors.New("persistence error")

	// ErrClaimConflict: the persisted status changed between load and claim,
	// or another run already holds the dream in processing.
	ErrClaimConflict = errors.New("dream already claimed by another run")
)
