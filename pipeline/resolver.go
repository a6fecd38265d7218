package pipeline

import (
	"context"
	"fmt"
	"strings"

	"yuu/models"
)

// DefaultRemoteSchemes are the audio URI prefixes the transcriber can reach.
var DefaultRemoteSchemes = []string{"gs://"}

// Resolver decides which text of a dream is analyzable.
type Resolver struct {
	transcriber   Transcriber
	remoteSchemes []string
}

func NewResolver(transcriber Transcriber, remoteSchemes []string) *Resolver {
	if len(remoteSchemes) == 0 {
		remoteSchemes = DefaultRemoteSchemes
	}
	return &Resolver{transcriber: transcriber, remoteSchemes: remoteSchemes}
}

// IsRemoteAudio reports whether the URL uses one of the remote-storage schemes.
func (r *Resolver) IsRemoteAudio(audioURL string) bool {
	return hasRemoteScheme(audioURL, r.remoteSchemes)
}

// HasAnalyzableContent is the synchronous precondition checked before a run is scheduled.
func (r *Resolver) HasAnalyzableContent(dream *models.Dream) bool {
	if strings.TrimSpace(dream.TextContent) != "" {
		return true
	}
	return r.IsRemoteAudio(dream.AudioURL)
}

// Resolve returns the text to analyze. On successful transcription the
// transcript is set on dream; it is persisted with the next state write.
func (r *Resolver) Resolve(ctx context.Context, dream *models.Dream) (string, error) {
	if text := strings.TrimSpace(dream.TextContent); text != "" {
		return text, nil
	}

	audioURL := strings.TrimSpace(dream.AudioURL)
	if audioURL == "" {
		return "", fmt.Errorf("%w: dream has neither text nor audio", ErrNoAnalyzableContent)
	}
	if !r.IsRemoteAudio(audioURL) {
		return "", fmt.Errorf("%w: audio_url %q is not a remote storage URI (%s); transcription requires remote audio",
			ErrUnsupportedAudioSource, audioURL, strings.Join(r.remoteSchemes, ", "))
	}
	if r.transcriber == nil {
		return "", fmt.Errorf("%w: no transcriber configured", ErrTranscription)
	}

	transcript, err := r.transcriber.Transcribe(ctx, audioURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", fmt.Errorf("%w: transcription returned no text", ErrNoAnalyzableContent)
	}

	dream.AudioTranscript = transcript
	return transcript, nil
}

func hasRemoteScheme(audioURL string, schemes []string) bool {
	audioURL = strings.TrimSpace(audioURL)
	if audioURL == "" {
		return false
	}
	lower := strings.ToLower(audioURL)
	for _, s := range schemes {
		if s != "" && strings.HasPrefix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
