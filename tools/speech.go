package tools

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
)

// SpeechTranscriber transcribes gs:// audio with Google Cloud Speech-to-Text.
type SpeechTranscriber struct {
	client       *speech.Client
	languageCode string
}

func NewSpeechTranscriber(ctx context.Context, languageCode string) (*SpeechTranscriber, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating speech client: %w", err)
	}
	if languageCode == "" {
		languageCode = "en-US"
	}
	return &SpeechTranscriber{client: client, languageCode: languageCode}, nil
}

func (t *SpeechTranscriber) Close() error {
	return t.client.Close()
}

// Transcribe uses long running recognition so recordings over one minute are accepted.
func (t *SpeechTranscriber) Transcribe(ctx context.Context, remoteAudioURI string) (string, error) {
	op, err := t.client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               t.languageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: remoteAudioURI},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognize %s: %w", remoteAudioURI, err)
	}

	resp, err := op.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("speech wait %s: %w", remoteAudioURI, err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if s := strings.TrimSpace(alts[0].GetTranscript()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}
