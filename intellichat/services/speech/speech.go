// intellichat/services/speech/speech.go
package speech

import (
	"context"
	"fmt"
	"io"
	"strings"

	"intellichat/intellichat/config"
	"intellichat/intellichat/utils/logging"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Recognition failure kinds. Each maps to a distinct user-facing warning;
// none of them produces a conversation message.
const (
	KindNoAudio        = "no-audio"
	KindUnintelligible = "unintelligible"
	KindUnreachable    = "unreachable"
)

// RecognitionError is a failed speech-to-text attempt. The turn's input is
// treated as absent: no message is assembled or sent.
type RecognitionError struct {
	Kind string
	Err  error
}

func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("speech recognition (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("speech recognition (%s)", e.Kind)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// ErrNoAudio reports that no audio was captured (e.g. the browser found
// no microphone).
func ErrNoAudio() *RecognitionError {
	return &RecognitionError{Kind: KindNoAudio}
}

// Recognizer transcribes captured microphone audio through the hosted
// transcription endpoint.
type Recognizer struct {
	client openai.Client
	model  string
}

func NewRecognizer(cfg config.Config) *Recognizer {
	opts := []option.RequestOption{option.WithAPIKey(cfg.SpeechAPIKey)}
	if cfg.SpeechBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.SpeechBaseURL))
	}
	return &Recognizer{
		client: openai.NewClient(opts...),
		model:  cfg.SpeechModel,
	}
}

// Transcribe converts the uploaded audio to text. An unreachable service
// and an unintelligible recording are reported as distinct failures.
func (r *Recognizer) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	defer logging.LogDuration(ctx, "speech_transcribe")()

	resp, err := r.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(audio, filename, "application/octet-stream"),
		Model: openai.AudioModel(r.model),
	})
	if err != nil {
		return "", &RecognitionError{Kind: KindUnreachable, Err: err}
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", &RecognitionError{Kind: KindUnintelligible, Err: fmt.Errorf("empty transcript")}
	}
	return text, nil
}
