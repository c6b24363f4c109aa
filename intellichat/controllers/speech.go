// intellichat/controllers/speech.go
package controllers

import (
	"context"
	"io"

	"intellichat/intellichat/services/speech"
)

type SpeechController struct {
	recognizer *speech.Recognizer
}

func NewSpeechController(recognizer *speech.Recognizer) *SpeechController {
	return &SpeechController{recognizer: recognizer}
}

// Transcribe converts captured audio to prompt text. A missing upload is
// reported as the no-audio case; all failures leave the conversation
// untouched — the browser surfaces the warning and sends nothing.
func (c *SpeechController) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if audio == nil {
		return "", speech.ErrNoAudio()
	}
	return c.recognizer.Transcribe(ctx, audio, filename)
}
