// intellichat/routes/speech.go
package routes

import (
	"errors"
	"net/http"

	"intellichat/intellichat/controllers"
	"intellichat/intellichat/services/speech"
	"intellichat/intellichat/types"

	"github.com/go-chi/chi/v5"
)

// recognitionStatus maps a recognition failure kind onto an HTTP status.
func recognitionStatus(rec *speech.RecognitionError) int {
	switch rec.Kind {
	case speech.KindUnreachable:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

func SpeechRoutes(ctrl *controllers.SpeechController) chi.Router {
	r := chi.NewRouter()

	// POST /speech : transcribe captured microphone audio. Failures are
	// warnings only; nothing is sent to the model either way.
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("audio")
		if errors.Is(err, http.ErrMissingFile) {
			rec := speech.ErrNoAudio()
			writeJSON(w, recognitionStatus(rec), map[string]string{
				"error": rec.Error(), "kind": rec.Kind,
			})
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		transcript, err := ctrl.Transcribe(r.Context(), file, header.Filename)
		if err != nil {
			var rec *speech.RecognitionError
			if !errors.As(err, &rec) {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, recognitionStatus(rec), map[string]string{
				"error": rec.Error(), "kind": rec.Kind,
			})
			return
		}
		writeJSON(w, http.StatusOK, types.TranscriptResponse{Transcript: transcript})
	})
	return r
}
