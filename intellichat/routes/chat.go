// intellichat/routes/chat.go
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"intellichat/intellichat/controllers"
	"intellichat/intellichat/middlewares"
	"intellichat/intellichat/prompt"
	"intellichat/intellichat/sessions"
	"intellichat/intellichat/types"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 32 << 20

func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// inputFromForm maps the browser's multipart turn form onto a prompt input.
func inputFromForm(r *http.Request) (prompt.Input, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return prompt.Input{}, err
	}
	in := prompt.Input{
		Text:     r.FormValue("prompt"),
		ImageURL: r.FormValue("image_url"),
	}
	var err error
	if in.ImageData, err = readFormFile(r, "image"); err != nil {
		return prompt.Input{}, err
	}
	if in.TextFile, err = readFormFile(r, "text_file"); err != nil {
		return prompt.Input{}, err
	}
	if in.DataFile, err = readFormFile(r, "data_file"); err != nil {
		return prompt.Input{}, err
	}
	return in, nil
}

// turnErrorStatus maps turn-level failures onto HTTP statuses. Model
// invocation failures never reach here; the gateway absorbs them into the
// conversation.
func turnErrorStatus(err error) int {
	var attach *prompt.AttachmentError
	switch {
	case errors.Is(err, sessions.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &attach):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func ChatRoutes(ctrl *controllers.ChatController, manager *sessions.Manager) chi.Router {
	r := chi.NewRouter()

	// POST /sessions : create a session, generate its welcome message
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		sess, welcome := ctrl.CreateSession(r.Context())
		writeJSON(w, http.StatusCreated, types.SessionResponse{
			SessionID: sess.ID,
			Welcome:   welcome,
		})
	})

	r.Route("/{session_id}", func(gr chi.Router) {
		gr.Use(middlewares.SessionMiddleware(manager))

		// POST /sessions/{id}/messages : run one chat turn
		gr.Post("/messages", func(w http.ResponseWriter, r *http.Request) {
			sess := middlewares.SessionFromContext(r.Context())
			in, err := inputFromForm(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			view, err := ctrl.SendMessage(r.Context(), sess, in)
			if err != nil {
				writeJSON(w, turnErrorStatus(err), map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, types.TurnResponse{SessionID: sess.ID, Message: view})
		})

		// GET /sessions/{id}/messages : conversation log for rendering
		gr.Get("/messages", func(w http.ResponseWriter, r *http.Request) {
			sess := middlewares.SessionFromContext(r.Context())
			writeJSON(w, http.StatusOK, ctrl.Messages(sess))
		})

		// DELETE /sessions/{id} : session teardown
		gr.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			sess := middlewares.SessionFromContext(r.Context())
			ctrl.DeleteSession(sess.ID)
			w.WriteHeader(http.StatusNoContent)
		})

		// GET /sessions/{id}/ws : one streamed turn per connection
		gr.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			sess := middlewares.SessionFromContext(r.Context())
			conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
			if err != nil {
				return
			}
			defer conn.Close(websocket.StatusInternalError, "internal error")

			ctx := r.Context()
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			if typ != websocket.MessageText {
				conn.Close(websocket.StatusUnsupportedData, "unsupported data")
				return
			}
			var input types.WSChatInput
			if err := json.Unmarshal(data, &input); err != nil {
				writeWSEvent(ctx, conn, types.WSChatEvent{Type: "error", Error: "invalid json"})
				return
			}

			in := prompt.Input{Text: input.Prompt, ImageURL: input.ImageURL}
			view, err := ctrl.SendMessageStream(ctx, sess, in, func(chunk string) {
				writeWSEvent(ctx, conn, types.WSChatEvent{Type: "chunk", Chunk: chunk})
			})
			if err != nil {
				writeWSEvent(ctx, conn, types.WSChatEvent{Type: "error", Error: err.Error()})
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			writeWSEvent(ctx, conn, types.WSChatEvent{Type: "message", Message: &view})
			conn.Close(websocket.StatusNormalClosure, "")
		})
	})
	return r
}

func writeWSEvent(ctx context.Context, conn *websocket.Conn, ev types.WSChatEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_ = conn.Write(ctx, websocket.MessageText, data)
}
