// intellichat/types/chat.go
package types

// Role identifies which side of the conversation a message belongs to.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ImagePart is an in-memory image attached to a user message.
// Data is delivered to the browser base64-encoded by encoding/json.
type ImagePart struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Part is one content item within a message: text, or an image.
// Exactly one field is set.
type Part struct {
	Text  string     `json:"text,omitempty"`
	Image *ImagePart `json:"image,omitempty"`
}

// Message is one turn entry in the conversation log. A user message has
// one text part, optionally followed by one image part; a model message
// has exactly one text part. Messages are never mutated after creation.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewUserMessage builds a user message from prompt text and an optional image.
func NewUserMessage(text string, image *ImagePart) Message {
	parts := []Part{{Text: text}}
	if image != nil {
		parts = append(parts, Part{Image: image})
	}
	return Message{Role: RoleUser, Parts: parts}
}

// NewModelMessage builds a single-part model message.
func NewModelMessage(text string) Message {
	return Message{Role: RoleModel, Parts: []Part{{Text: text}}}
}

// Text returns the message's text part.
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return ""
	}
	return m.Parts[0].Text
}

// HasImage reports whether the message carries an image part.
func (m Message) HasImage() bool {
	return len(m.Parts) > 1 && m.Parts[1].Image != nil
}

// MessageView is a message as rendered to the browser: the message itself
// plus any graph blocks extracted from a model response.
type MessageView struct {
	Message
	Graphs []string `json:"graphs,omitempty"`
}

// SessionResponse is returned when a new session is created.
type SessionResponse struct {
	SessionID string       `json:"session_id"`
	Welcome   *MessageView `json:"welcome,omitempty"`
}

// TurnResponse is returned for a completed chat turn.
type TurnResponse struct {
	SessionID string      `json:"session_id"`
	Message   MessageView `json:"message"`
}

// TranscriptResponse is returned for a successful speech transcription.
type TranscriptResponse struct {
	Transcript string `json:"transcript"`
}

// WSChatInput is the request frame the browser sends on the chat websocket.
type WSChatInput struct {
	Prompt   string `json:"prompt"`
	ImageURL string `json:"image_url,omitempty"`
}

// WSChatEvent is one frame written back on the chat websocket: incremental
// "chunk" events while the model responds, then a final "message" event.
type WSChatEvent struct {
	Type    string       `json:"type"`
	Chunk   string       `json:"chunk,omitempty"`
	Message *MessageView `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}
