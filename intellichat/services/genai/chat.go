package genai

import (
	"context"

	"intellichat/intellichat/types"
)

// ChatSession is the running conversation handle for the text model. It
// accumulates the turn history and replays it on every call, so each
// request sees the prior turns without the caller passing them in. One
// handle per interactive session; not safe for concurrent use (the session
// layer serializes turns).
type ChatSession struct {
	client  *Client
	history []content
}

// StartChat opens a fresh conversation handle with empty history.
func (c *Client) StartChat() *ChatSession {
	return &ChatSession{client: c}
}

// Send delivers one user turn to the text model and returns its reply.
// The turn is recorded in the handle's history only when the call
// succeeds; a failed turn leaves the history untouched.
func (s *ChatSession) Send(ctx context.Context, text string) (string, error) {
	return s.send(ctx, text, nil)
}

// SendStream is Send with per-chunk delivery through fn.
func (s *ChatSession) SendStream(ctx context.Context, text string, fn func(chunk string)) (string, error) {
	return s.send(ctx, text, fn)
}

func (s *ChatSession) send(ctx context.Context, text string, fn func(chunk string)) (string, error) {
	turn := content{Role: string(types.RoleUser), Parts: []wirePart{{Text: text}}}
	contents := append(s.history, turn)

	var reply string
	var err error
	if fn != nil {
		reply, err = s.client.StreamGenerateContent(ctx, s.client.textModel, contents, nil, fn)
	} else {
		reply, err = s.client.GenerateContent(ctx, s.client.textModel, contents, nil)
	}
	if err != nil {
		return "", err
	}
	s.history = append(s.history, turn, content{
		Role:  string(types.RoleModel),
		Parts: []wirePart{{Text: reply}},
	})
	return reply, nil
}

// Len reports the number of turns recorded in the handle.
func (s *ChatSession) Len() int {
	return len(s.history)
}
