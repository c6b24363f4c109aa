// intellichat/controllers/chat.go
package controllers

import (
	"context"

	"intellichat/intellichat/prompt"
	"intellichat/intellichat/services/genai"
	"intellichat/intellichat/sessions"
	"intellichat/intellichat/types"
	"intellichat/intellichat/utils/graphviz"
	"intellichat/intellichat/utils/logging"

	"go.uber.org/zap"
)

type ChatController struct {
	manager   *sessions.Manager
	gateway   *genai.Gateway
	assembler *prompt.Assembler
}

func NewChatController(manager *sessions.Manager, gateway *genai.Gateway, assembler *prompt.Assembler) *ChatController {
	return &ChatController{manager: manager, gateway: gateway, assembler: assembler}
}

// viewOf renders a message for the browser, extracting graph blocks from
// model responses.
func viewOf(msg types.Message) types.MessageView {
	view := types.MessageView{Message: msg}
	if msg.Role == types.RoleModel {
		view.Graphs = graphviz.Extract(msg.Text())
	}
	return view
}

// CreateSession opens a new session and asks the model for its welcome
// message. A failed welcome call does not block session creation.
func (c *ChatController) CreateSession(ctx context.Context) (*sessions.Session, *types.MessageView) {
	sess := c.manager.Create(c.gateway.StartChat())

	welcome, err := c.gateway.Welcome(ctx)
	if err != nil {
		logging.AppLogger.Warn("welcome generation failed",
			zap.String("session_id", sess.ID), zap.Error(err))
		return sess, nil
	}
	sess.Log.Append(welcome)
	view := viewOf(welcome)
	return sess, &view
}

// SendMessage runs one full turn: assemble the user message, append it,
// invoke the model, and append the response. An attachment failure aborts
// the turn before anything is appended or sent; a model failure still
// advances the log with an error-text model message.
func (c *ChatController) SendMessage(ctx context.Context, sess *sessions.Session, in prompt.Input) (types.MessageView, error) {
	return c.sendMessage(ctx, sess, in, nil)
}

// SendMessageStream is SendMessage with incremental chunk delivery.
func (c *ChatController) SendMessageStream(ctx context.Context, sess *sessions.Session, in prompt.Input, fn func(chunk string)) (types.MessageView, error) {
	return c.sendMessage(ctx, sess, in, fn)
}

func (c *ChatController) sendMessage(ctx context.Context, sess *sessions.Session, in prompt.Input, fn func(chunk string)) (types.MessageView, error) {
	if err := sess.Begin(); err != nil {
		return types.MessageView{}, err
	}
	defer sess.End()

	msg, err := c.assembler.Assemble(ctx, in)
	if err != nil {
		return types.MessageView{}, err
	}
	sess.Log.Append(msg)

	var reply types.Message
	if fn != nil {
		reply = c.gateway.SendStream(ctx, sess.Chat, msg, fn)
	} else {
		reply = c.gateway.Send(ctx, sess.Chat, msg)
	}
	sess.Log.Append(reply)
	return viewOf(reply), nil
}

// Messages returns the session's conversation log for rendering.
func (c *ChatController) Messages(sess *sessions.Session) []types.MessageView {
	msgs := sess.Log.All()
	views := make([]types.MessageView, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, viewOf(msg))
	}
	return views
}

// DeleteSession tears the session down.
func (c *ChatController) DeleteSession(id string) bool {
	return c.manager.Delete(id)
}
