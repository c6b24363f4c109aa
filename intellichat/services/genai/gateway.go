// intellichat/services/genai/gateway.go
package genai

import (
	"context"
	"errors"

	"intellichat/intellichat/types"
	"intellichat/intellichat/utils/logging"

	"go.uber.org/zap"
)

const welcomePrompt = `Welcome message to the user describing what the chatbot can do.
You can describe images, answer questions, read text files, read tables, generate Graphviz graphs, etc.`

// Gateway routes assembled user messages to the right model and normalizes
// every outcome into a model-role message. A message carrying an image goes
// to the vision model as a single-shot streaming call with the fixed
// moderation policy; a text-only message goes through the session's stateful
// chat handle. Failures are absorbed: the conversation always advances by
// exactly one model entry per attempt.
type Gateway struct {
	client *Client
}

func NewGateway(client *Client) *Gateway {
	return &Gateway{client: client}
}

// StartChat opens a text-model conversation handle for a new session.
func (g *Gateway) StartChat() *ChatSession {
	return g.client.StartChat()
}

// Send processes one turn and returns the resulting model message.
func (g *Gateway) Send(ctx context.Context, chat *ChatSession, msg types.Message) types.Message {
	return g.send(ctx, chat, msg, nil)
}

// SendStream is Send with incremental chunk delivery (websocket path).
func (g *Gateway) SendStream(ctx context.Context, chat *ChatSession, msg types.Message, fn func(chunk string)) types.Message {
	return g.send(ctx, chat, msg, fn)
}

func (g *Gateway) send(ctx context.Context, chat *ChatSession, msg types.Message, fn func(chunk string)) types.Message {
	var reply string
	var err error
	if len(msg.Parts) > 1 {
		// Vision call: streamed by the transport, fully awaited here.
		reply, err = g.client.StreamGenerateContent(ctx, g.client.visionModel,
			[]content{contentFromMessage(msg)}, defaultSafetySettings(), fn)
	} else if fn != nil {
		reply, err = chat.SendStream(ctx, msg.Text(), fn)
	} else {
		reply, err = chat.Send(ctx, msg.Text())
	}
	if err != nil {
		var inv *InvocationError
		if !errors.As(err, &inv) {
			inv = &InvocationError{Kind: KindTransport, Description: err.Error()}
		}
		logging.ErrorLogger.Error("model invocation failed",
			zap.String("kind", inv.Kind),
			zap.String("description", inv.Description),
		)
		return types.NewModelMessage(inv.Error())
	}
	return types.NewModelMessage(reply)
}

// Welcome asks the text model for the session's opening message. It is a
// one-shot call outside the chat handle, so the greeting does not enter
// the running history. Unlike Send, a failure is returned to the caller so
// session creation can skip the welcome entry instead of logging an error
// message as conversation.
func (g *Gateway) Welcome(ctx context.Context) (types.Message, error) {
	reply, err := g.client.GenerateContent(ctx, g.client.textModel,
		[]content{{Role: string(types.RoleUser), Parts: []wirePart{{Text: welcomePrompt}}}}, nil)
	if err != nil {
		return types.Message{}, err
	}
	return types.NewModelMessage(reply), nil
}
