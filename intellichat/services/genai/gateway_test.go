package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"intellichat/intellichat/config"
	"intellichat/intellichat/types"
	"intellichat/intellichat/utils/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	paths    []string // paths hit, in order
	replies  map[string]string
	failWith int
}

func (f *fakeAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.paths = append(f.paths, r.URL.Path)
		if f.failWith != 0 {
			http.Error(w, "model exploded", f.failWith)
			return
		}

		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		reply := f.replies[r.URL.Path]
		if reply == "" {
			reply = "ok"
		}

		if strings.Contains(r.URL.Path, ":streamGenerateContent") {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, chunk := range []string{reply[:len(reply)/2], reply[len(reply)/2:]} {
				payload, _ := json.Marshal(generateResponse{Candidates: []candidate{
					{Content: content{Role: "model", Parts: []wirePart{{Text: chunk}}}},
				}})
				fmt.Fprintf(w, "data: %s\n\n", payload)
			}
			return
		}
		resp := generateResponse{Candidates: []candidate{
			{Content: content{Role: "model", Parts: []wirePart{{Text: reply}}}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	})
}

func newTestGateway(t *testing.T, api *fakeAPI) (*Gateway, func()) {
	t.Helper()
	logging.InitTestLogger()
	srv := httptest.NewServer(api.handler())
	client := NewClient(config.Config{
		GenAIAPIKey:  "test-key",
		GenAIBaseURL: srv.URL,
		TextModel:    "text-model",
		VisionModel:  "vision-model",
	})
	return NewGateway(client), srv.Close
}

func imageMessage() types.Message {
	return types.NewUserMessage("describe this", &types.ImagePart{
		MIMEType: "image/png",
		Data:     []byte{1, 2, 3},
	})
}

func TestSendRoutesTextMessageToTextModel(t *testing.T) {
	api := &fakeAPI{replies: map[string]string{"/models/text-model:generateContent": "hi there"}}
	gw, done := newTestGateway(t, api)
	defer done()

	chat := gw.StartChat()
	reply := gw.Send(context.Background(), chat, types.NewUserMessage("hello", nil))

	assert.Equal(t, types.RoleModel, reply.Role)
	require.Len(t, reply.Parts, 1)
	assert.Equal(t, "hi there", reply.Text())
	require.Len(t, api.paths, 1)
	assert.Equal(t, "/models/text-model:generateContent", api.paths[0])
}

func TestSendRoutesImageMessageToVisionModel(t *testing.T) {
	api := &fakeAPI{replies: map[string]string{"/models/vision-model:streamGenerateContent": "a red square"}}
	gw, done := newTestGateway(t, api)
	defer done()

	chat := gw.StartChat()
	reply := gw.Send(context.Background(), chat, imageMessage())

	assert.Equal(t, "a red square", reply.Text())
	require.Len(t, api.paths, 1)
	assert.Equal(t, "/models/vision-model:streamGenerateContent", api.paths[0])
	// The vision call is single-shot: nothing enters the chat history.
	assert.Equal(t, 0, chat.Len())
}

func TestChatHistoryAccumulates(t *testing.T) {
	api := &fakeAPI{}
	gw, done := newTestGateway(t, api)
	defer done()

	chat := gw.StartChat()
	gw.Send(context.Background(), chat, types.NewUserMessage("one", nil))
	gw.Send(context.Background(), chat, types.NewUserMessage("two", nil))

	// Two turns, each recorded as user + model content.
	assert.Equal(t, 4, chat.Len())
}

func TestSendFailureBecomesModelMessage(t *testing.T) {
	api := &fakeAPI{failWith: http.StatusInternalServerError}
	gw, done := newTestGateway(t, api)
	defer done()

	chat := gw.StartChat()
	reply := gw.Send(context.Background(), chat, types.NewUserMessage("hello", nil))

	assert.Equal(t, types.RoleModel, reply.Role)
	assert.Contains(t, reply.Text(), KindAPIError)
	assert.Contains(t, reply.Text(), "500")
	// Failed turns are not recorded in the running history.
	assert.Equal(t, 0, chat.Len())
}

// rawAPIGateway builds a gateway against a server that replies with a
// fixed JSON body, for exercising wire-shape edge cases.
func rawAPIGateway(t *testing.T, body string) (*Gateway, func()) {
	t.Helper()
	logging.InitTestLogger()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	client := NewClient(config.Config{
		GenAIAPIKey:  "test-key",
		GenAIBaseURL: srv.URL,
		TextModel:    "text-model",
		VisionModel:  "vision-model",
	})
	return NewGateway(client), srv.Close
}

func TestSendBlockedReplyBecomesErrorMessage(t *testing.T) {
	// A safety-terminated reply arrives as a candidate with no text parts.
	gw, done := rawAPIGateway(t, `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`)
	defer done()

	reply := gw.Send(context.Background(), gw.StartChat(), types.NewUserMessage("hello", nil))
	assert.Equal(t, types.RoleModel, reply.Role)
	assert.Contains(t, reply.Text(), KindBlocked)
	assert.Contains(t, reply.Text(), "SAFETY")
}

func TestSendTextlessCandidateBecomesErrorMessage(t *testing.T) {
	gw, done := rawAPIGateway(t, `{"candidates":[{"content":{"parts":[]},"finishReason":"STOP"}]}`)
	defer done()

	reply := gw.Send(context.Background(), gw.StartChat(), types.NewUserMessage("hello", nil))
	assert.Contains(t, reply.Text(), KindEmptyResponse)
	assert.NotEqual(t, "", reply.Text())
}

func TestSendTransportFailureBecomesModelMessage(t *testing.T) {
	logging.InitTestLogger()
	client := NewClient(config.Config{
		GenAIAPIKey:  "test-key",
		GenAIBaseURL: "http://127.0.0.1:1", // nothing listens here
		TextModel:    "text-model",
		VisionModel:  "vision-model",
	})
	gw := NewGateway(client)

	reply := gw.Send(context.Background(), gw.StartChat(), types.NewUserMessage("hello", nil))
	assert.Contains(t, reply.Text(), KindTransport)
}

func TestSendStreamDeliversChunks(t *testing.T) {
	api := &fakeAPI{replies: map[string]string{"/models/vision-model:streamGenerateContent": "chunked"}}
	gw, done := newTestGateway(t, api)
	defer done()

	var chunks []string
	reply := gw.SendStream(context.Background(), gw.StartChat(), imageMessage(), func(chunk string) {
		chunks = append(chunks, chunk)
	})

	assert.Equal(t, "chunked", reply.Text())
	assert.Equal(t, "chunked", strings.Join(chunks, ""))
	assert.Greater(t, len(chunks), 1)
}

func TestWelcomeUsesOneShotCall(t *testing.T) {
	api := &fakeAPI{replies: map[string]string{"/models/text-model:generateContent": "welcome!"}}
	gw, done := newTestGateway(t, api)
	defer done()

	msg, err := gw.Welcome(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "welcome!", msg.Text())
}

func TestWelcomeFailureIsReturned(t *testing.T) {
	api := &fakeAPI{failWith: http.StatusServiceUnavailable}
	gw, done := newTestGateway(t, api)
	defer done()

	_, err := gw.Welcome(context.Background())
	var inv *InvocationError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, KindAPIError, inv.Kind)
}
