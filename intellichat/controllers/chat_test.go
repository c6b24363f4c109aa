package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"intellichat/intellichat/config"
	"intellichat/intellichat/prompt"
	"intellichat/intellichat/services/genai"
	"intellichat/intellichat/sessions"
	"intellichat/intellichat/types"
	"intellichat/intellichat/utils/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel serves the generative REST surface with a canned reply.
type fakeModel struct {
	reply string
	fail  bool
	hits  int
}

func (f *fakeModel) handler(w http.ResponseWriter, r *http.Request) {
	f.hits++
	if f.fail {
		http.Error(w, "model exploded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, f.reply)
}

func newTestStack(t *testing.T, model *fakeModel) (*ChatController, *sessions.Manager, func()) {
	t.Helper()
	logging.InitTestLogger()
	srv := httptest.NewServer(http.HandlerFunc(model.handler))

	cfg := config.Config{
		GenAIAPIKey:        "test-key",
		GenAIBaseURL:       srv.URL,
		TextModel:          "text-model",
		VisionModel:        "vision-model",
		MaxAttachmentChars: 5000,
		MaxImageBytes:      8 << 20,
		ImageFetchTimeout:  5 * time.Second,
	}
	manager := sessions.NewManager(time.Hour)
	ctrl := NewChatController(manager, genai.NewGateway(genai.NewClient(cfg)), prompt.NewAssembler(cfg))
	return ctrl, manager, srv.Close
}

func newTestSession(ctrl *ChatController, manager *sessions.Manager) *sessions.Session {
	// Bypass CreateSession's welcome call so tests control every model hit.
	return manager.Create(ctrl.gateway.StartChat())
}

func TestSendMessageAppendsUserAndModel(t *testing.T) {
	model := &fakeModel{reply: "the answer"}
	ctrl, manager, done := newTestStack(t, model)
	defer done()
	sess := newTestSession(ctrl, manager)

	view, err := ctrl.SendMessage(context.Background(), sess, prompt.Input{Text: "question"})
	require.NoError(t, err)
	assert.Equal(t, "the answer", view.Text())

	all := sess.Log.All()
	require.Len(t, all, 2)
	assert.Equal(t, types.RoleUser, all[0].Role)
	assert.Equal(t, types.RoleModel, all[1].Role)
	assert.Equal(t, 1, model.hits)
}

func TestSendMessageFailureStillAdvancesLog(t *testing.T) {
	model := &fakeModel{fail: true}
	ctrl, manager, done := newTestStack(t, model)
	defer done()
	sess := newTestSession(ctrl, manager)

	view, err := ctrl.SendMessage(context.Background(), sess, prompt.Input{Text: "question"})
	require.NoError(t, err)
	assert.Contains(t, view.Text(), genai.KindAPIError)

	// Exactly one model entry for the failed attempt, after the user entry.
	all := sess.Log.All()
	require.Len(t, all, 2)
	assert.Equal(t, types.RoleModel, all[1].Role)
	assert.Contains(t, all[1].Text(), "model exploded")
}

func TestAttachmentErrorAbortsTurnBeforeRemoteCall(t *testing.T) {
	model := &fakeModel{reply: "unused"}
	ctrl, manager, done := newTestStack(t, model)
	defer done()
	sess := newTestSession(ctrl, manager)

	_, err := ctrl.SendMessage(context.Background(), sess, prompt.Input{
		Text:      "look at this",
		ImageData: []byte("not an image"),
	})
	var attach *prompt.AttachmentError
	require.ErrorAs(t, err, &attach)
	assert.Equal(t, 0, sess.Log.Len())
	assert.Equal(t, 0, model.hits)
}

func TestSendMessageRejectsConcurrentTurn(t *testing.T) {
	model := &fakeModel{reply: "unused"}
	ctrl, manager, done := newTestStack(t, model)
	defer done()
	sess := newTestSession(ctrl, manager)

	require.NoError(t, sess.Begin())
	defer sess.End()

	_, err := ctrl.SendMessage(context.Background(), sess, prompt.Input{Text: "hi"})
	assert.ErrorIs(t, err, sessions.ErrBusy)
	assert.Equal(t, 0, sess.Log.Len())
}

func TestCreateSessionGeneratesWelcome(t *testing.T) {
	model := &fakeModel{reply: "welcome aboard"}
	ctrl, _, done := newTestStack(t, model)
	defer done()

	sess, welcome := ctrl.CreateSession(context.Background())
	require.NotNil(t, welcome)
	assert.Equal(t, "welcome aboard", welcome.Text())

	all := sess.Log.All()
	require.Len(t, all, 1)
	assert.Equal(t, types.RoleModel, all[0].Role)
}

func TestCreateSessionSurvivesWelcomeFailure(t *testing.T) {
	model := &fakeModel{fail: true}
	ctrl, manager, done := newTestStack(t, model)
	defer done()

	sess, welcome := ctrl.CreateSession(context.Background())
	assert.Nil(t, welcome)
	assert.Equal(t, 0, sess.Log.Len())
	_, ok := manager.Get(sess.ID)
	assert.True(t, ok)
}

func TestMessagesExtractsGraphBlocks(t *testing.T) {
	model := &fakeModel{reply: "Here:\n```\ndigraph G { A -> B }\n```"}
	ctrl, manager, done := newTestStack(t, model)
	defer done()
	sess := newTestSession(ctrl, manager)

	view, err := ctrl.SendMessage(context.Background(), sess, prompt.Input{Text: "draw"})
	require.NoError(t, err)
	require.Len(t, view.Graphs, 1)
	assert.Contains(t, view.Graphs[0], "digraph G")

	views := ctrl.Messages(sess)
	require.Len(t, views, 2)
	assert.Empty(t, views[0].Graphs) // user message: no extraction
	assert.Len(t, views[1].Graphs, 1)
}

func TestDeleteSession(t *testing.T) {
	model := &fakeModel{reply: "unused"}
	ctrl, manager, done := newTestStack(t, model)
	defer done()
	sess := newTestSession(ctrl, manager)

	assert.True(t, ctrl.DeleteSession(sess.ID))
	_, ok := manager.Get(sess.ID)
	assert.False(t, ok)
}
