package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	msgmodel "SermoProject/module/message/model"
	"SermoProject/service/chat"
	"SermoProject/tools/errs"
	"SermoProject/tools/security"
)

// --- fakes -------------------------------------------------------------

type captureBroadcaster struct {
	frames [][]byte
}

func (b *captureBroadcaster) Broadcast(payload []byte) {
	b.frames = append(b.frames, payload)
}

type fakeSender struct {
	calls int
	fail  error
	last  *msgmodel.Message
}

func (s *fakeSender) SendMessage(_ context.Context, userID, channelID int64, content, nonce string) (*msgmodel.Message, error) {
	s.calls++
	if s.fail != nil {
		return nil, s.fail
	}
	s.last = &msgmodel.Message{
		ID:               101,
		SenderID:         userID,
		SenderUsername:   "alice",
		ChannelID:        channelID,
		EncryptedContent: content,
		Nonce:            nonce,
	}
	return s.last, nil
}

type fakePresence struct {
	online  []int64 // channel ids set online
	offline int     // SetOffline call count
	typing  []int64 // channel ids set typing
}

func (p *fakePresence) SetOnline(_ context.Context, _, channelID int64) error {
	p.online = append(p.online, channelID)
	return nil
}

func (p *fakePresence) SetOffline(_ context.Context, _ int64) error {
	p.offline++
	return nil
}

func (p *fakePresence) SetTyping(_ context.Context, _, channelID int64) error {
	p.typing = append(p.typing, channelID)
	return nil
}

func mustEnvelope(t *testing.T, raw string) *chat.Envelope {
	t.Helper()
	env, err := chat.ParseFrame([]byte(raw))
	require.NoError(t, err)
	return env
}

var alice = security.Identity{UserID: 42, Username: "alice"}

// --- MESSAGE -----------------------------------------------------------

func TestMessageHandlerPersistsThenBroadcasts(t *testing.T) {
	sender := &fakeSender{}
	out := &captureBroadcaster{}
	h := NewMessageHandler(sender, out)

	env := mustEnvelope(t, `{"type":"MESSAGE","payload":{"channelId":7,"encryptedContent":"Zm9v","nonce":"bmFhaA=="}}`)
	require.NoError(t, h.Handle(context.Background(), alice, env))

	assert.Equal(t, 1, sender.calls)
	require.Len(t, out.frames, 1)

	got, err := chat.ParseFrame(out.frames[0])
	require.NoError(t, err)
	assert.Equal(t, chat.EventMessage, got.Type)

	var rec msgmodel.Message
	require.NoError(t, json.Unmarshal(got.Payload, &rec))
	assert.Equal(t, int64(101), rec.ID)
	assert.Equal(t, int64(42), rec.SenderID)
	assert.Equal(t, "alice", rec.SenderUsername)
	assert.Equal(t, int64(7), rec.ChannelID)
	assert.Equal(t, "Zm9v", rec.EncryptedContent)
}

func TestMessageHandlerRejectsMissingFields(t *testing.T) {
	for _, raw := range []string{
		`{"type":"MESSAGE","payload":{"encryptedContent":"Zm9v","nonce":"bg=="}}`,
		`{"type":"MESSAGE","payload":{"channelId":7,"nonce":"bg=="}}`,
		`{"type":"MESSAGE","payload":{"channelId":7,"encryptedContent":"Zm9v"}}`,
	} {
		sender := &fakeSender{}
		out := &captureBroadcaster{}
		h := NewMessageHandler(sender, out)

		err := h.Handle(context.Background(), alice, mustEnvelope(t, raw))
		require.Error(t, err, raw)
		assert.True(t, errs.ErrPayloadInvalid.Is(err), raw)
		assert.Zero(t, sender.calls, raw)
		assert.Empty(t, out.frames, raw)
	}
}

func TestMessageHandlerNoBroadcastOnPersistenceFailure(t *testing.T) {
	sender := &fakeSender{fail: errs.ErrStoreFailure.Wrap()}
	out := &captureBroadcaster{}
	h := NewMessageHandler(sender, out)

	env := mustEnvelope(t, `{"type":"MESSAGE","payload":{"channelId":7,"encryptedContent":"Zm9v","nonce":"bg=="}}`)
	err := h.Handle(context.Background(), alice, env)
	require.Error(t, err)
	assert.Equal(t, 1, sender.calls)
	assert.Empty(t, out.frames)
}

// --- TYPING ------------------------------------------------------------

func TestTypingHandlerUpdatesStoreThenBroadcasts(t *testing.T) {
	presence := &fakePresence{}
	out := &captureBroadcaster{}
	h := NewTypingHandler(presence, out)

	env := mustEnvelope(t, `{"type":"TYPING","payload":{"channelId":"7"}}`)
	require.NoError(t, h.Handle(context.Background(), alice, env))

	assert.Equal(t, []int64{7}, presence.typing)
	require.Len(t, out.frames, 1)

	got, err := chat.ParseFrame(out.frames[0])
	require.NoError(t, err)
	assert.Equal(t, chat.EventTyping, got.Type)

	var tb chat.TypingBroadcast
	require.NoError(t, json.Unmarshal(got.Payload, &tb))
	assert.Equal(t, int64(42), tb.UserID)
	assert.Equal(t, int64(7), tb.ChannelID)
}

func TestTypingHandlerRejectsMissingChannel(t *testing.T) {
	presence := &fakePresence{}
	out := &captureBroadcaster{}
	h := NewTypingHandler(presence, out)

	err := h.Handle(context.Background(), alice, mustEnvelope(t, `{"type":"TYPING","payload":{}}`))
	require.Error(t, err)
	assert.Empty(t, presence.typing)
	assert.Empty(t, out.frames)
}

// --- PRESENCE ----------------------------------------------------------

func TestPresenceHandlerOnline(t *testing.T) {
	presence := &fakePresence{}
	h := NewPresenceHandler(presence)

	env := mustEnvelope(t, `{"type":"PRESENCE","payload":{"channelId":7,"status":"online"}}`)
	require.NoError(t, h.Handle(context.Background(), alice, env))
	assert.Equal(t, []int64{7}, presence.online)
	assert.Zero(t, presence.offline)
}

func TestPresenceHandlerAnythingElseIsOffline(t *testing.T) {
	for _, status := range []string{"offline", "away", ""} {
		presence := &fakePresence{}
		h := NewPresenceHandler(presence)

		env := mustEnvelope(t, `{"type":"PRESENCE","payload":{"channelId":7,"status":"`+status+`"}}`)
		require.NoError(t, h.Handle(context.Background(), alice, env))
		assert.Empty(t, presence.online, status)
		assert.Equal(t, 1, presence.offline, status)
	}
}
