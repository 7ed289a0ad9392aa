package chat

import (
	"encoding/json"

	"SermoProject/tools/decode"
	"SermoProject/tools/errs"
)

// EventType tags the wire envelope. Adding a kind means registering a handler
// for it; the dispatcher asserts on unregistered kinds.
type EventType string

const (
	EventMessage  EventType = "MESSAGE"
	EventTyping   EventType = "TYPING"
	EventPresence EventType = "PRESENCE"
)

func (t EventType) known() bool {
	switch t {
	case EventMessage, EventTyping, EventPresence:
		return true
	}
	return false
}

// Envelope is the wire unit in both directions: {type, payload}. The payload
// shape depends on the type and stays raw until the handler decodes it.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MessagePayload is the inbound MESSAGE variant. Content and nonce are opaque
// base64 ciphertext, never interpreted by the gateway.
type MessagePayload struct {
	ChannelID        int64  `json:"channelId"`
	EncryptedContent string `json:"encryptedContent"`
	Nonce            string `json:"nonce"`
}

// TypingPayload is the inbound TYPING variant. Clients send channelId as a
// number or a string; the weak decode absorbs both.
type TypingPayload struct {
	ChannelID int64 `json:"channelId"`
}

// PresencePayload is the inbound PRESENCE variant. Any status other than
// "online" is treated as offline.
type PresencePayload struct {
	ChannelID int64  `json:"channelId"`
	Status    string `json:"status"`
}

// TypingBroadcast is the outbound TYPING payload.
type TypingBroadcast struct {
	UserID    int64 `json:"userId"`
	ChannelID int64 `json:"channelId"`
}

// ParseFrame decodes a raw frame into an Envelope. Unknown event types are
// rejected here so one malformed client frame never reaches a handler.
func ParseFrame(raw []byte) (*Envelope, error) {
	env := &Envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, errs.ErrFrameMalformed.WrapMsg(err.Error())
	}
	if !env.Type.known() {
		return nil, errs.ErrUnknownEvent.WrapMsg("type", "value", string(env.Type))
	}
	return env, nil
}

// DecodePayload resolves the raw payload variant into the handler's type.
func DecodePayload[T any](env *Envelope) (*T, error) {
	out, err := decode.Payload[T](env.Payload)
	if err != nil {
		return nil, errs.ErrPayloadInvalid.WrapMsg(err.Error())
	}
	return out, nil
}

// BuildFrame serializes an outbound envelope.
func BuildFrame(t EventType, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.WrapMsg(err, "marshal payload", "type", string(t))
	}
	return json.Marshal(&Envelope{Type: t, Payload: body})
}
