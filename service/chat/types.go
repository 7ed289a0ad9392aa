package chat

import (
	"context"

	msgmodel "SermoProject/module/message/model"
	usermodel "SermoProject/module/user/model"
	"SermoProject/tools/security"
)

// Handler processes one decoded inbound envelope for one event type.
// Returned errors are logged at the dispatch boundary and never terminate
// the session.
type Handler interface {
	Type() EventType
	Handle(ctx context.Context, from security.Identity, env *Envelope) error
}

// Broadcaster fans one outbound frame out to every registered session
// (and, when a relay is wired, to the other gateway nodes).
type Broadcaster interface {
	Broadcast(payload []byte)
}

// MessageSender is the narrow persistence collaborator the dispatcher
// consumes. Internals (relational schema, user lookup) are not its concern.
type MessageSender interface {
	SendMessage(ctx context.Context, userID, channelID int64, encryptedContent, nonce string) (*msgmodel.Message, error)
}

// TokenVerifier resolves a bearer token to an identity or rejects it.
type TokenVerifier interface {
	VerifyToken(token string) (*security.Identity, error)
}

// PresenceWriter is the slice of the presence store the handlers touch.
type PresenceWriter interface {
	SetOnline(ctx context.Context, userID, channelID int64) error
	SetOffline(ctx context.Context, userID int64) error
	SetTyping(ctx context.Context, userID, channelID int64) error
}

// SessionLogger records connect/disconnect audit events. Optional; failures
// must never affect the session itself.
type SessionLogger interface {
	LogSession(ctx context.Context, rec usermodel.SessionRecord) error
}

// Relay carries locally produced broadcasts to peer gateway nodes.
type Relay interface {
	Publish(payload []byte) error
}
