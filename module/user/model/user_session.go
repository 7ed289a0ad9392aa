package model

import "time"

type SessionEvent string

const (
	SessionConnect    SessionEvent = "connect"
	SessionDisconnect SessionEvent = "disconnect"
)

// SessionRecord is one gateway session lifecycle event, kept as an audit
// trail. Disconnect records carry no username; the user id is enough to
// correlate with the connect record via session_id.
type SessionRecord struct {
	SessionID  string       `bson:"session_id"`
	UserID     int64        `bson:"user_id"`
	Username   string       `bson:"username,omitempty"`
	GatewayID  string       `bson:"gateway_id"`
	RemoteAddr string       `bson:"remote_addr,omitempty"`
	Event      SessionEvent `bson:"event"`
	Ts         time.Time    `bson:"ts"`
}
