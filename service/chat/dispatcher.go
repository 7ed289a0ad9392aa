package chat

import (
	"context"

	"SermoProject/logger"
	"SermoProject/tools/security"
)

// Dispatcher routes decoded envelopes to the handler registered for their
// event type. Per-frame failures are logged here, at the boundary, and stay
// local to the frame: the session is never closed for a bad frame.
type Dispatcher struct {
	reg      *Registry
	handlers map[EventType]Handler
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg, handlers: make(map[EventType]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

// OnFrame runs one inbound frame through decode -> identity -> route.
func (d *Dispatcher) OnFrame(ctx context.Context, sessionID string, raw []byte) {
	env, err := ParseFrame(raw)
	if err != nil {
		sample := raw
		if len(sample) > 256 {
			sample = sample[:256]
		}
		logger.Warnf("[dispatch] drop frame session=%s err=%v sample=%q", sessionID, err, sample)
		return
	}

	// Should not happen post-handshake, but a session with no bound user
	// gets nothing routed.
	c, ok := d.reg.Get(sessionID)
	if !ok || c.UserID == 0 {
		logger.Warnf("[dispatch] frame from unbound session=%s, discard", sessionID)
		return
	}
	from := security.Identity{UserID: c.UserID, Username: c.Username}

	h, ok := d.handlers[env.Type]
	if !ok {
		// ParseFrame already filters unknown tags; hitting this means a new
		// event kind was added without registering its handler.
		logger.Errorf("[dispatch] no handler registered for type=%s", env.Type)
		return
	}
	if err := h.Handle(ctx, from, env); err != nil {
		logger.Warnf("[dispatch] %s handler session=%s user=%d err=%v", env.Type, sessionID, from.UserID, err)
	}
}
