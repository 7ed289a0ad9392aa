package chat

import (
	"context"
	"time"

	"SermoProject/logger"
	usermodel "SermoProject/module/user/model"
	"SermoProject/service/storage"
	"SermoProject/tools/safe"
)

// Options configures one gateway node.
type Options struct {
	GatewayID     string
	SendQueueSize int
	FanoutWorkers int
	FanoutQueue   int
	ReadLimit     int64
}

// Server ties the registry, dispatcher, presence store and the external
// collaborators together into one gateway node.
type Server struct {
	opts     Options
	reg      *Registry
	disp     *Dispatcher
	presence *storage.PresenceStore
	verifier TokenVerifier
	sessions SessionLogger // optional
	relay    Relay         // optional
}

func NewServer(opts Options, presence *storage.PresenceStore, verifier TokenVerifier) *Server {
	fan := NewFanout(opts.FanoutWorkers, opts.FanoutQueue)
	s := &Server{
		opts:     opts,
		reg:      NewRegistry(fan, opts.SendQueueSize),
		presence: presence,
		verifier: verifier,
	}
	s.disp = NewDispatcher(s.reg)
	return s
}

// RegisterHandlers installs the per-event handlers (constructed in wiring,
// from the handlers package); kept explicit so that adding an event kind
// forces this site to be revisited.
func (s *Server) RegisterHandlers(hs ...Handler) {
	for _, h := range hs {
		s.disp.Register(h)
	}
}

// Registry exposes the session registry (REST surface and tests).
func (s *Server) Registry() *Registry { return s.reg }

// Presence exposes the presence store.
func (s *Server) Presence() *storage.PresenceStore { return s.presence }

// WithSessionLog wires the optional connect/disconnect audit log.
func (s *Server) WithSessionLog(l SessionLogger) *Server {
	s.sessions = l
	return s
}

// WithRelay wires the optional cross-gateway relay; frames arriving from
// peer nodes are delivered to local sessions only, never re-published.
func (s *Server) WithRelay(r Relay) *Server {
	s.relay = r
	return s
}

// Broadcast delivers one outbound frame to every local session and, when a
// relay is wired, to the peer gateways.
func (s *Server) Broadcast(payload []byte) {
	s.reg.Broadcast(payload)
	if s.relay != nil {
		if err := s.relay.Publish(payload); err != nil {
			logger.Warnf("[server] relay publish err=%v", err)
		}
	}
}

// DeliverLocal pushes a frame from a peer gateway to local sessions.
func (s *Server) DeliverLocal(payload []byte) {
	s.reg.Broadcast(payload)
}

// disconnect tears one session down: remove from the registry (idempotent),
// clear the user's presence everywhere, log the audit event. Presence must
// not outlive the disconnect; note the store goes offline even if the same
// user still holds another session.
func (s *Server) disconnect(sessionID, remoteAddr string) {
	userID, removed := s.reg.Remove(sessionID)
	if !removed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if userID != 0 {
		if err := s.presence.SetOffline(ctx, userID); err != nil {
			logger.Warnf("[server] presence offline user=%d err=%v", userID, err)
		}
	}
	s.logSession(sessionID, userID, "", remoteAddr, usermodel.SessionDisconnect)
}

func (s *Server) logSession(sessionID string, userID int64, username, remoteAddr string, event usermodel.SessionEvent) {
	if s.sessions == nil {
		return
	}
	rec := usermodel.SessionRecord{
		SessionID:  sessionID,
		UserID:     userID,
		Username:   username,
		GatewayID:  s.opts.GatewayID,
		RemoteAddr: remoteAddr,
		Event:      event,
		Ts:         time.Now(),
	}
	safe.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.sessions.LogSession(ctx, rec); err != nil {
			logger.Warnf("[server] session log %s session=%s err=%v", event, sessionID, err)
		}
	})
}

// Close drops every live session (shutdown path).
func (s *Server) Close() {
	s.reg.Close()
}
