package chat

import (
	"sync"

	"github.com/gorilla/websocket"

	"SermoProject/tools/errs"
	"SermoProject/tools/safe"
)

// Registry is the single owner of session-to-socket mappings. It is mutated
// concurrently by every connection's lifecycle and read by every broadcast;
// the lock never covers socket I/O.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*Client

	fan       *Fanout
	queueSize int
}

func NewRegistry(fan *Fanout, queueSize int) *Registry {
	return &Registry{
		byID:      make(map[string]*Client),
		fan:       fan,
		queueSize: queueSize,
	}
}

// Add registers an authenticated session and starts its writer goroutine.
// The user identity is fixed at registration; only validated handshakes get
// this far, so the registry never holds a half-bound session.
func (r *Registry) Add(sessionID string, userID int64, username string, ws *websocket.Conn) (*Client, error) {
	if sessionID == "" || ws == nil {
		return nil, errs.New("sessionID/conn empty")
	}
	if userID == 0 {
		return nil, errs.New("userID empty", "session", sessionID)
	}
	c := newClient(sessionID, userID, username, ws, r.queueSize)

	r.mu.Lock()
	if _, exists := r.byID[sessionID]; exists {
		r.mu.Unlock()
		return nil, errs.New("session exists", "session", sessionID)
	}
	r.byID[sessionID] = c
	r.mu.Unlock()

	safe.Go(c.writePump)
	return c, nil
}

// Get returns the client for a session.
func (r *Registry) Get(sessionID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[sessionID]
	return c, ok
}

// Remove drops and closes the session, returning the user it was bound to.
// Removing an absent session is a no-op, so repeated close signals are safe.
func (r *Registry) Remove(sessionID string) (userID int64, removed bool) {
	r.mu.Lock()
	c, ok := r.byID[sessionID]
	if ok {
		delete(r.byID, sessionID)
	}
	r.mu.Unlock()

	if !ok {
		return 0, false
	}
	c.close()
	return c.UserID, true
}

// Snapshot copies the current client set; broadcasts run against it so that
// sessions removed mid-broadcast cannot fail delivery to the rest.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out
}

// Broadcast fans the payload out to every session registered right now.
func (r *Registry) Broadcast(payload []byte) {
	r.fan.Broadcast(r.Snapshot(), payload)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Close drops every session (shutdown path).
func (r *Registry) Close() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.byID))
	for _, c := range r.byID {
		clients = append(clients, c)
	}
	r.byID = make(map[string]*Client)
	r.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
