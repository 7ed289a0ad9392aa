package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"SermoProject/logger"
)

const writeDeadline = 5 * time.Second

// Client is one live session: the session ID, the user bound at handshake
// time, the socket, and a buffered outbound queue drained by a single writer
// goroutine. Nothing outside the registry holds the socket directly. The
// identity fields are set at construction, before the writer starts, and
// never written again; fanout workers read them without a lock.
type Client struct {
	SessionID string
	UserID    int64
	Username  string

	ws   *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func newClient(sessionID string, userID int64, username string, ws *websocket.Conn, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Client{
		SessionID: sessionID,
		UserID:    userID,
		Username:  username,
		ws:        ws,
		send:      make(chan []byte, queueSize),
		done:      make(chan struct{}),
	}
}

// enqueue hands a payload to the writer queue without blocking. A slow client
// whose queue is full just drops the frame; delivery is best effort.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		logger.Warnf("[client] send queue full, drop frame session=%s user=%d", c.SessionID, c.UserID)
		return false
	}
}

// writePump is the single writer for the socket. It exits when the client is
// closed; write failures are logged and isolated, the read loop notices the
// dead socket on its own.
func (c *Client) writePump() {
	for {
		select {
		case payload := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				logger.Warnf("[client] set write deadline session=%s err=%v", c.SessionID, err)
				continue
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warnf("[client] write session=%s user=%d err=%v", c.SessionID, c.UserID, err)
			}
		case <-c.done:
			return
		}
	}
}

// close is idempotent; the socket is closed here and only here.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}
