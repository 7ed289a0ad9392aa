package chat

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"SermoProject/logger"
	usermodel "SermoProject/module/user/model"
	"SermoProject/tools/ids"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS is the gateway endpoint. Handshake first: a missing or invalid
// token closes the socket with a policy-violation status before anything is
// registered, so a partially-registered session is never visible.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("[ws] upgrade err=%v", err)
		return
	}

	ident, err := Authenticate(c.Request, s.verifier)
	if err != nil {
		logger.Infof("[ws] handshake rejected remote=%s err=%v", ws.RemoteAddr(), err)
		closePolicyViolation(ws)
		return
	}

	sessionID := ids.GenerateString()
	if _, err := s.reg.Add(sessionID, ident.UserID, ident.Username, ws); err != nil {
		logger.Errorf("[ws] register session=%s err=%v", sessionID, err)
		closePolicyViolation(ws)
		return
	}

	logger.Infof("[ws] connected session=%s user=%d name=%s", sessionID, ident.UserID, ident.Username)
	s.logSession(sessionID, ident.UserID, ident.Username, remoteAddr(ws), usermodel.SessionConnect)

	s.readLoop(sessionID, ws)
	s.disconnect(sessionID, remoteAddr(ws))
}

// readLoop processes this session's frames in arrival order. Malformed input
// is the dispatcher's problem; only transport errors end the loop.
func (s *Server) readLoop(sessionID string, ws *websocket.Conn) {
	if s.opts.ReadLimit > 0 {
		ws.SetReadLimit(s.opts.ReadLimit)
	}
	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed session=%s", sessionID)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout session=%s err=%v", sessionID, err)
			} else {
				logger.Infof("[ws] read err session=%s err=%v", sessionID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		s.disp.OnFrame(context.Background(), sessionID, data)
	}
}

func closePolicyViolation(ws *websocket.Conn) {
	deadline := time.Now().Add(time.Second)
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "handshake rejected"),
		deadline)
	_ = ws.Close()
}

func remoteAddr(ws *websocket.Conn) string {
	if ra := ws.RemoteAddr(); ra != nil {
		return ra.String()
	}
	return ""
}
