package message

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	midsec "SermoProject/middleware/security"
	"SermoProject/module/message/model"
	"SermoProject/service/storage"
	"SermoProject/tools/errs"
	jwtlib "SermoProject/tools/security"
)

// REST surface for messages. Edits go through here, not the socket protocol;
// the gateway only ever consumes SendMessage.

// Store is the slice of the message service the REST surface consumes.
type Store interface {
	GetChannelMessages(ctx context.Context, channelID int64) ([]*model.Message, error)
	EditMessage(ctx context.Context, messageID, userID int64, encryptedContent, nonce string) (*model.Message, error)
}

type editRequest struct {
	EncryptedContent string `json:"encryptedContent" binding:"required"`
	Nonce            string `json:"nonce" binding:"required"`
}

type handler struct {
	svc      Store
	presence *storage.PresenceStore
}

// RegisterRoutes mounts /api/messages.
func RegisterRoutes(r gin.IRouter, svc Store, presence *storage.PresenceStore, opts jwtlib.Options) {
	h := &handler{svc: svc, presence: presence}
	g := r.Group("/api/messages")
	g.GET("/channel/:channelId", h.channelMessages)
	g.GET("/channel/:channelId/typing", h.typingUsers)
	g.PUT("/:messageId", midsec.Middleware(opts), h.editMessage)
}

func (h *handler) channelMessages(c *gin.Context) {
	channelID, err := pathID(c, "channelId")
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrPayloadInvalid.WithDetail("channelId"))
		return
	}
	msgs, err := h.svc.GetChannelMessages(c.Request.Context(), channelID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrStoreFailure)
		return
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *handler) typingUsers(c *gin.Context) {
	channelID, err := pathID(c, "channelId")
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrPayloadInvalid.WithDetail("channelId"))
		return
	}
	users, err := h.presence.GetTypingUsers(c.Request.Context(), channelID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrStoreFailure)
		return
	}
	if users == nil {
		users = []int64{}
	}
	c.JSON(http.StatusOK, gin.H{"channelId": channelID, "userIds": users})
}

func (h *handler) editMessage(c *gin.Context) {
	messageID, err := pathID(c, "messageId")
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrPayloadInvalid.WithDetail("messageId"))
		return
	}
	userID, ok := midsec.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
		return
	}
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrPayloadInvalid.WithDetail(err.Error()))
		return
	}

	msg, err := h.svc.EditMessage(c.Request.Context(), messageID, userID, req.EncryptedContent, req.Nonce)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, msg)
	case errs.ErrEditForbidden.Is(err):
		c.JSON(http.StatusForbidden, errs.ErrEditForbidden)
	case errs.ErrRecordNotFound.Is(err):
		c.JSON(http.StatusNotFound, errs.ErrRecordNotFound)
	default:
		c.JSON(http.StatusInternalServerError, errs.ErrStoreFailure)
	}
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.New("bad id")
	}
	return id, nil
}
