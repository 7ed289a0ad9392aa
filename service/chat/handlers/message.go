package handlers

import (
	"context"

	"SermoProject/logger"
	"SermoProject/service/chat"
	"SermoProject/tools/errs"
	"SermoProject/tools/security"
)

// MessageHandler persists a chat message through the collaborator and fans
// the canonical record out. Persistence happens-before broadcast; if it
// fails nothing is broadcast and the sender is not notified on the wire.
type MessageHandler struct {
	sender chat.MessageSender
	out    chat.Broadcaster
}

func NewMessageHandler(sender chat.MessageSender, out chat.Broadcaster) chat.Handler {
	return &MessageHandler{sender: sender, out: out}
}

func (h *MessageHandler) Type() chat.EventType { return chat.EventMessage }

func (h *MessageHandler) Handle(ctx context.Context, from security.Identity, env *chat.Envelope) error {
	p, err := chat.DecodePayload[chat.MessagePayload](env)
	if err != nil {
		return err
	}
	if p.ChannelID <= 0 || p.EncryptedContent == "" || p.Nonce == "" {
		return errs.ErrPayloadInvalid.WrapMsg("message fields missing", "channel", p.ChannelID)
	}

	rec, err := h.sender.SendMessage(ctx, from.UserID, p.ChannelID, p.EncryptedContent, p.Nonce)
	if err != nil {
		return errs.WrapMsg(err, "persist message", "user", from.UserID, "channel", p.ChannelID)
	}

	frame, err := chat.BuildFrame(chat.EventMessage, rec)
	if err != nil {
		return err
	}
	// Every registered session receives it, the sender's own included.
	h.out.Broadcast(frame)
	logger.Debugf("message %d channel %d broadcast", rec.ID, rec.ChannelID)
	return nil
}
