package handlers

import (
	"context"

	"SermoProject/service/chat"
	"SermoProject/tools/errs"
	"SermoProject/tools/security"
)

// TypingHandler refreshes the typing entry (5s TTL, expiry-driven, never
// cleared explicitly) and broadcasts the indicator.
type TypingHandler struct {
	presence chat.PresenceWriter
	out      chat.Broadcaster
}

func NewTypingHandler(presence chat.PresenceWriter, out chat.Broadcaster) chat.Handler {
	return &TypingHandler{presence: presence, out: out}
}

func (h *TypingHandler) Type() chat.EventType { return chat.EventTyping }

func (h *TypingHandler) Handle(ctx context.Context, from security.Identity, env *chat.Envelope) error {
	p, err := chat.DecodePayload[chat.TypingPayload](env)
	if err != nil {
		return err
	}
	if p.ChannelID <= 0 {
		return errs.ErrPayloadInvalid.WrapMsg("channelId missing")
	}

	if err := h.presence.SetTyping(ctx, from.UserID, p.ChannelID); err != nil {
		return err
	}

	frame, err := chat.BuildFrame(chat.EventTyping, chat.TypingBroadcast{
		UserID:    from.UserID,
		ChannelID: p.ChannelID,
	})
	if err != nil {
		return err
	}
	h.out.Broadcast(frame)
	return nil
}
