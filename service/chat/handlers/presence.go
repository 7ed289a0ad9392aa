package handlers

import (
	"context"

	"SermoProject/service/chat"
	"SermoProject/tools/errs"
	"SermoProject/tools/security"
)

// PresenceHandler flips the 60s-TTL presence entry. "online" refreshes the
// (user, channel) key; any other status takes the user offline everywhere.
// This event produces no broadcast.
type PresenceHandler struct {
	presence chat.PresenceWriter
}

func NewPresenceHandler(presence chat.PresenceWriter) chat.Handler {
	return &PresenceHandler{presence: presence}
}

func (h *PresenceHandler) Type() chat.EventType { return chat.EventPresence }

func (h *PresenceHandler) Handle(ctx context.Context, from security.Identity, env *chat.Envelope) error {
	p, err := chat.DecodePayload[chat.PresencePayload](env)
	if err != nil {
		return err
	}
	if p.ChannelID <= 0 {
		return errs.ErrPayloadInvalid.WrapMsg("channelId missing")
	}

	if p.Status == "online" {
		return h.presence.SetOnline(ctx, from.UserID, p.ChannelID)
	}
	return h.presence.SetOffline(ctx, from.UserID)
}
