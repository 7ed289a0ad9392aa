package model

import "time"

// Message is the canonical persisted chat message record. Content is opaque
// ciphertext; the backend never sees plaintext, it stores and echoes what the
// clients encrypted end to end.
type Message struct {
	ID               int64      `json:"id"`
	SenderID         int64      `json:"senderId"`
	SenderUsername   string     `json:"senderUsername"`
	ChannelID        int64      `json:"channelId"`
	EncryptedContent string     `json:"encryptedContent"`
	Nonce            string     `json:"nonce"`
	CreatedAt        time.Time  `json:"createdAt"`
	EditedAt         *time.Time `json:"editedAt"`
}
