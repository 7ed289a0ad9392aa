package service

import (
	"context"

	"SermoProject/tools/errs"
)

// Minimal relational schema the gateway-side services touch. Account and
// server/channel CRUD own the rest of the schema elsewhere.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         BIGSERIAL PRIMARY KEY,
	username   TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS messages (
	id                BIGSERIAL PRIMARY KEY,
	sender_id         BIGINT NOT NULL REFERENCES users(id),
	channel_id        BIGINT NOT NULL,
	encrypted_content TEXT NOT NULL,
	nonce             TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	edited_at         TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_messages_channel_created
	ON messages (channel_id, created_at);
`

// EnsureSchema creates the tables if they do not exist yet.
func (s *Service) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return errs.WrapMsg(err, "ensure schema")
}
