package service

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"SermoProject/module/message/model"
	"SermoProject/tools/errs"
)

// Service is the message persistence collaborator: a thin layer over the
// relational messages/users tables. The gateway consumes it through the
// narrow MessageSender contract only; the REST surface uses the rest.
type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

const messageColumns = `m.id, m.sender_id, u.username, m.channel_id, m.encrypted_content, m.nonce, m.created_at, m.edited_at`

func scanMessage(row pgx.Row) (*model.Message, error) {
	var m model.Message
	err := row.Scan(&m.ID, &m.SenderID, &m.SenderUsername, &m.ChannelID,
		&m.EncryptedContent, &m.Nonce, &m.CreatedAt, &m.EditedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SendMessage inserts the opaque ciphertext and returns the canonical record,
// sender username resolved in the same statement.
func (s *Service) SendMessage(ctx context.Context, userID, channelID int64, encryptedContent, nonce string) (*model.Message, error) {
	const q = `
		WITH ins AS (
			INSERT INTO messages (sender_id, channel_id, encrypted_content, nonce)
			VALUES ($1, $2, $3, $4)
			RETURNING id, sender_id, channel_id, encrypted_content, nonce, created_at, edited_at
		)
		SELECT ins.id, ins.sender_id, u.username, ins.channel_id, ins.encrypted_content, ins.nonce, ins.created_at, ins.edited_at
		FROM ins JOIN users u ON u.id = ins.sender_id`
	m, err := scanMessage(s.pool.QueryRow(ctx, q, userID, channelID, encryptedContent, nonce))
	if err != nil {
		return nil, errs.ErrStoreFailure.WrapMsg(err.Error())
	}
	return m, nil
}

// EditMessage updates content/nonce and stamps edited_at, only when the
// requesting user is the original sender.
func (s *Service) EditMessage(ctx context.Context, messageID, userID int64, encryptedContent, nonce string) (*model.Message, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errs.ErrStoreFailure.WrapMsg(err.Error())
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var senderID int64
	err = tx.QueryRow(ctx, `SELECT sender_id FROM messages WHERE id = $1 FOR UPDATE`, messageID).Scan(&senderID)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrRecordNotFound.WrapMsg("message", "id", messageID)
	}
	if err != nil {
		return nil, errs.ErrStoreFailure.WrapMsg(err.Error())
	}
	if senderID != userID {
		return nil, errs.ErrEditForbidden.WrapMsg("edit", "message", messageID, "user", userID)
	}

	const q = `
		WITH upd AS (
			UPDATE messages
			SET encrypted_content = $2, nonce = $3, edited_at = now()
			WHERE id = $1
			RETURNING id, sender_id, channel_id, encrypted_content, nonce, created_at, edited_at
		)
		SELECT upd.id, upd.sender_id, u.username, upd.channel_id, upd.encrypted_content, upd.nonce, upd.created_at, upd.edited_at
		FROM upd JOIN users u ON u.id = upd.sender_id`
	m, err := scanMessage(tx.QueryRow(ctx, q, messageID, encryptedContent, nonce))
	if err != nil {
		return nil, errs.ErrStoreFailure.WrapMsg(err.Error())
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errs.ErrStoreFailure.WrapMsg(err.Error())
	}
	return m, nil
}

// GetChannelMessages returns the channel history, oldest first.
func (s *Service) GetChannelMessages(ctx context.Context, channelID int64) ([]*model.Message, error) {
	const q = `
		SELECT ` + messageColumns + `
		FROM messages m JOIN users u ON u.id = m.sender_id
		WHERE m.channel_id = $1
		ORDER BY m.created_at ASC`
	rows, err := s.pool.Query(ctx, q, channelID)
	if err != nil {
		return nil, errs.ErrStoreFailure.WrapMsg(err.Error())
	}
	defer rows.Close()

	var out []*model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, errs.ErrStoreFailure.WrapMsg(err.Error())
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.ErrStoreFailure.WrapMsg(err.Error())
	}
	return out, nil
}
