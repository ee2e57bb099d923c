package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"gramline/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

// Append inserts the message and updates the chat snapshot in a single
// transaction: readers never see one without the other, and the atomic
// unread increment cannot lose updates under concurrent sends. A missing
// chat row is tolerated, mirroring the socket path where messages may
// precede an explicit start-chat; the snapshot update is simply skipped.
func (r *MessageRepo) Append(ctx context.Context, m *domain.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var receiver any
	if m.ReceiverID != "" {
		receiver = m.ReceiverID
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender_id, receiver_id, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.ChatID, m.SenderID, receiver, m.Text, m.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE chats SET last_message = ?, last_message_at = ? WHERE id = ?
	`, m.Text, m.CreatedAt, m.ChatID)
	if err != nil {
		return fmt.Errorf("update chat snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 && m.ReceiverID != "" {
		if _, err := tx.ExecContext(ctx, `
			UPDATE chat_unread SET unread = unread + 1 WHERE chat_id = ? AND user_id = ?
		`, m.ChatID, m.ReceiverID); err != nil {
			return fmt.Errorf("increment unread: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *MessageRepo) ListForChat(ctx context.Context, chatID string) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_id, sender_id, receiver_id, text, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at ASC, id ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		var receiver sql.NullString
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &receiver, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ReceiverID = receiver.String
		res = append(res, m)
	}
	return res, rows.Err()
}
