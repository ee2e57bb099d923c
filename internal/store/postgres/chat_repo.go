package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gramline/internal/domain"
)

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

var _ domain.ChatRepository = (*ChatRepo)(nil)

func (r *ChatRepo) FindOrCreate(ctx context.Context, userA, userB string) (*domain.Chat, bool, error) {
	key := domain.PairKey(userA, userB)
	low, high, err := domain.SplitPairKey(key)
	if err != nil {
		return nil, false, err
	}
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO chats (id, participant_low, participant_high, last_message, last_message_at, created_at)
		VALUES ($1, $2, $3, '', $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, key, low, high, now, now)
	if err != nil {
		return nil, false, fmt.Errorf("insert chat: %w", err)
	}
	inserted, _ := res.RowsAffected()
	for _, uid := range []string{low, high} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chat_unread (chat_id, user_id, unread) VALUES ($1, $2, 0)
			ON CONFLICT (chat_id, user_id) DO NOTHING
		`, key, uid); err != nil {
			return nil, false, fmt.Errorf("insert unread row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	chat, err := r.GetByID(ctx, key)
	return chat, inserted > 0, err
}

func (r *ChatRepo) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	c := &domain.Chat{ID: id}
	err := r.db.QueryRowContext(ctx, `
		SELECT participant_low, participant_high, last_message, last_message_at, created_at
		FROM chats WHERE id = $1
	`, id).Scan(&c.Participants[0], &c.Participants[1], &c.LastMessage, &c.LastMessageAt, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}

	if c.Unread, err = r.unreadFor(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ChatRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Chat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, participant_low, participant_high, last_message, last_message_at, created_at
		FROM chats
		WHERE participant_low = $1 OR participant_high = $1
		ORDER BY last_message_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var res []*domain.Chat
	for rows.Next() {
		c := &domain.Chat{}
		if err := rows.Scan(&c.ID, &c.Participants[0], &c.Participants[1], &c.LastMessage, &c.LastMessageAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}

	for _, c := range res {
		if c.Unread, err = r.unreadFor(ctx, c.ID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *ChatRepo) MarkRead(ctx context.Context, chatID, userID string) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM chats WHERE id = $1`, chatID).Scan(&exists)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check chat: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `
		UPDATE chat_unread SET unread = 0 WHERE chat_id = $1 AND user_id = $2
	`, chatID, userID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (r *ChatRepo) unreadFor(ctx context.Context, chatID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, unread FROM chat_unread WHERE chat_id = $1
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("load unread: %w", err)
	}
	defer rows.Close()

	unread := make(map[string]int, 2)
	for rows.Next() {
		var uid string
		var n int
		if err := rows.Scan(&uid, &n); err != nil {
			return nil, fmt.Errorf("scan unread: %w", err)
		}
		unread[uid] = n
	}
	return unread, rows.Err()
}
