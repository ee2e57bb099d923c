package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"gramline/internal/domain"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL for the chat delivery schema on PostgreSQL.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			username        VARCHAR(50) UNIQUE NOT NULL,
			profile_image   TEXT NOT NULL DEFAULT '',
			hashed_password VARCHAR(255) NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chats (
			id               TEXT PRIMARY KEY,
			participant_low  TEXT NOT NULL,
			participant_high TEXT NOT NULL,
			last_message     TEXT NOT NULL DEFAULT '',
			last_message_at  TIMESTAMPTZ NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL,
			UNIQUE (participant_low, participant_high)
		)`,
		`CREATE TABLE IF NOT EXISTS chat_unread (
			chat_id TEXT NOT NULL REFERENCES chats(id),
			user_id TEXT NOT NULL,
			unread  INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (chat_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id          TEXT PRIMARY KEY,
			chat_id     TEXT NOT NULL,
			sender_id   TEXT NOT NULL,
			receiver_id TEXT,
			text        TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id         TEXT PRIMARY KEY,
			type       VARCHAR(20) NOT NULL,
			from_user  TEXT NOT NULL,
			to_user    TEXT NOT NULL,
			post_id    TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			caption    TEXT NOT NULL DEFAULT '',
			image_url  TEXT NOT NULL DEFAULT '',
			video_url  TEXT NOT NULL DEFAULT '',
			media_type TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_low ON chats(participant_low, last_message_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_high ON chats(participant_high, last_message_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat_created ON messages(chat_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(to_user, created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// NewRepositories builds the full repository set on one database handle.
func NewRepositories(db *sql.DB) domain.Repositories {
	return domain.Repositories{
		Users:         NewUserRepo(db),
		Chats:         NewChatRepo(db),
		Messages:      NewMessageRepo(db),
		Notifications: NewNotificationRepo(db),
		Posts:         NewPostRepo(db),
	}
}
