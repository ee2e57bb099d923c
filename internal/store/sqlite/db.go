package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"gramline/internal/domain"
)

// Open opens a SQLite database with the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	// Serialized writers keep the append transaction (message insert +
	// snapshot update + unread increment) atomic without busy errors.
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL for the chat delivery schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			profile_image TEXT NOT NULL DEFAULT '',
			hashed_password TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		// The chat id is the canonical sorted pair key, so the primary key
		// already enforces one chat per unordered participant pair. The
		// sorted columns keep that invariant visible and queryable.
		`CREATE TABLE IF NOT EXISTS chats (
			id TEXT PRIMARY KEY,
			participant_low TEXT NOT NULL,
			participant_high TEXT NOT NULL,
			last_message TEXT NOT NULL DEFAULT '',
			last_message_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (participant_low, participant_high)
		);`,
		`CREATE TABLE IF NOT EXISTS chat_unread (
			chat_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			unread INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (chat_id, user_id),
			FOREIGN KEY (chat_id) REFERENCES chats(id)
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			chat_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			receiver_id TEXT,
			text TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			from_user TEXT NOT NULL,
			to_user TEXT NOT NULL,
			post_id TEXT,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			caption TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			video_url TEXT NOT NULL DEFAULT '',
			media_type TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_low ON chats(participant_low, last_message_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_high ON chats(participant_high, last_message_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat_created ON messages(chat_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(to_user, created_at DESC);`,
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
