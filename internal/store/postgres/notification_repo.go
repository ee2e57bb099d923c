package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"gramline/internal/domain"
)

type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

var _ domain.NotificationRepository = (*NotificationRepo)(nil)

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, type, from_user, to_user, post_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID, string(n.Type), n.FromUser, n.ToUser, n.PostID, n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListForUser(ctx context.Context, toUser string, limit int) ([]*domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, from_user, to_user, post_id, created_at
		FROM notifications
		WHERE to_user = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, toUser, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var res []*domain.Notification
	for rows.Next() {
		n := &domain.Notification{}
		var typ string
		var postID sql.NullString
		if err := rows.Scan(&n.ID, &typ, &n.FromUser, &n.ToUser, &postID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = domain.NotificationType(typ)
		if postID.Valid {
			n.PostID = &postID.String
		}
		res = append(res, n)
	}
	return res, rows.Err()
}
