package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"gramline/internal/domain"
)

type PostRepo struct {
	db *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{db: db}
}

var _ domain.PostRepository = (*PostRepo)(nil)

func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (id, user_id, caption, image_url, video_url, media_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.UserID, p.Caption, p.ImageURL, p.VideoURL, p.MediaType, p.CreatedAt); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	p := &domain.Post{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, caption, image_url, video_url, media_type, created_at
		FROM posts WHERE id = $1
	`, id).Scan(&p.ID, &p.UserID, &p.Caption, &p.ImageURL, &p.VideoURL, &p.MediaType, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}
