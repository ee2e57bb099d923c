package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"gramline/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, profile_image, hashed_password, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Username, u.ProfileImage, u.HashedPassword, u.CreatedAt); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.get(ctx, `WHERE username = $1`, username)
}

func (r *UserRepo) get(ctx context.Context, where string, arg any) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, profile_image, hashed_password, created_at FROM users `+where,
		arg,
	).Scan(&u.ID, &u.Username, &u.ProfileImage, &u.HashedPassword, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
