package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindOrCreateByEmail upserts on the unique email.
func (r *UserRepository) FindOrCreateByEmail(ctx context.Context, email string) (*entity.User, bool, error) {
	return upsertUser(ctx, r.db, email)
}

// upsertUser relies on xmax = 0 holding only for a freshly inserted row.
func upsertUser(ctx context.Context, q DB, email string) (*entity.User, bool, error) {
	u := &entity.User{}
	var created bool
	row := q.QueryRow(ctx, `
		INSERT INTO users (id, email)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, created_at, last_login_at, (xmax = 0)
	`, uuid.NewString(), email)
	if err := row.Scan(&u.ID, &u.Email, &u.CreatedAt, &u.LastLoginAt, &created); err != nil {
		return nil, false, err
	}
	return u, created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrUserNotFound
	}
	u := &entity.User{}
	row := r.db.QueryRow(ctx, `
		SELECT id, email, created_at, last_login_at
		FROM users
		WHERE id = $1
	`, id)
	if err := row.Scan(&u.ID, &u.Email, &u.CreatedAt, &u.LastLoginAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) TouchLogin(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrUserNotFound
	}
	return nil
}
