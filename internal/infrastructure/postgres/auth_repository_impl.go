package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

// consumeSQL is the single conditional UPDATE that serializes concurrent redemptions.
const consumeSQL = `
	UPDATE magic_links
	SET consumed_at = $2
	WHERE token_hash = $1 AND consumed_at IS NULL AND expires_at > $2
	RETURNING email`

type MagicLinkRepository struct {
	db DB
}

func NewMagicLinkRepository(db DB) *MagicLinkRepository {
	return &MagicLinkRepository{db: db}
}

func (r *MagicLinkRepository) Create(ctx context.Context, m *entity.MagicLink) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO magic_links (token_hash, email, expires_at, request_ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.TokenHash, m.Email, m.ExpiresAt, m.RequestIP, m.UserAgent, m.CreatedAt)
	return err
}

func (r *MagicLinkRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (string, bool, error) {
	var email string
	err := r.db.QueryRow(ctx, consumeSQL, tokenHash, now).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return email, true, nil
}

// Redeem consumes the link and upserts its user in one transaction, so a
// failed user write leaves the link redeemable.
func (r *MagicLinkRepository) Redeem(ctx context.Context, tokenHash string, now time.Time) (*entity.User, bool, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var email string
	err = tx.QueryRow(ctx, consumeSQL, tokenHash, now).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, false, nil
	}
	if err != nil {
		return nil, false, false, err
	}

	u, created, err := upsertUser(ctx, tx, email)
	if err != nil {
		return nil, false, false, fmt.Errorf("upsert user: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, false, err
	}
	return u, created, true, nil
}

func (r *MagicLinkRepository) Get(ctx context.Context, tokenHash string) (*entity.MagicLink, error) {
	m := &entity.MagicLink{}
	err := r.db.QueryRow(ctx, `
		SELECT token_hash, email, expires_at, consumed_at, request_ip, user_agent, created_at
		FROM magic_links
		WHERE token_hash = $1
	`, tokenHash).Scan(&m.TokenHash, &m.Email, &m.ExpiresAt, &m.ConsumedAt, &m.RequestIP, &m.UserAgent, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MagicLinkRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM magic_links WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type SessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *entity.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (token_hash, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`, s.TokenHash, s.UserID, s.ExpiresAt, s.CreatedAt)
	return err
}

func (r *SessionRepository) Get(ctx context.Context, tokenHash string) (*entity.Session, error) {
	s := &entity.Session{}
	err := r.db.QueryRow(ctx, `
		SELECT s.token_hash, s.user_id, u.email, s.expires_at, s.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1
	`, tokenHash).Scan(&s.TokenHash, &s.UserID, &s.Email, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}

func (r *SessionRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
