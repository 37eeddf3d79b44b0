package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	repo "github.com/oksasatya/competitor-radar/internal/domain/repository"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
)

const DefaultSessionTTL = 7 * 24 * time.Hour

type SessionManager struct {
	Sessions repo.SessionRepository
	Hasher   *helpers.TokenHasher
	TTL      time.Duration
	Now      func() time.Time
}

func NewSessionManager(sessions repo.SessionRepository, hasher *helpers.TokenHasher, ttl time.Duration, now func() time.Time) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SessionManager{Sessions: sessions, Hasher: hasher, TTL: ttl, Now: now}
}

// Create mints a session token for userID. Only its digest is stored.
func (m *SessionManager) Create(ctx context.Context, userID string) (string, time.Time, error) {
	token, err := helpers.NewToken(helpers.SessionTokenPrefix)
	if err != nil {
		return "", time.Time{}, err
	}
	now := m.Now()
	s := &entity.Session{
		TokenHash: m.Hasher.Digest(token),
		UserID:    userID,
		ExpiresAt: now.Add(m.TTL),
		CreatedAt: now,
	}
	if err := m.Sessions.Create(ctx, s); err != nil {
		return "", time.Time{}, fmt.Errorf("store session: %w", err)
	}
	return token, s.ExpiresAt, nil
}

// Validate is a lookup plus expiry check; it never mutates the session.
func (m *SessionManager) Validate(ctx context.Context, token string) (*entity.Identity, error) {
	token = strings.TrimSpace(token)
	if !helpers.HasTokenPrefix(token, helpers.SessionTokenPrefix) {
		return nil, entity.ErrInvalidSession
	}
	s, err := m.Sessions.Get(ctx, m.Hasher.Digest(token))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil || !s.ValidAt(m.Now()) {
		return nil, entity.ErrInvalidSession
	}
	return &entity.Identity{UserID: s.UserID, Email: s.Email}, nil
}

// Destroy revokes token. Unknown or already revoked tokens are not an error.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if !helpers.HasTokenPrefix(token, helpers.SessionTokenPrefix) {
		return nil
	}
	if err := m.Sessions.Delete(ctx, m.Hasher.Digest(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
