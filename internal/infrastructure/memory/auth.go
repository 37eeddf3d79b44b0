package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

var errDuplicateToken = errors.New("token digest already exists")

type MagicLinkRepository struct {
	mu    sync.Mutex
	links map[string]entity.MagicLink
}

func NewMagicLinkRepository() *MagicLinkRepository {
	return &MagicLinkRepository{links: map[string]entity.MagicLink{}}
}

func (r *MagicLinkRepository) Create(_ context.Context, m *entity.MagicLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[m.TokenHash]; ok {
		return errDuplicateToken
	}
	r.links[m.TokenHash] = *m
	return nil
}

// Consume is the compare-and-set counterpart of the conditional UPDATE.
func (r *MagicLinkRepository) Consume(_ context.Context, tokenHash string, now time.Time) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.links[tokenHash]
	if !ok || m.Consumed() || m.ExpiredAt(now) {
		return "", false, nil
	}
	t := now
	m.ConsumedAt = &t
	r.links[tokenHash] = m
	return m.Email, true, nil
}

func (r *MagicLinkRepository) Get(_ context.Context, tokenHash string) (*entity.MagicLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.links[tokenHash]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *MagicLinkRepository) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, m := range r.links {
		if m.ExpiresAt.Before(before) {
			delete(r.links, k)
			n++
		}
	}
	return n, nil
}

type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]entity.Session
	users    *UserRepository
}

// NewSessionRepository resolves session emails through users, which may be nil.
func NewSessionRepository(users *UserRepository) *SessionRepository {
	return &SessionRepository{sessions: map[string]entity.Session{}, users: users}
}

func (r *SessionRepository) Create(_ context.Context, s *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.TokenHash]; ok {
		return errDuplicateToken
	}
	r.sessions[s.TokenHash] = *s
	return nil
}

func (r *SessionRepository) Get(_ context.Context, tokenHash string) (*entity.Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[tokenHash]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if r.users != nil {
		s.Email = r.users.email(s.UserID)
	}
	return &s, nil
}

func (r *SessionRepository) Delete(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}

func (r *SessionRepository) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, s := range r.sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.sessions, k)
			n++
		}
	}
	return n, nil
}
