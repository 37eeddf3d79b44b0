// Package memory holds process-local repositories used by tests and the
// radarctl CLI.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entity.User
	byEmail map[string]string
	now     func() time.Time
}

func NewUserRepository(now func() time.Time) *UserRepository {
	if now == nil {
		now = time.Now
	}
	return &UserRepository{byID: map[string]*entity.User{}, byEmail: map[string]string{}, now: now}
}

func (r *UserRepository) FindOrCreateByEmail(_ context.Context, email string) (*entity.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byEmail[email]; ok {
		u := *r.byID[id]
		return &u, false, nil
	}
	u := &entity.User{ID: uuid.NewString(), Email: email, CreatedAt: r.now()}
	r.byID[u.ID] = u
	r.byEmail[email] = u.ID
	cp := *u
	return &cp, true, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) TouchLogin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return entity.ErrUserNotFound
	}
	t := r.now()
	u.LastLoginAt = &t
	return nil
}

func (r *UserRepository) email(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byID[id]; ok {
		return u.Email
	}
	return ""
}
