package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

func TestMagicLinkRepository_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	r := NewMagicLinkRepository()
	now := time.Now()
	require.NoError(t, r.Create(ctx, &entity.MagicLink{TokenHash: "h", Email: "a@b.c", ExpiresAt: now.Add(time.Minute)}))
	assert.Error(t, r.Create(ctx, &entity.MagicLink{TokenHash: "h"}))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := r.Consume(ctx, "h", now); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)

	m, err := r.Get(ctx, "h")
	require.NoError(t, err)
	assert.True(t, m.Consumed())
}

func TestMagicLinkRepository_ExpiredNotConsumed(t *testing.T) {
	ctx := context.Background()
	r := NewMagicLinkRepository()
	now := time.Now()
	require.NoError(t, r.Create(ctx, &entity.MagicLink{TokenHash: "h", ExpiresAt: now}))

	_, ok, err := r.Consume(ctx, "h", now)
	require.NoError(t, err)
	assert.False(t, ok)

	m, _ := r.Get(ctx, "h")
	assert.False(t, m.Consumed())

	missing, err := r.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, err := r.PurgeExpired(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSessionRepository_ResolvesEmail(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(nil)
	u, created, err := users.FindOrCreateByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := users.FindOrCreateByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)

	r := NewSessionRepository(users)
	require.NoError(t, r.Create(ctx, &entity.Session{TokenHash: "s", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}))
	s, err := r.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", s.Email)

	require.NoError(t, r.Delete(ctx, "s"))
	require.NoError(t, r.Delete(ctx, "s"))
	s, err = r.Get(ctx, "s")
	require.NoError(t, err)
	assert.Nil(t, s)
}
