package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/memory"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
)

func newSessionManager(t *testing.T) (*SessionManager, *clock, string) {
	t.Helper()
	clk := &clock{t: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)}
	users := memory.NewUserRepository(clk.Now)
	u, _, err := users.FindOrCreateByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	m := NewSessionManager(memory.NewSessionRepository(users), helpers.NewTokenHasher("p"), 0, clk.Now)
	return m, clk, u.ID
}

func TestSession_CreateValidate(t *testing.T) {
	m, clk, uid := newSessionManager(t)
	ctx := context.Background()

	token, exp, err := m.Create(ctx, uid)
	require.NoError(t, err)
	assert.True(t, helpers.HasTokenPrefix(token, helpers.SessionTokenPrefix))
	assert.Equal(t, clk.Now().Add(7*24*time.Hour), exp)

	id, err := m.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uid, id.UserID)
	assert.Equal(t, "ana@example.com", id.Email)

	clk.Advance(7*24*time.Hour - time.Second)
	_, err = m.Validate(ctx, token)
	require.NoError(t, err)

	clk.Advance(time.Second)
	_, err = m.Validate(ctx, token)
	assert.ErrorIs(t, err, entity.ErrInvalidSession)
}

func TestSession_DestroyIsPermanentAndIdempotent(t *testing.T) {
	m, _, uid := newSessionManager(t)
	ctx := context.Background()

	token, _, err := m.Create(ctx, uid)
	require.NoError(t, err)
	other, _, err := m.Create(ctx, uid)
	require.NoError(t, err)

	require.NoError(t, m.Destroy(ctx, token))
	require.NoError(t, m.Destroy(ctx, token))
	require.NoError(t, m.Destroy(ctx, "not-a-token"))

	_, err = m.Validate(ctx, token)
	assert.ErrorIs(t, err, entity.ErrInvalidSession)

	_, err = m.Validate(ctx, other)
	assert.NoError(t, err)
}

func TestSession_RejectsMagicLinkNamespace(t *testing.T) {
	m, _, _ := newSessionManager(t)
	_, err := m.Validate(context.Background(), "ml_abcdefghijklmnop")
	assert.ErrorIs(t, err, entity.ErrInvalidSession)
}
