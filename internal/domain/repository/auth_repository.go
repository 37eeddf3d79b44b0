package repository

import (
	"context"
	"time"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

type MagicLinkRepository interface {
	Create(ctx context.Context, m *entity.MagicLink) error
	// Consume marks the link consumed only if it is unconsumed and not
	// expired at now, in one atomic step. ok is false when no row matched.
	Consume(ctx context.Context, tokenHash string, now time.Time) (email string, ok bool, err error)
	// Get returns nil, nil when the digest is unknown.
	Get(ctx context.Context, tokenHash string) (*entity.MagicLink, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// LinkRedeemer is an optional MagicLinkRepository extension that consumes a
// link and finds or creates its user atomically. ok is false when no row
// matched, exactly as for Consume.
type LinkRedeemer interface {
	Redeem(ctx context.Context, tokenHash string, now time.Time) (u *entity.User, created bool, ok bool, err error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *entity.Session) error
	// Get returns nil, nil when the digest is unknown.
	Get(ctx context.Context, tokenHash string) (*entity.Session, error)
	Delete(ctx context.Context, tokenHash string) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
