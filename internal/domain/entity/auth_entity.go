package entity

import "time"

// MagicLink is a single-use proof of email ownership.
// Only the digest of the token is ever stored.
type MagicLink struct {
	TokenHash  string
	Email      string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
	RequestIP  string
	UserAgent  string
}

// Consumed reports whether the link has already been redeemed.
func (m *MagicLink) Consumed() bool { return m.ConsumedAt != nil }

// ExpiredAt reports whether the link is no longer redeemable at now.
func (m *MagicLink) ExpiredAt(now time.Time) bool { return !now.Before(m.ExpiresAt) }

// Session is an opaque credential bound to one user.
type Session struct {
	TokenHash string
	UserID    string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ValidAt is the only validity rule for a session: now < ExpiresAt.
func (s *Session) ValidAt(now time.Time) bool { return now.Before(s.ExpiresAt) }
