// Package auth issues and redeems single-use magic links and manages the
// opaque sessions minted from them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/competitor-radar/config"
	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	repo "github.com/oksasatya/competitor-radar/internal/domain/repository"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/crm"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/ratelimit"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
	"github.com/oksasatya/competitor-radar/pkg/mailer"
	mailtpl "github.com/oksasatya/competitor-radar/pkg/mailer/templates"
)

const (
	DefaultMagicLinkTTL = 15 * time.Minute
	crmTimeout          = 5 * time.Second
	// tokens are far shorter; anything longer cannot be one we issued
	maxTokenLen = 512
)

// RequestMeta describes where a magic-link request came from.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// RateLimitedError wraps entity.ErrRateLimited with the time until a retry can succeed.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string { return entity.ErrRateLimited.Error() }
func (e *RateLimitedError) Unwrap() error { return entity.ErrRateLimited }

// Recorder receives auth telemetry. A nil Recorder is allowed.
type Recorder interface {
	AuthEvent(event, outcome string)
}

type MagicLinkOptions struct {
	TTL     time.Duration
	LinkURL string
	Now     func() time.Time
}

type MagicLinkService struct {
	Links    repo.MagicLinkRepository
	Users    repo.UserRepository
	Limiter  ratelimit.Limiter
	Mailer   mailer.Sender
	CRM      crm.Sink
	Hasher   *helpers.TokenHasher
	Config   *config.Config
	Logger   *logrus.Logger
	Recorder Recorder

	opts MagicLinkOptions
	wg   sync.WaitGroup
}

func NewMagicLinkService(
	links repo.MagicLinkRepository,
	users repo.UserRepository,
	limiter ratelimit.Limiter,
	sender mailer.Sender,
	sink crm.Sink,
	hasher *helpers.TokenHasher,
	cfg *config.Config,
	logger *logrus.Logger,
	recorder Recorder,
	opts MagicLinkOptions,
) *MagicLinkService {
	if opts.TTL <= 0 {
		opts.TTL = DefaultMagicLinkTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if sink == nil {
		sink = crm.NopSink{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MagicLinkService{
		Links:    links,
		Users:    users,
		Limiter:  limiter,
		Mailer:   sender,
		CRM:      sink,
		Hasher:   hasher,
		Config:   cfg,
		Logger:   logger,
		Recorder: recorder,
		opts:     opts,
	}
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, "@")
}

// Request issues a magic link for email. Over the limit it returns a
// *RateLimitedError and nothing is created or sent. Email and CRM failures
// are logged only.
func (s *MagicLinkService) Request(ctx context.Context, email string, meta RequestMeta) error {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		s.record("request", "invalid")
		return entity.ErrInvalidEmail
	}

	d, err := s.Limiter.Allow(ctx, email)
	if err != nil {
		s.record("request", "error")
		return fmt.Errorf("check magic link rate limit: %w", err)
	}
	if !d.Allowed {
		s.record("request", "rate_limited")
		s.Logger.WithFields(logrus.Fields{"email": email, "ip": meta.IP}).Info("magic link request rate limited")
		return &RateLimitedError{RetryAfter: d.ResetIn}
	}

	token, err := helpers.NewToken(helpers.MagicLinkTokenPrefix)
	if err != nil {
		s.record("request", "error")
		return err
	}
	now := s.opts.Now()
	link := &entity.MagicLink{
		TokenHash: s.Hasher.Digest(token),
		Email:     email,
		ExpiresAt: now.Add(s.opts.TTL),
		CreatedAt: now,
		RequestIP: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.Links.Create(ctx, link); err != nil {
		s.record("request", "error")
		return fmt.Errorf("store magic link: %w", err)
	}

	loginURL, err := buildLoginURL(s.opts.LinkURL, token)
	if err != nil {
		s.record("request", "error")
		return err
	}
	job := mailer.EmailJob{
		To:       email,
		Template: mailtpl.MagicLink,
		Data: mailtpl.NewMagicLinkData(s.Config, email, loginURL,
			mailtpl.WithExpiresAt(link.ExpiresAt),
			mailtpl.WithIP(meta.IP),
			mailtpl.WithUserAgent(meta.UserAgent),
			mailtpl.WithTime(now),
		),
	}
	if err := s.Mailer.Send(ctx, job); err != nil {
		helpers.LogWarn(s.Logger, "magic link email failed", err, logrus.Fields{"email": email})
	}

	s.goUpsertContact(ctx, crm.Contact{Email: email, Source: "radar", Event: "magic_link_requested", SeenAt: now})
	s.record("request", "sent")
	return nil
}

// Verify redeems token exactly once. Concurrent calls with the same token
// yield one identity; every other call gets entity.ErrTokenConsumed.
func (s *MagicLinkService) Verify(ctx context.Context, token string) (*entity.Identity, error) {
	token = strings.TrimSpace(token)
	if len(token) > maxTokenLen || !helpers.HasTokenPrefix(token, helpers.MagicLinkTokenPrefix) {
		s.record("verify", "not_found")
		return nil, entity.ErrTokenNotFound
	}
	digest := s.Hasher.Digest(token)

	u, created, ok, err := s.redeem(ctx, digest)
	if err != nil {
		s.record("verify", "error")
		return nil, err
	}
	if !ok {
		cause := s.classify(ctx, digest)
		s.record("verify", outcomeOf(cause))
		return nil, cause
	}
	if err := s.Users.TouchLogin(ctx, u.ID); err != nil {
		helpers.LogWarn(s.Logger, "record last login failed", err, logrus.Fields{"user_id": u.ID})
	}
	if created {
		s.goUpsertContact(ctx, crm.Contact{Email: u.Email, Source: "radar", Event: "signed_up", SeenAt: s.opts.Now()})
	}
	s.record("verify", "ok")
	return &entity.Identity{UserID: u.ID, Email: u.Email, IsNew: created}, nil
}

// redeem consumes the link and resolves its user. Stores that implement
// repo.LinkRedeemer do both atomically; otherwise a user store failure after
// the consume leaves the link spent.
func (s *MagicLinkService) redeem(ctx context.Context, digest string) (*entity.User, bool, bool, error) {
	now := s.opts.Now()
	if r, ok := s.Links.(repo.LinkRedeemer); ok {
		u, created, ok, err := r.Redeem(ctx, digest, now)
		if err != nil {
			return nil, false, false, fmt.Errorf("redeem magic link: %w", err)
		}
		return u, created, ok, nil
	}

	email, ok, err := s.Links.Consume(ctx, digest, now)
	if err != nil {
		return nil, false, false, fmt.Errorf("consume magic link: %w", err)
	}
	if !ok {
		return nil, false, false, nil
	}
	u, created, err := s.Users.FindOrCreateByEmail(ctx, email)
	if err != nil {
		return nil, false, false, fmt.Errorf("resolve user: %w", err)
	}
	return u, created, true, nil
}

// classify explains why a conditional consume matched nothing. Replay wins
// over expiry.
func (s *MagicLinkService) classify(ctx context.Context, digest string) error {
	link, err := s.Links.Get(ctx, digest)
	if err != nil {
		return fmt.Errorf("load magic link: %w", err)
	}
	switch {
	case link == nil:
		return entity.ErrTokenNotFound
	case link.Consumed():
		return entity.ErrTokenConsumed
	default:
		return entity.ErrTokenExpired
	}
}

// Wait blocks until in-flight CRM upserts finish.
func (s *MagicLinkService) Wait() { s.wg.Wait() }

func (s *MagicLinkService) goUpsertContact(ctx context.Context, c crm.Contact) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), crmTimeout)
		defer cancel()
		if err := s.CRM.Upsert(cctx, c); err != nil {
			helpers.LogWarn(s.Logger, "crm upsert failed", err, logrus.Fields{"email": c.Email, "event": c.Event})
		}
	}()
}

func (s *MagicLinkService) record(event, outcome string) {
	if s.Recorder != nil {
		s.Recorder.AuthEvent(event, outcome)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, entity.ErrTokenConsumed):
		return "consumed"
	case errors.Is(err, entity.ErrTokenExpired):
		return "expired"
	case errors.Is(err, entity.ErrTokenNotFound):
		return "not_found"
	}
	return "error"
}

func buildLoginURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse magic link url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
