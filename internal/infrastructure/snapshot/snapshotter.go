// Package snapshot fetches a page and extracts the structural snapshot the
// insight synthesizer reasons over.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

const (
	DefaultUserAgent    = "RadarBot/1.0 (+https://radar.example/bot)"
	DefaultMaxBodyBytes = 2 << 20
	DefaultTimeout      = 15 * time.Second
)

var errBodyTooLarge = errors.New("response body exceeds limit")

type Options struct {
	// Client overrides the SSRF-guarded default client.
	Client       *http.Client
	UserAgent    string
	MaxBodyBytes int64
	Timeout      time.Duration
	Logger       *logrus.Logger
	Now          func() time.Time
}

// Snapshotter performs exactly one GET per Snapshot call and never retries.
type Snapshotter struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	logger       *logrus.Logger
	now          func() time.Time
}

func New(opts Options) *Snapshotter {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Client == nil {
		opts.Client = NewSafeClient(opts.Timeout)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Snapshotter{
		client:       opts.Client,
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       opts.Logger,
		now:          opts.Now,
	}
}

// Snapshot fetches rawURL, which must already carry a scheme.
func (s *Snapshotter) Snapshot(ctx context.Context, rawURL string) (*entity.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &entity.FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	start := s.now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &entity.FetchError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &entity.FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !isHTML(ct) {
		return nil, &entity.ParseError{URL: rawURL, Reason: fmt.Sprintf("unsupported content type %q", ct)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodyBytes+1))
	if err != nil {
		return nil, &entity.FetchError{URL: rawURL, Err: err}
	}
	if int64(len(body)) > s.maxBodyBytes {
		return nil, &entity.FetchError{URL: rawURL, Err: errBodyTooLarge}
	}

	snap, err := Extract(rawURL, body)
	if err != nil {
		return nil, err
	}
	snap.FetchedAt = s.now().UTC()
	snap.StatusCode = resp.StatusCode
	snap.FinalURL = rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		snap.FinalURL = resp.Request.URL.String()
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"url":        rawURL,
			"status":     resp.StatusCode,
			"bytes":      len(body),
			"words":      snap.WordCount,
			"elapsed_ms": s.now().Sub(start).Milliseconds(),
		}).Debug("snapshot captured")
	}
	return snap, nil
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	switch strings.ToLower(mediaType) {
	case "text/html", "application/xhtml+xml":
		return true
	}
	return false
}
