package templates

import (
	"strings"
	"time"

	"github.com/oksasatya/competitor-radar/config"
)

const timeLayout = "02 January 2006, 15:04 MST"

// Option pattern
type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = strings.TrimSpace(ip) } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format(timeLayout) }
}

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format(timeLayout)
	}
}

// NewBaseEmailData fills the branding fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, email string, opts ...Option) EmailData {
	d := EmailData{
		Email: email,
		Type:  typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		PrivacyURL:     cfg.PrivacyURL,
		UnsubscribeURL: cfg.UnsubscribeURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewMagicLinkData(cfg *config.Config, email, loginURL string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, MagicLink, email, opts...)
	d.LoginURL = loginURL
	return ToMap(d)
}

// ReportFacts is the slice of a report shown in the ready notification.
type ReportFacts struct {
	ReportURL           string
	YourURL             string
	OverallPosition     string
	CompetitorCount     int
	HighThreatCount     int
	CriticalActionCount int
	Partial             bool
}

func NewReportReadyData(cfg *config.Config, email string, f ReportFacts, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, ReportReady, email, opts...)
	d.ReportURL = f.ReportURL
	d.YourURL = f.YourURL
	d.OverallPosition = f.OverallPosition
	d.CompetitorCount = f.CompetitorCount
	d.HighThreatCount = f.HighThreatCount
	d.CriticalActionCount = f.CriticalActionCount
	d.Partial = f.Partial
	return ToMap(d)
}
