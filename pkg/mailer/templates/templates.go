package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	htmpl "html/template"
	"io"
	"reflect"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// EmailData defines standard fields for email templates.
type EmailData struct {
	Email string `json:"Email"`
	Type  string `json:"Type"`

	// Company info
	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	AppName        string `json:"AppName"`

	// URLs
	LogoURL        string `json:"LogoURL"`
	SupportURL     string `json:"SupportURL"`
	PrivacyURL     string `json:"PrivacyURL"`
	UnsubscribeURL string `json:"UnsubscribeURL"`

	// Magic link
	LoginURL      string    `json:"LoginURL"`
	ExpiresAt     time.Time `json:"ExpiresAt"`
	ExpiresAtText string    `json:"ExpiresAtText"`
	IP            string    `json:"IP"`
	UserAgent     string    `json:"UserAgent"`
	Time          string    `json:"Time"`

	// Report ready
	ReportURL           string `json:"ReportURL"`
	YourURL             string `json:"YourURL"`
	OverallPosition     string `json:"OverallPosition"`
	CompetitorCount     int    `json:"CompetitorCount"`
	HighThreatCount     int    `json:"HighThreatCount"`
	CriticalActionCount int    `json:"CriticalActionCount"`
	Partial             bool   `json:"Partial"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() {
			return fallback
		}
		zero := reflect.Zero(rv.Type()).Interface()
		if reflect.DeepEqual(value, zero) {
			return fallback
		}
		return value
	}
}

// ---- FuncMaps ----

func baseFuncs() map[string]any {
	return map[string]any{
		"now":        func() time.Time { return time.Now().UTC() },
		"formatTime": func(t time.Time, layout string) string { return t.Format(layout) },
		"upper":      strings.ToUpper,
		"default":    defaultFn,
	}
}

var (
	htmlFuncMap = htmpl.FuncMap(baseFuncs())
	textFuncMap = texttpl.FuncMap(baseFuncs())
)

// ---- Template names ----

const (
	MagicLink   = "magic_link"
	ReportReady = "report_ready"
)

// ErrUnknownTemplate is returned for a name outside the embedded set.
var ErrUnknownTemplate = errors.New("unknown email template")

// Known reports whether name has subject, text and html parts.
func Known(name string) bool { return name == MagicLink || name == ReportReady }

type parsed struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var (
	cacheMu sync.Mutex
	cache   = map[string]*parsed{}
)

// load parses the three parts of name once and caches them.
func load(name string) (*parsed, error) {
	if !Known(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if p, ok := cache[name]; ok {
		return p, nil
	}
	subject, err := texttpl.New(name+".subject.tmpl").Funcs(textFuncMap).ParseFS(FS, name+".subject.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse subject %q: %w", name, err)
	}
	text, err := texttpl.New(name+".text.tmpl").Funcs(textFuncMap).ParseFS(FS, name+".text.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text %q: %w", name, err)
	}
	html, err := htmpl.New(name+".html.tmpl").Funcs(htmlFuncMap).ParseFS(FS, name+".html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html %q: %w", name, err)
	}
	p := &parsed{subject: subject, text: text, html: html}
	cache[name] = p
	return p, nil
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func execute(t executor, part string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %s: %w", part, err)
	}
	return buf.String(), nil
}

// Render produces the subject, text and html bodies for name.
// The subject is trimmed to a single line.
func Render(name string, data any) (subject string, text string, html string, err error) {
	p, err := load(name)
	if err != nil {
		return "", "", "", err
	}
	if subject, err = execute(p.subject, name+" subject", data); err != nil {
		return "", "", "", err
	}
	subject = strings.Join(strings.Fields(subject), " ")
	if text, err = execute(p.text, name+" text", data); err != nil {
		return "", "", "", err
	}
	if html, err = execute(p.html, name+" html", data); err != nil {
		return "", "", "", err
	}
	return subject, text, html, nil
}
