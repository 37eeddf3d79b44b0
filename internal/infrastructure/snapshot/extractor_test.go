package snapshot

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

const landingPage = `<!doctype html>
<html lang="en">
<head>
  <title>  Acme  Analytics | Home </title>
  <meta name="description" content="Analytics for growing teams">
  <meta property="og:title" content="Acme OG">
  <link rel="canonical" href="https://www.acme.co.uk/">
  <script>var tracking = "ignore me";</script>
  <style>.x{color:red}</style>
</head>
<body>
  <nav><a href="/pricing">Pricing</a><a href="/docs">Docs</a><a href="/pricing">Pricing</a></nav>
  <h1>Know your numbers</h1>
  <h2>Dashboards</h2><h2>Alerts</h2>
  <p>Acme helps teams ship faster with real time dashboards.</p>
  <a class="btn" href="/signup">Start free trial</a>
  <button>Book a demo</button>
  <form><input type="submit" value="Subscribe"></form>
  <img src="a.png"><img src="b.png">
  <noscript>enable javascript</noscript>
</body>
</html>`

func TestExtract(t *testing.T) {
	s, err := Extract("https://www.acme.co.uk/", []byte(landingPage))
	require.NoError(t, err)

	assert.Equal(t, "Acme Analytics | Home", s.Title)
	assert.Equal(t, "Analytics for growing teams", s.MetaDescription)
	assert.Equal(t, "Acme OG", s.OGTitle)
	assert.Equal(t, "https://www.acme.co.uk/", s.Canonical)
	assert.Equal(t, "en", s.Language)
	assert.Equal(t, "acme.co.uk", s.Domain)
	assert.Equal(t, []string{"Know your numbers"}, s.Headings.H1)
	assert.Equal(t, []string{"Dashboards", "Alerts"}, s.Headings.H2)
	assert.Equal(t, []string{"Pricing", "Docs"}, s.NavLinks)
	assert.Equal(t, []string{"Start free trial", "Book a demo", "Subscribe"}, s.CallsToAction)
	assert.Equal(t, 2, s.ImageCount)
	assert.Equal(t, 4, s.LinkCount)
	assert.NotContains(t, s.TextSample, "tracking")
	assert.NotContains(t, s.TextSample, "enable javascript")
	assert.Contains(t, s.TextSample, "real time dashboards")
	assert.Greater(t, s.WordCount, 10)
	assert.Len(t, s.ContentHash, 64)
}

func TestExtract_EmptyDocumentIsParseError(t *testing.T) {
	_, err := Extract("https://empty.example", []byte("<html><head></head><body><script>x()</script></body></html>"))

	var perr *entity.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "https://empty.example", perr.URL)
}

func TestExtract_TitleFallsBackToOpenGraph(t *testing.T) {
	s, err := Extract("https://og.example", []byte(`<html><head><meta property="og:title" content="Only OG"></head><body></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Only OG", s.Title)
}

func TestExtract_TextSampleIsBounded(t *testing.T) {
	page := "<html><body><p>" + strings.Repeat("word ", 3000) + "</p></body></html>"
	s, err := Extract("https://long.example", []byte(page))
	require.NoError(t, err)
	assert.Equal(t, 3000, s.WordCount)
	assert.Equal(t, textSampleRunes, len([]rune(s.TextSample)))
}
