package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("forgot_password", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestRenderSubjectIsOneLine(t *testing.T) {
	subject, text, html, err := Render(ReportReady, map[string]any{"YourURL": "https://acme.com", "OverallPosition": "lagging"})
	require.NoError(t, err)
	assert.Equal(t, "Your competitor report for https://acme.com is ready", subject)
	assert.NotEmpty(t, text)
	assert.NotEmpty(t, html)
}

func TestLoadCachesParsedTemplates(t *testing.T) {
	a, err := load(MagicLink)
	require.NoError(t, err)
	b, err := load(MagicLink)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestDefaultFn(t *testing.T) {
	assert.Equal(t, "Radar", defaultFn("Radar", "  "))
	assert.Equal(t, "Acme", defaultFn("Radar", "Acme"))
	assert.Equal(t, 3, defaultFn(3, 0))
	assert.Equal(t, "x", defaultFn("x", nil))
}
