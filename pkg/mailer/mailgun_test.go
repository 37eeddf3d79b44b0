package mailer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailgunSend_PostsMessage(t *testing.T) {
	var got http.Header
	var path, to, subject, tag string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header
		path = r.URL.Path
		to, subject, tag = r.FormValue("to"), r.FormValue("subject"), r.FormValue("o:tag")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"<1@mg.example.com>","message":"Queued. Thank you."}`))
	}))
	defer srv.Close()

	m := NewMailgun("mg.example.com", "key-test", "Radar <no-reply@example.com>").WithAPIBase(srv.URL + "/v3")
	require.NoError(t, m.Send(context.Background(), "a@b.com", "Hello", "text", "<p>html</p>"))

	assert.True(t, strings.HasSuffix(path, "/mg.example.com/messages"), path)
	assert.Equal(t, "a@b.com", to)
	assert.Equal(t, "Hello", subject)
	assert.Equal(t, "radar", tag)
	assert.NotEmpty(t, got.Get("Authorization"))
}

func TestMailgunSend_ReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"forbidden"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewMailgun("mg.example.com", "bad", "no-reply@example.com").WithAPIBase(srv.URL + "/v3")
	assert.Error(t, m.Send(context.Background(), "a@b.com", "s", "t", ""))
}
