package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type fakeTransport struct {
	err  error
	sent []string
}

func (f *fakeTransport) Send(_ context.Context, to, subject, _, _ string) error {
	f.sent = append(f.sent, to+"|"+subject)
	return f.err
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestHandleAcksDeliveredJob(t *testing.T) {
	tr := &fakeTransport{}
	d := handle(context.Background(), tr, []byte(`{"to":"ana@example.com","subject":"Hi","text":"hello"}`), false, quiet())
	assert.Equal(t, ack, d)
	assert.Equal(t, []string{"ana@example.com|Hi"}, tr.sent)
}

func TestHandleDropsMalformedJobs(t *testing.T) {
	tr := &fakeTransport{}
	assert.Equal(t, drop, handle(context.Background(), tr, []byte(`{`), false, quiet()))
	assert.Equal(t, drop, handle(context.Background(), tr, []byte(`{"subject":"Hi"}`), false, quiet()))
	assert.Equal(t, drop, handle(context.Background(), tr, []byte(`{"to":"ana@example.com","template":"login_otp"}`), false, quiet()))
	assert.Empty(t, tr.sent)
}

func TestHandleRetriesOnce(t *testing.T) {
	tr := &fakeTransport{err: errors.New("mailgun 503")}
	body := []byte(`{"to":"ana@example.com","subject":"Hi","text":"hello"}`)
	assert.Equal(t, retry, handle(context.Background(), tr, body, false, quiet()))
	assert.Equal(t, drop, handle(context.Background(), tr, body, true, quiet()))
}
