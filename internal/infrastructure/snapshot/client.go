package snapshot

import (
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// NewSafeClient returns an HTTP client that refuses to dial private,
// loopback, link-local and cloud metadata addresses. The check runs after
// DNS resolution, so rebinding a public name to an internal address fails too.
func NewSafeClient(timeout time.Duration) *http.Client {
	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()
	return safeurl.Client(cfg).Client
}
