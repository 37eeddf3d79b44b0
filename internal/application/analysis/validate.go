package analysis

import (
	"fmt"
	"net/url"
	"strings"
)

const MaxCompetitors = 5

// NormalizeURL trims the input, prefixes https:// when no scheme is present
// and requires a host.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty url")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("unparsable url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("missing host")
	}
	return u.String(), nil
}

// ValidateInput normalizes the subject and competitor URLs or returns a
// *ValidationError naming the first offending field.
func ValidateInput(subject string, competitors []string) (string, []string, error) {
	if len(competitors) == 0 || len(competitors) > MaxCompetitors {
		return "", nil, &ValidationError{
			Field:  "competitor_urls",
			Reason: fmt.Sprintf("expected 1 to %d urls, got %d", MaxCompetitors, len(competitors)),
		}
	}
	s, err := NormalizeURL(subject)
	if err != nil {
		return "", nil, &ValidationError{Field: "your_url", Reason: err.Error()}
	}
	out := make([]string, len(competitors))
	for i, c := range competitors {
		n, err := NormalizeURL(c)
		if err != nil {
			return "", nil, &ValidationError{Field: fmt.Sprintf("competitor_urls[%d]", i), Reason: err.Error()}
		}
		out[i] = n
	}
	return s, out, nil
}
