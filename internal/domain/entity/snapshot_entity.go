package entity

import "time"

// Headings groups the outline of a page by level.
type Headings struct {
	H1 []string `json:"h1"`
	H2 []string `json:"h2"`
	H3 []string `json:"h3"`
}

// Snapshot is the structural extraction of one fetched page at one point in time.
// It is produced per call and only ever persisted embedded in a report.
type Snapshot struct {
	URL             string    `json:"url"`
	FinalURL        string    `json:"final_url"`
	Domain          string    `json:"domain"`
	FetchedAt       time.Time `json:"fetched_at"`
	StatusCode      int       `json:"status_code"`
	Title           string    `json:"title"`
	MetaDescription string    `json:"meta_description,omitempty"`
	OGTitle         string    `json:"og_title,omitempty"`
	OGDescription   string    `json:"og_description,omitempty"`
	Canonical       string    `json:"canonical,omitempty"`
	Language        string    `json:"language,omitempty"`
	Headings        Headings  `json:"headings"`
	CallsToAction   []string  `json:"calls_to_action,omitempty"`
	NavLinks        []string  `json:"nav_links,omitempty"`
	WordCount       int       `json:"word_count"`
	LinkCount       int       `json:"link_count"`
	ImageCount      int       `json:"image_count"`
	TextSample      string    `json:"text_sample,omitempty"`
	ContentHash     string    `json:"content_hash"`
}
