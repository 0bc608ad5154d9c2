package crawler

import (
	"net/http"
	"time"
)

// Article is the persisted unit. Link is the identity key and never changes once stored.
type Article struct {
	Link        string
	Title       string
	PublishedAt time.Time
	Body        string
	CrawledAt   time.Time
}

// ListingItem is one candidate taken from a search listing page.
type ListingItem struct {
	Title string
	Link  string
	// RawDate is the unparsed date string; empty when the page carried none.
	RawDate string
}

// HasDate reports whether the listing fragment carried a date string.
func (i ListingItem) HasDate() bool {
	return i.RawDate != ""
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the raw result of a fetch. Non-2xx statuses are data, not errors.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// RunSummary tallies one orchestrator run.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	Inserted    int       `json:"inserted"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	PagesFailed int       `json:"pages_failed"`
	PagesEmpty  int       `json:"pages_empty"`
	Started     time.Time `json:"started_at"`
	Finished    time.Time `json:"finished_at"`
}

// Duration returns the wall time of the run, or zero while it is still open.
func (s RunSummary) Duration() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// ArticleEvent is published after an article has been stored.
type ArticleEvent struct {
	RunID       string    `json:"run_id"`
	Link        string    `json:"link"`
	Title       string    `json:"judul"`
	PublishedAt time.Time `json:"tanggal"`
}
