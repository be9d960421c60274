// Package feed fetches RSS and Atom feeds and exposes their entries in
// document order.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is one feed entry reduced to the fields the pipeline consumes.
type Item struct {
	Title string
	Link  string
}

// Fetcher retrieves and parses feeds over HTTP.
type Fetcher struct {
	parser *gofeed.Parser
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client used for feed retrieval.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.parser.Client = client
	}
}

// NewFetcher returns a Fetcher with a bounded request timeout.
func NewFetcher(opts ...Option) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = "feedrelay"
	parser.Client = &http.Client{Timeout: 60 * time.Second}
	f := &Fetcher{parser: parser}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads and parses one feed. Items are returned in feed order
// with whitespace-trimmed titles and links; entries without a link are
// dropped because the link is the dedup key downstream.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Item, error) {
	parsed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		link := strings.TrimSpace(entry.Link)
		if link == "" {
			continue
		}
		items = append(items, Item{
			Title: strings.TrimSpace(entry.Title),
			Link:  link,
		})
	}
	return items, nil
}
