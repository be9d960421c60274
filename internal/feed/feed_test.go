package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedrelay/internal/feed"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Sample</title>
    <item>
      <title>  First Post </title>
      <link>https://example.com/posts/1</link>
    </item>
    <item>
      <title>No Link</title>
    </item>
    <item>
      <title>Second Post</title>
      <link> https://example.com/posts/2 </link>
    </item>
  </channel>
</rss>`

func TestFetchReturnsItemsInFeedOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	fetcher := feed.NewFetcher()
	items, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items with links, got %d", len(items))
	}
	if items[0].Link != "https://example.com/posts/1" || items[0].Title != "First Post" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].Link != "https://example.com/posts/2" {
		t.Fatalf("unexpected second item: %+v", items[1])
	}
}

func TestFetchPropagatesHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := feed.NewFetcher()
	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for server failure")
	}
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := feed.NewFetcher()
	if _, err := fetcher.Fetch(ctx, server.URL); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
