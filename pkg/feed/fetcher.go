package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Barac9492/contrarian-brief/pkg/domain"
)

// RawItem is a feed item as delivered by the upstream feed, loosely shaped.
// Any field may be empty; normalization turns it into a canonical post.
type RawItem struct {
	Title     string
	Link      string
	GUID      string
	Author    string
	Snippet   string    // plain-text description
	Content   string    // rich encoded content when the feed provides it
	Published time.Time // zero when the feed gives no usable date
}

// HTTPFetcher fetches and parses an RSS/Atom feed over HTTP
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a feed fetcher with the given timeout
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// Fetch retrieves the feed and returns its items in feed order. The fetch is
// all-or-nothing: any transport or parse failure is terminal for the whole
// call and reported as TransportError.
func (f *HTTPFetcher) Fetch(ctx context.Context, feedURL string) ([]RawItem, error) {
	body, err := f.get(ctx, feedURL)
	if err != nil {
		return nil, &domain.TransportError{Op: "fetch feed", Err: err}
	}
	defer body.Close()

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, &domain.TransportError{Op: "parse feed", Err: err}
	}

	items := make([]RawItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		raw := RawItem{
			Title:   item.Title,
			Link:    item.Link,
			GUID:    item.GUID,
			Snippet: item.Description,
			Content: item.Content, // content:encoded when present
		}

		if item.Author != nil {
			raw.Author = item.Author.Name
		}

		if item.PublishedParsed != nil {
			raw.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			raw.Published = *item.UpdatedParsed
		}

		items = append(items, raw)
	}

	return items, nil
}

// get retrieves feed content from a URL
func (f *HTTPFetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Substack serves feeds to browsers too; a bare client UA with no Accept
	// header gets rate-limited far more aggressively
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ko;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}
