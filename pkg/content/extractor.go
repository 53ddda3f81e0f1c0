package content

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/markusmobius/go-trafilatura"

	"github.com/Barac9492/contrarian-brief/pkg/config"
	"github.com/Barac9492/contrarian-brief/pkg/domain"
)

// Extractor pulls readable article text from a post URL using trafilatura.
// Used to backfill content for posts that arrive with a link only.
type Extractor struct {
	cfg    config.ExtractionConfig
	client *http.Client
}

// NewExtractor creates a content extractor
func NewExtractor(cfg config.ExtractionConfig) *Extractor {
	return &Extractor{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Extract retrieves the page behind urlStr and returns its main text,
// trimmed to the configured bounds. Transport failures are reported as
// TransportError.
func (e *Extractor) Extract(ctx context.Context, urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", &domain.ValidationError{Reason: fmt.Sprintf("bad URL %q: %v", urlStr, err)}
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", &domain.ValidationError{Reason: fmt.Sprintf("incomplete URL %q", urlStr)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", &domain.TransportError{Op: "fetch page", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &domain.TransportError{Op: "fetch page", Err: fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, urlStr)}
	}

	result, err := trafilatura.Extract(resp.Body, trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		Deduplicate:     true,
		OriginalURL:     parsedURL,
	})
	if err != nil {
		return "", fmt.Errorf("extract content from %s: %w", urlStr, err)
	}
	if result == nil {
		return "", fmt.Errorf("no content extracted from %s", urlStr)
	}

	text := strings.TrimSpace(result.ContentText)
	if len(text) < e.cfg.MinTextLength {
		return "", fmt.Errorf("extracted text too short (%d chars) from %s", len(text), urlStr)
	}
	if e.cfg.MaxTextLength > 0 && len(text) > e.cfg.MaxTextLength {
		text = text[:e.cfg.MaxTextLength]
	}

	return text, nil
}
