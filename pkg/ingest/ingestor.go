// Package ingest drives the end-to-end feed ingestion run:
// fetch raw feed items, normalize each into a canonical post, skip
// duplicates against the collection, classify the rest and add them.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-pkgz/lgr"

	"github.com/Barac9492/contrarian-brief/pkg/domain"
	"github.com/Barac9492/contrarian-brief/pkg/feed"
)

// Fetcher retrieves raw items from the configured feed
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]feed.RawItem, error)
}

// Classifier assigns theme, key insight and tags to a candidate post
type Classifier interface {
	Classify(ctx context.Context, title, content string) domain.Classification
}

// Collection is the post collection the run dedupes against and adds to
type Collection interface {
	Exists(candidate domain.Post) bool
	Add(ctx context.Context, post domain.Post) (*domain.Post, error)
}

// Extractor backfills content for items that arrive with a link only
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Ingestor orchestrates one ingestion run over the configured feed
type Ingestor struct {
	feedURL    string
	fetcher    Fetcher
	classifier Classifier
	collection Collection
	extractor  Extractor // optional
	cache      *feed.Cache
}

// Config holds ingestor dependencies
type Config struct {
	FeedURL    string
	Fetcher    Fetcher
	Classifier Classifier
	Collection Collection
	Extractor  Extractor
	Cache      *feed.Cache
}

// New creates an ingestor. Extractor may be nil when content extraction is
// disabled.
func New(cfg Config) *Ingestor {
	return &Ingestor{
		feedURL:    cfg.FeedURL,
		fetcher:    cfg.Fetcher,
		classifier: cfg.Classifier,
		collection: cfg.Collection,
		extractor:  cfg.Extractor,
		cache:      cfg.Cache,
	}
}

// Run executes a single ingestion run and returns the number of newly added
// posts. Zero added is a valid, non-error outcome. The feed fetch itself is
// the only terminal failure; per-item classification and persistence
// problems are absorbed so one bad item never blocks the rest.
//
// Candidates are processed strictly one at a time, oldest first, each
// classified and added before the next is considered, so dedupe decisions
// see the additions made earlier in the same run.
func (ing *Ingestor) Run(ctx context.Context) (added int, err error) {
	items, err := ing.fetchItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("ingestion run failed: %w", err)
	}

	lgr.Printf("[INFO] ingestion run over %d feed items", len(items))

	for _, item := range sortOldestFirst(items) {
		candidate := feed.Normalize(item)
		if candidate.Title == "" {
			lgr.Printf("[DEBUG] skipping untitled feed item %q", item.Link)
			continue
		}

		if ing.collection.Exists(candidate) {
			lgr.Printf("[DEBUG] skipping duplicate %q", candidate.Title)
			continue
		}

		if candidate.Content == "" && candidate.URL != "" && ing.extractor != nil {
			text, exErr := ing.extractor.Extract(ctx, candidate.URL)
			if exErr != nil {
				lgr.Printf("[WARN] content extraction failed for %q: %v", candidate.URL, exErr)
			} else {
				candidate.Content = text
			}
		}

		// classification failure degrades to the fallback inside Classify,
		// it never blocks the add
		result := ing.classifier.Classify(ctx, candidate.Title, candidate.Content)
		candidate.Theme = result.Theme
		candidate.KeyInsight = result.KeyInsight
		candidate.Tags = result.Tags

		if _, addErr := ing.collection.Add(ctx, candidate); addErr != nil {
			var pErr *domain.PersistenceError
			if errors.As(addErr, &pErr) {
				// mutation took effect in memory, count it
				lgr.Printf("[WARN] added %q without durability: %v", candidate.Title, addErr)
				added++
				continue
			}
			lgr.Printf("[WARN] failed to add %q: %v", candidate.Title, addErr)
			continue
		}
		added++
	}

	lgr.Printf("[INFO] ingestion run completed, %d new posts", added)
	return added, nil
}

// fetchItems serves feed items from the freshness cache when possible
func (ing *Ingestor) fetchItems(ctx context.Context) ([]feed.RawItem, error) {
	if ing.cache != nil {
		if items, ok := ing.cache.Get(); ok {
			lgr.Printf("[DEBUG] serving feed items from cache")
			return items, nil
		}
	}

	items, err := ing.fetcher.Fetch(ctx, ing.feedURL)
	if err != nil {
		return nil, err
	}

	if ing.cache != nil {
		ing.cache.Put(items)
	}
	return items, nil
}

// sortOldestFirst orders items by published date ascending so the newest
// post ends up at the top of the collection after prepending adds. Items
// without a date keep their feed order at the end.
func sortOldestFirst(items []feed.RawItem) []feed.RawItem {
	sorted := make([]feed.RawItem, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Published.IsZero() || b.Published.IsZero() {
			return false // undated items keep their feed order
		}
		return a.Published.Before(b.Published)
	})
	return sorted
}
