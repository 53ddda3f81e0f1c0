// Package digest derives views over the post collection: theme grouping,
// distribution stats, date-range bounds and the theme-grouped content digest
// fed into report synthesis. All views are recomputed from the collection
// and carry no state of their own.
package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Barac9492/contrarian-brief/pkg/domain"
	"github.com/Barac9492/contrarian-brief/pkg/feed"
)

// NoDates is returned by DateRange when no post has a resolvable date
const NoDates = "N/A"

// snippetLen bounds the content fallback used when a post has no key insight
const snippetLen = 200

// Group is an ordered subsequence of posts sharing a theme
type Group struct {
	Theme domain.Theme
	Posts []domain.Post
}

// ThemeCount is one row of the theme distribution
type ThemeCount struct {
	Theme domain.Theme `json:"theme"`
	Count int          `json:"count"`
}

// GroupByTheme buckets posts by raw theme value, groups ordered by first
// encounter and posts keeping collection order within each group.
// Unrecognized themes form their own buckets.
func GroupByTheme(posts []domain.Post) []Group {
	index := make(map[domain.Theme]int)
	groups := make([]Group, 0)

	for _, p := range posts {
		theme := p.Theme.OrDefault()
		i, ok := index[theme]
		if !ok {
			i = len(groups)
			index[theme] = i
			groups = append(groups, Group{Theme: theme})
		}
		groups[i].Posts = append(groups[i].Posts, p)
	}

	return groups
}

// ThemeStats returns (theme, count) pairs sorted descending by count,
// stable on ties so equal counts keep first-encounter order.
func ThemeStats(posts []domain.Post) []ThemeCount {
	groups := GroupByTheme(posts)

	stats := make([]ThemeCount, 0, len(groups))
	for _, g := range groups {
		stats = append(stats, ThemeCount{Theme: g.Theme, Count: len(g.Posts)})
	}

	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	return stats
}

// DateRange computes the earliest and latest effective date across the
// collection, formatted as "Jan 2006 – Jan 2006". Returns the N/A sentinel
// on an empty collection or when no post resolves to a date.
func DateRange(posts []domain.Post) string {
	var earliest, latest time.Time
	for _, p := range posts {
		d := p.EffectiveDate()
		if d.IsZero() {
			continue
		}
		if earliest.IsZero() || d.Before(earliest) {
			earliest = d
		}
		if latest.IsZero() || d.After(latest) {
			latest = d
		}
	}

	if earliest.IsZero() {
		return NoDates
	}

	return fmt.Sprintf("%s – %s", earliest.Format("Jan 2006"), latest.Format("Jan 2006"))
}

// Build renders the theme-grouped content digest used as synthesis input:
// per theme a post count, per post the source, title and either the key
// insight or a bounded content snippet.
func Build(posts []domain.Post) string {
	var sb strings.Builder

	for _, g := range GroupByTheme(posts) {
		sb.WriteString(fmt.Sprintf("\n## %s (%d posts)\n", g.Theme, len(g.Posts)))
		for _, p := range g.Posts {
			line := p.KeyInsight
			if line == "" {
				line = snippet(p.Content)
			}
			sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n", p.Source, p.Title, line))
		}
	}

	return sb.String()
}

// snippet strips markup and bounds the content fallback
func snippet(content string) string {
	text := feed.PlainText(content)
	if len(text) > snippetLen {
		text = text[:snippetLen]
	}
	return text
}
