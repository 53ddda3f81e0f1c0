package feed

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Barac9492/contrarian-brief/pkg/domain"
)

// stripPolicy removes all HTML, leaving plain text
var stripPolicy = bluemonday.StrictPolicy()

// Normalize converts a raw feed item into a canonical post. It is total over
// the permissive input shape: every field may be missing and is coerced to a
// safe default, never raising per-item. The rich encoded content is
// preferred over the plain-text snippet. ID, theme and keyInsight are left
// unset for downstream stages to fill.
func Normalize(item RawItem) domain.Post {
	content := item.Content
	if content == "" {
		content = item.Snippet
	}

	return domain.Post{
		Source:        domain.SourceSubstack,
		Title:         strings.TrimSpace(item.Title),
		Content:       content,
		URL:           strings.TrimSpace(item.Link),
		PublishedDate: item.Published,
	}
}

// PlainText strips HTML markup and entities from feed content, collapsing
// whitespace. Used to prepare content for LLM prompts and digests.
func PlainText(s string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}
