package domain

import "time"

// Source identifies where a post came from
type Source string

// known post sources
const (
	SourceSubstack Source = "Substack"
	SourceLinkedIn Source = "LinkedIn"
	SourceOther    Source = "Other"
)

// Post represents a single curated piece of content with classification metadata.
// JSON field names match the persisted blob layout.
type Post struct {
	ID            string    `json:"id"`
	Source        Source    `json:"source"`
	Title         string    `json:"title"`
	Content       string    `json:"content,omitempty"`
	URL           string    `json:"url,omitempty"`
	PublishedDate time.Time `json:"publishedDate,omitzero"`
	AddedAt       time.Time `json:"addedAt"`
	Theme         Theme     `json:"theme,omitempty"`
	KeyInsight    string    `json:"keyInsight,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
}

// EffectiveDate returns the published date, falling back to the time the
// post was added when the source provided none.
func (p *Post) EffectiveDate() time.Time {
	if !p.PublishedDate.IsZero() {
		return p.PublishedDate
	}
	return p.AddedAt
}

// PostPatch holds optional field updates for a post. Nil fields are left
// untouched by the merge; id and addedAt are never patchable.
type PostPatch struct {
	Source        *Source    `json:"source,omitempty"`
	Title         *string    `json:"title,omitempty"`
	Content       *string    `json:"content,omitempty"`
	URL           *string    `json:"url,omitempty"`
	PublishedDate *time.Time `json:"publishedDate,omitempty"`
	Theme         *Theme     `json:"theme,omitempty"`
	KeyInsight    *string    `json:"keyInsight,omitempty"`
	Tags          *[]string  `json:"tags,omitempty"`
}

// Apply merges the patch into the post
func (pp *PostPatch) Apply(p *Post) {
	if pp.Source != nil {
		p.Source = *pp.Source
	}
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Content != nil {
		p.Content = *pp.Content
	}
	if pp.URL != nil {
		p.URL = *pp.URL
	}
	if pp.PublishedDate != nil {
		p.PublishedDate = *pp.PublishedDate
	}
	if pp.Theme != nil {
		p.Theme = *pp.Theme
	}
	if pp.KeyInsight != nil {
		p.KeyInsight = *pp.KeyInsight
	}
	if pp.Tags != nil {
		p.Tags = *pp.Tags
	}
}

// Classification represents the result of an LLM classification call
type Classification struct {
	Theme      Theme    `json:"theme"`
	KeyInsight string   `json:"keyInsight"`
	Tags       []string `json:"tags"`
}

// ReportDraft is a generated narrative synthesized from the collection at a
// point in time. It is a derived artifact, regenerable from the current
// collection, and carries no consistency guarantee beyond being the last one
// generated.
type ReportDraft struct {
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generatedAt"`
	PostCount   int       `json:"postCount"`
	DateRange   string    `json:"dateRange"`
}
