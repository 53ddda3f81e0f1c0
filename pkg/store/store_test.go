package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Barac9492/contrarian-brief/pkg/domain"
)

// fakeBlobs is an in-memory blob backend with failure injection
type fakeBlobs struct {
	mu     sync.Mutex
	data   map[string][]byte
	setErr error
	getErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{data: map[string][]byte{}}
}

func (f *fakeBlobs) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeBlobs) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func testClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Millisecond)
		return current
	}
}

func TestStore_Add(t *testing.T) {
	blobs := newFakeBlobs()
	s := NewStore(blobs, testClock(time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)))

	added, err := s.Add(context.Background(), domain.Post{Title: "first", Source: domain.SourceSubstack})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.False(t, added.AddedAt.IsZero())
	assert.Equal(t, domain.ThemeOther, added.Theme, "unset theme defaults to Other")

	second, err := s.Add(context.Background(), domain.Post{Title: "second"})
	require.NoError(t, err)
	assert.NotEqual(t, added.ID, second.ID)

	// newest first
	posts := s.List()
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Title)
	assert.Equal(t, "first", posts[1].Title)

	// persisted after every mutation
	_, ok := blobs.data[PostsKey]
	assert.True(t, ok)
}

func TestStore_AddEmptyTitle(t *testing.T) {
	s := NewStore(newFakeBlobs(), nil)

	_, err := s.Add(context.Background(), domain.Post{Content: "no title"})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 0, s.Len())
}

func TestStore_AddUniqueIDsSameInstant(t *testing.T) {
	// frozen clock, every call returns the identical instant
	frozen := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore(newFakeBlobs(), func() time.Time { return frozen })

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		p, err := s.Add(context.Background(), domain.Post{Title: string(rune('a' + i))})
		require.NoError(t, err)
		assert.False(t, seen[p.ID], "id %s assigned twice", p.ID)
		seen[p.ID] = true
	}
}

func TestStore_Exists(t *testing.T) {
	s := NewStore(newFakeBlobs(), nil)
	_, err := s.Add(context.Background(), domain.Post{Title: "hello", URL: "https://example.com/hello"})
	require.NoError(t, err)

	assert.True(t, s.Exists(domain.Post{Title: "other", URL: "https://example.com/hello"}), "url match")
	assert.True(t, s.Exists(domain.Post{Title: "hello"}), "title match")
	assert.False(t, s.Exists(domain.Post{Title: "new", URL: "https://example.com/new"}))

	// empty urls never match each other
	_, err = s.Add(context.Background(), domain.Post{Title: "no url"})
	require.NoError(t, err)
	assert.False(t, s.Exists(domain.Post{Title: "also no url"}))
}

func TestStore_Update(t *testing.T) {
	s := NewStore(newFakeBlobs(), nil)
	added, err := s.Add(context.Background(), domain.Post{Title: "original"})
	require.NoError(t, err)

	theme := domain.ThemeGlobalMacro
	insight := "rates stay high"
	err = s.Update(context.Background(), added.ID, domain.PostPatch{Theme: &theme, KeyInsight: &insight})
	require.NoError(t, err)

	posts := s.List()
	require.Len(t, posts, 1)
	assert.Equal(t, domain.ThemeGlobalMacro, posts[0].Theme)
	assert.Equal(t, "rates stay high", posts[0].KeyInsight)
	assert.Equal(t, "original", posts[0].Title, "unpatched fields untouched")
	assert.Equal(t, added.ID, posts[0].ID)
	assert.Equal(t, added.AddedAt, posts[0].AddedAt)
}

func TestStore_UpdateMissingID(t *testing.T) {
	s := NewStore(newFakeBlobs(), nil)
	_, err := s.Add(context.Background(), domain.Post{Title: "keep me"})
	require.NoError(t, err)
	before := s.List()

	theme := domain.ThemeOther
	err = s.Update(context.Background(), "missing-id", domain.PostPatch{Theme: &theme})
	var nfErr *domain.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, before, s.List(), "collection unchanged")
}

func TestStore_Delete(t *testing.T) {
	s := NewStore(newFakeBlobs(), nil)
	added, err := s.Add(context.Background(), domain.Post{Title: "doomed"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), added.ID))
	assert.Equal(t, 0, s.Len())

	// deleting an absent id is a no-op, not an error
	require.NoError(t, s.Delete(context.Background(), added.ID))
}

func TestStore_PersistenceFailureKeepsMemory(t *testing.T) {
	blobs := newFakeBlobs()
	s := NewStore(blobs, nil)

	blobs.setErr = errors.New("disk full")
	added, err := s.Add(context.Background(), domain.Post{Title: "survivor"})

	var pErr *domain.PersistenceError
	require.ErrorAs(t, err, &pErr)
	require.NotNil(t, added)
	assert.Equal(t, 1, s.Len(), "in-memory mutation retained")

	// next successful mutation persists the earlier post too
	blobs.setErr = nil
	_, err = s.Add(context.Background(), domain.Post{Title: "second"})
	require.NoError(t, err)

	restored := NewStore(blobs, nil)
	require.NoError(t, restored.Load(context.Background()))
	assert.Equal(t, 2, restored.Len())
}

func TestStore_RoundTrip(t *testing.T) {
	blobs := newFakeBlobs()
	s := NewStore(blobs, testClock(time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)))

	posts := []domain.Post{
		{Title: "one", URL: "https://example.com/1", Theme: domain.ThemeConsumerTech, Tags: []string{"x", "y"},
			PublishedDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), KeyInsight: "short", Content: "body"},
		{Title: "two", Source: domain.SourceLinkedIn},
	}
	for _, p := range posts {
		_, err := s.Add(context.Background(), p)
		require.NoError(t, err)
	}

	restored := NewStore(blobs, nil)
	require.NoError(t, restored.Load(context.Background()))
	assert.Equal(t, s.List(), restored.List(), "same fields, same order")
}

func TestStore_LoadFreshSession(t *testing.T) {
	s := NewStore(newFakeBlobs(), nil)
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 0, s.Len())
}

func TestStore_Report(t *testing.T) {
	s := NewStore(newFakeBlobs(), nil)

	_, ok, err := s.LastReport(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "no report generated yet")

	draft := domain.ReportDraft{
		Content:     "quarterly brief",
		GeneratedAt: time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC),
		PostCount:   7,
		DateRange:   "May 2025 – Aug 2025",
	}
	require.NoError(t, s.SaveReport(context.Background(), draft))

	got, ok, err := s.LastReport(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, draft, got)
}
