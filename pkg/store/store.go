package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/Barac9492/contrarian-brief/pkg/domain"
)

// Blobs is the persistence backend for the collection, a keyed blob store
// with whole-value reads and writes
type Blobs interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store keeps the post collection in memory, newest first, and writes the
// whole serialized collection through to the blob store after every
// mutation. The in-memory state is the source of truth: a failed durability
// write is surfaced as PersistenceError but never rolls the mutation back,
// since re-deriving it would lose user input.
type Store struct {
	blobs Blobs
	now   func() time.Time

	mu     sync.Mutex
	posts  []domain.Post
	lastID int64
}

// NewStore creates a store over the given blob backend. The clock is
// injectable for tests; nil means time.Now.
func NewStore(blobs Blobs, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{blobs: blobs, now: now}
}

// Load reads the persisted collection. An absent blob means a fresh session
// with an empty collection, not an error.
func (s *Store) Load(ctx context.Context) error {
	data, ok, err := s.blobs.Get(ctx, PostsKey)
	if err != nil {
		return &domain.PersistenceError{Err: fmt.Errorf("load collection: %w", err)}
	}
	if !ok {
		return nil
	}

	var posts []domain.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return &domain.PersistenceError{Err: fmt.Errorf("decode collection: %w", err)}
	}

	s.mu.Lock()
	s.posts = posts
	s.mu.Unlock()
	return nil
}

// Add assigns id and addedAt, prepends the post to the collection and
// persists. Rejects empty titles with ValidationError; duplicates are the
// caller's concern (see Exists).
func (s *Store) Add(ctx context.Context, post domain.Post) (*domain.Post, error) {
	if post.Title == "" {
		return nil, &domain.ValidationError{Reason: "post title is empty"}
	}

	s.mu.Lock()
	post.ID = s.nextID()
	post.AddedAt = s.now()
	post.Theme = post.Theme.OrDefault()
	if post.Source == "" {
		post.Source = domain.SourceOther
	}
	s.posts = append([]domain.Post{post}, s.posts...)
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		return &post, err
	}
	return &post, nil
}

// Update merges the patch into the matching post and persists.
// Returns NotFoundError when the id is unknown; id and addedAt are immutable.
func (s *Store) Update(ctx context.Context, id string, patch domain.PostPatch) error {
	s.mu.Lock()
	idx := -1
	for i := range s.posts {
		if s.posts[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return &domain.NotFoundError{ID: id}
	}
	patch.Apply(&s.posts[idx])
	s.mu.Unlock()

	return s.persist(ctx)
}

// Delete removes the matching post and persists. Deleting an absent id is a
// no-op, not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	found := false
	for i := range s.posts {
		if s.posts[i].ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return nil
	}
	return s.persist(ctx)
}

// Exists reports whether any stored post shares the candidate's url (both
// non-empty) or title. Matching either field means duplicate.
func (s *Store) Exists(candidate domain.Post) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if candidate.URL != "" && s.posts[i].URL == candidate.URL {
			return true
		}
		if s.posts[i].Title == candidate.Title {
			return true
		}
	}
	return false
}

// List returns a copy of the collection, newest first
func (s *Store) List() []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Len returns the number of posts in the collection
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// SaveReport persists the last generated report draft under its own key
func (s *Store) SaveReport(ctx context.Context, draft domain.ReportDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return &domain.PersistenceError{Err: fmt.Errorf("encode report: %w", err)}
	}
	if err := s.blobs.Set(ctx, ReportKey, data); err != nil {
		return &domain.PersistenceError{Err: fmt.Errorf("save report: %w", err)}
	}
	return nil
}

// LastReport returns the last persisted report draft, ok=false when none
// was generated yet
func (s *Store) LastReport(ctx context.Context) (draft domain.ReportDraft, ok bool, err error) {
	data, found, err := s.blobs.Get(ctx, ReportKey)
	if err != nil {
		return draft, false, &domain.PersistenceError{Err: fmt.Errorf("load report: %w", err)}
	}
	if !found {
		return draft, false, nil
	}
	if err := json.Unmarshal(data, &draft); err != nil {
		return draft, false, &domain.PersistenceError{Err: fmt.Errorf("decode report: %w", err)}
	}
	return draft, true, nil
}

// persist writes the whole collection through as a single atomic replace
func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	data, err := json.Marshal(s.posts)
	s.mu.Unlock()
	if err != nil {
		return &domain.PersistenceError{Err: fmt.Errorf("encode collection: %w", err)}
	}

	if err := s.blobs.Set(ctx, PostsKey, data); err != nil {
		lgr.Printf("[WARN] collection write failed, in-memory state retained: %v", err)
		return &domain.PersistenceError{Err: err}
	}
	return nil
}

// nextID derives a unique id from the clock, bumping on collision so two
// adds within the same instant never share an id. Caller holds the lock.
func (s *Store) nextID() string {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}
