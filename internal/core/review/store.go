package review

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hay-kot/acre/internal/core/diff"
)

// Sentinel errors for store operations. These are caller validation
// failures against the current document; none of them mutate state.
var (
	ErrInvalidAnchor = errors.New("anchor does not exist in the current diff")
	ErrInvalidRange  = errors.New("invalid comment range")
	ErrNotFound      = errors.New("comment not found")
	ErrHasResponse   = errors.New("comment has a response; pass force to modify")
)

// Direction selects the scan direction for comment navigation.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Store is the in-memory comment collection for a session. Comments are
// kept in creation order; anchor validation runs against the current
// diff index, which the reconciliation engine swaps on every reload.
type Store struct {
	mu       sync.Mutex
	ix       *diff.Index
	comments []Comment
}

// NewStore creates a store validating anchors against the given index.
func NewStore(ix *diff.Index) *Store {
	return &Store{ix: ix}
}

// SetIndex swaps the diff index after a reload.
func (s *Store) SetIndex(ix *diff.Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ix = ix
}

// Add creates a comment at the given anchor. Multiple comments at the
// same anchor are allowed and thread in creation order.
func (s *Store) Add(anchor diff.Address, author, content string, category Category) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateAnchor(anchor); err != nil {
		return Comment{}, err
	}

	c := NewComment(anchor, author, content, category)
	c.Context = s.ix.HunkContext(anchor)
	s.comments = append(s.comments, c)
	return c, nil
}

// AddRange creates a single comment spanning an inclusive line range
// within one file.
func (s *Store) AddRange(start, end diff.Address, author, content string, category Category) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if start.Path != end.Path {
		return Comment{}, ErrInvalidRange
	}
	if start.FileLevel || end.FileLevel {
		return Comment{}, ErrInvalidRange
	}
	// Line numbers on opposite sides of the diff are not comparable.
	if start.OnRemovedLine() != end.OnRemovedLine() {
		return Comment{}, ErrInvalidRange
	}
	if err := s.validateAnchor(start); err != nil {
		return Comment{}, err
	}
	if err := s.validateAnchor(end); err != nil {
		return Comment{}, err
	}

	lo, hi := start.LineNo(), end.LineNo()
	if lo > hi {
		lo, hi = hi, lo
		start = end
	}

	c := NewComment(start, author, content, category)
	c.Context = s.ix.HunkContext(start)
	if hi != lo {
		c.LineEndNo = &hi
	}
	s.comments = append(s.comments, c)
	return c, nil
}

// Insert appends an already-built comment without anchor validation.
// Used by the reconciliation engine when adopting external comments,
// which must never be dropped even when their anchor is stale.
func (s *Store) Insert(c Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append(s.comments, c)
}

// Edit replaces a comment's content. Comments with a response are
// protected unless force is set; editing a responded comment keeps the
// response attached (possibly stale - the caller's UI flags that).
func (s *Store) Edit(id, content string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.find(id)
	if !ok {
		return ErrNotFound
	}
	if s.comments[i].HasResponse() && !force {
		return ErrHasResponse
	}
	s.comments[i].Content = content
	s.comments[i].UpdatedAt = time.Now()
	return nil
}

// Delete removes a comment. Comments with a response require force.
func (s *Store) Delete(id string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.find(id)
	if !ok {
		return ErrNotFound
	}
	if s.comments[i].HasResponse() && !force {
		return ErrHasResponse
	}
	s.comments = append(s.comments[:i], s.comments[i+1:]...)
	return nil
}

// SetResponse attaches or overwrites the response field. Allowed
// regardless of author; this is the slot the external collaborator fills.
func (s *Store) SetResponse(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.find(id)
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	s.comments[i].Response = text
	s.comments[i].RespondedAt = &now
	return nil
}

// Get returns a comment by ID.
func (s *Store) Get(id string) (Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.find(id)
	if !ok {
		return Comment{}, false
	}
	return s.comments[i], true
}

// Near returns the nearest comment at or after (Forward) or at or before
// (Backward) the given address in flattened order. Ties break by
// creation order.
func (s *Store) Near(addr diff.Address, dir Direction) (Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	origin, ok := s.ix.Lookup(addr)
	if !ok {
		return Comment{}, false
	}

	best := -1
	bestOffset := 0
	for i, c := range s.comments {
		off, ok := s.ix.Lookup(c.Anchor(s.ix))
		if !ok {
			continue
		}
		switch dir {
		case Forward:
			if off < origin {
				continue
			}
			if best == -1 || off < bestOffset {
				best, bestOffset = i, off
			}
		case Backward:
			if off > origin {
				continue
			}
			if best == -1 || off > bestOffset {
				best, bestOffset = i, off
			}
		}
	}
	if best == -1 {
		return Comment{}, false
	}
	return s.comments[best], true
}

// ByFile returns the comments for one file in creation order.
func (s *Store) ByFile(path string) []Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Comment
	for _, c := range s.comments {
		if c.FilePath == path {
			out = append(out, c)
		}
	}
	return out
}

// All returns every comment in flattened order: diff file order, then
// file-level before line-level, then line number, then creation order.
func (s *Store) All() []Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Comment, len(s.comments))
	copy(out, s.comments)

	fileOrder := make(map[string]int)
	for i, f := range s.ix.Files() {
		fileOrder[f.Path] = i
	}

	sort.SliceStable(out, func(a, b int) bool {
		ca, cb := out[a], out[b]
		fa, oka := fileOrder[ca.FilePath]
		fb, okb := fileOrder[cb.FilePath]
		// Files absent from the current diff sort after present ones,
		// grouped by path, so orphaned comments stay together.
		if oka != okb {
			return oka
		}
		if !oka {
			if ca.FilePath != cb.FilePath {
				return ca.FilePath < cb.FilePath
			}
		} else if fa != fb {
			return fa < fb
		}
		la, _ := ca.Range()
		lb, _ := cb.Range()
		return la < lb
	})
	return out
}

// Snapshot returns the raw comment slice in creation order.
func (s *Store) Snapshot() []Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Comment, len(s.comments))
	copy(out, s.comments)
	return out
}

// Reconcile replaces the collection with fn applied to a copy of the
// current comments, all under one lock acquisition, so a concurrent Add
// cannot land between the read and the swap and be silently discarded.
func (s *Store) Reconcile(fn func(current []Comment) []Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := make([]Comment, len(s.comments))
	copy(current, s.comments)
	s.comments = fn(current)
}

// Len returns the number of comments.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments)
}

func (s *Store) find(id string) (int, bool) {
	for i := range s.comments {
		if s.comments[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// validateAnchor checks an anchor against the current index. Line-level
// anchors must reference an existing line; binary files only accept
// file-level comments.
func (s *Store) validateAnchor(anchor diff.Address) error {
	f, ok := s.ix.File(anchor.Path)
	if !ok {
		return ErrInvalidAnchor
	}
	if anchor.FileLevel {
		return nil
	}
	// Hunk headers are navigation targets, not comment anchors.
	if anchor.HunkLevel {
		return ErrInvalidAnchor
	}
	if f.Binary {
		return ErrInvalidAnchor
	}
	if !s.ix.Contains(anchor) {
		return ErrInvalidAnchor
	}
	return nil
}
