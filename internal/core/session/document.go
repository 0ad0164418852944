package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/hay-kot/acre/internal/core/diff"
	"github.com/hay-kot/acre/internal/core/review"
)

// Document is the live, in-memory session aggregate. The comment store
// and review state are the sole mutators of their slices; Document ties
// them to the parsed diff and carries everything needed to snapshot the
// session back to disk.
type Document struct {
	mu sync.Mutex

	meta      Meta
	diffText  string
	index     *diff.Index
	comments  *review.Store
	reviewed  *review.ReviewState
	extra     map[string]any
	fileExtra map[string]map[string]any

	// orphans are file paths that carry comments or flags but no longer
	// appear in the diff, in the order they were first seen. They keep
	// their place in the saved document instead of being dropped.
	orphans []string
}

// NewDocument creates a fresh session over the given diff text.
func NewDocument(meta Meta, diffText string) (*Document, error) {
	files, err := diff.Parse(diffText)
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	ix := diff.NewIndex(files)
	return &Document{
		meta:      meta,
		diffText:  diffText,
		index:     ix,
		comments:  review.NewStore(ix),
		reviewed:  review.NewReviewState(),
		fileExtra: map[string]map[string]any{},
	}, nil
}

// FromSnapshot rebuilds a live document from persisted data. The diff
// text argument wins over the snapshot's recorded diff context when
// non-empty, so a caller can resume a session against a fresh diff.
func FromSnapshot(snap *Snapshot, diffText string) (*Document, error) {
	if diffText == "" {
		diffText = snap.DiffContext
	}
	d, err := NewDocument(snap.Meta, diffText)
	if err != nil {
		return nil, err
	}
	d.extra = snap.Extra

	for _, f := range snap.Files {
		if f.Reviewed {
			d.reviewed.Set(f.Path, true)
		}
		if len(f.Extra) > 0 {
			d.fileExtra[f.Path] = f.Extra
		}
		for _, c := range f.Comments {
			d.comments.Insert(c)
		}
		if _, ok := d.index.File(f.Path); !ok {
			d.orphans = append(d.orphans, f.Path)
		}
	}
	return d, nil
}

// Meta returns the session metadata.
func (d *Document) Meta() Meta {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.meta
}

// SetNotes replaces the free-form session notes.
func (d *Document) SetNotes(notes string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.meta.Notes = notes
}

// DiffText returns the raw diff text the document was built from.
func (d *Document) DiffText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.diffText
}

// Index returns the current diff index.
func (d *Document) Index() *diff.Index {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index
}

// Comments returns the comment store.
func (d *Document) Comments() *review.Store { return d.comments }

// Reviewed returns the per-file review flags.
func (d *Document) Reviewed() *review.ReviewState { return d.reviewed }

// SetDiff reparses the document against new diff text. Comments keep
// their persisted anchors and re-resolve lazily against the new index.
func (d *Document) SetDiff(text string) error {
	files, err := diff.Parse(text)
	if err != nil {
		return fmt.Errorf("parse diff: %w", err)
	}
	ix := diff.NewIndex(files)

	d.mu.Lock()
	d.diffText = text
	d.index = ix
	d.mu.Unlock()

	d.comments.SetIndex(ix)
	return nil
}

// Absorb adopts the non-conflicting parts of an externally loaded
// snapshot: unknown fields at the session and file level, plus
// registration of files the diff no longer contains so their comments
// keep their place on the next save.
func (d *Document) Absorb(snap *Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if snap.Extra != nil {
		d.extra = snap.Extra
	}
	for _, f := range snap.Files {
		if len(f.Extra) > 0 {
			d.fileExtra[f.Path] = f.Extra
		}
		if _, ok := d.index.File(f.Path); ok {
			continue
		}
		known := false
		for _, p := range d.orphans {
			if p == f.Path {
				known = true
				break
			}
		}
		if !known {
			d.orphans = append(d.orphans, f.Path)
		}
	}
}

// Snapshot captures the document's current state for persistence. File
// order follows diff order; files absent from the diff but still holding
// comments or flags come after, in first-seen order.
func (d *Document) Snapshot() *Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	meta := d.meta
	meta.UpdatedAt = time.Now()
	d.meta = meta

	byFile := map[string][]review.Comment{}
	for _, c := range d.comments.Snapshot() {
		byFile[c.FilePath] = append(byFile[c.FilePath], c)
	}
	flags := d.reviewed.Map()

	var order []string
	present := map[string]bool{}
	for _, f := range d.index.Files() {
		order = append(order, f.Path)
		present[f.Path] = true
	}
	for _, p := range d.orphans {
		if !present[p] {
			order = append(order, p)
			present[p] = true
		}
	}
	// Anything new that slipped past the diff and orphan lists, such as
	// a comment adopted for a vanished file mid-session.
	for _, c := range d.comments.All() {
		if !present[c.FilePath] {
			order = append(order, c.FilePath)
			present[c.FilePath] = true
			d.orphans = append(d.orphans, c.FilePath)
		}
	}

	snap := &Snapshot{
		Meta:        meta,
		DiffContext: d.diffText,
		Extra:       d.extra,
	}
	for _, path := range order {
		snap.Files = append(snap.Files, FileSnapshot{
			Path:     path,
			Reviewed: flags[path],
			Comments: byFile[path],
			Extra:    d.fileExtra[path],
		})
	}
	return snap
}
