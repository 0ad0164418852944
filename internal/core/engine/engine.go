// Package engine owns the reconciliation loop between the in-memory
// session document and its persisted file. A single worker goroutine
// serializes load, merge, and save transitions; callers only ever
// signal it.
package engine

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hay-kot/acre/internal/core/logging"
	"github.com/hay-kot/acre/internal/core/review"
	"github.com/hay-kot/acre/internal/core/session"
)

// State is the engine's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateMerging
	StateSaving
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateMerging:
		return "merging"
	case StateSaving:
		return "saving"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// PersistenceError wraps a read or write failure on the session file.
// The engine enters StateError but keeps serving the last good document.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("session %s %s: %s", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// EventKind tags engine notifications.
type EventKind int

const (
	EventSaved EventKind = iota
	EventReloaded
	EventErrored
)

// Event is delivered to the UI after each completed transition.
type Event struct {
	Kind EventKind
	Err  error
}

// Options tune engine construction.
type Options struct {
	// MarkSaved runs after every successful write, before the watcher can
	// observe it. The watcher uses it to suppress self-triggered events.
	MarkSaved func()
}

// Engine reconciles the live document with the session file at path.
type Engine struct {
	log  zerolog.Logger
	path string
	doc  *session.Document

	mu        sync.Mutex
	state     State
	lastErr   error
	lastSaved *session.Snapshot

	markSaved func()

	// 1-buffered so bursts of requests coalesce: a request arriving while
	// one is already pending is a no-op, and a request arriving while the
	// worker is mid-operation schedules exactly one follow-up.
	saveCh   chan struct{}
	reloadCh chan struct{}

	events chan Event
	quit   chan struct{}
	done   chan struct{}
}

// New creates an engine over the document and starts its worker.
func New(path string, doc *session.Document, opts Options) *Engine {
	e := &Engine{
		log:       logging.Component("engine"),
		path:      path,
		doc:       doc,
		state:     StateIdle,
		markSaved: opts.MarkSaved,
		saveCh:    make(chan struct{}, 1),
		reloadCh:  make(chan struct{}, 1),
		events:    make(chan Event, 16),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	if e.markSaved == nil {
		e.markSaved = func() {}
	}
	e.lastSaved = doc.Snapshot()

	go e.run()
	return e
}

// Document returns the live session document.
func (e *Engine) Document() *session.Document { return e.doc }

// Update applies a mutation to the document and schedules a save, so
// every edit eventually reaches disk without the caller tracking dirty
// state.
func (e *Engine) Update(fn func(doc *session.Document)) {
	fn(e.doc)
	e.RequestSave()
}

// State returns the engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the error that put the engine in StateError, or nil.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Events returns the notification channel. Events are dropped rather
// than blocking the worker when the consumer falls behind.
func (e *Engine) Events() <-chan Event { return e.events }

// RequestSave schedules an asynchronous write of the current document.
// Never blocks; concurrent requests coalesce into one pending save.
func (e *Engine) RequestSave() {
	select {
	case e.saveCh <- struct{}{}:
	default:
	}
}

// RequestReload schedules a reload-and-merge of the session file. Also
// serves as the manual retry out of StateError.
func (e *Engine) RequestReload() {
	select {
	case e.reloadCh <- struct{}{}:
	default:
	}
}

// Close stops the worker. A pending or requested save completes before
// Close returns so the last edit is never lost; a pending reload is
// abandoned.
func (e *Engine) Close() error {
	close(e.quit)
	<-e.done
	return nil
}

func (e *Engine) run() {
	defer close(e.done)

	for {
		select {
		case <-e.saveCh:
			e.save()
		case <-e.reloadCh:
			e.reload()
		case <-e.quit:
			select {
			case <-e.saveCh:
				e.save()
			default:
			}
			return
		}
	}
}

func (e *Engine) save() {
	e.setState(StateSaving)

	snap := e.doc.Snapshot()
	if err := session.Save(e.path, snap); err != nil {
		perr := &PersistenceError{Op: "write", Path: e.path, Err: err}
		e.log.Error().Err(err).Str("path", e.path).Msg("session save failed")
		e.fail(perr)
		return
	}
	e.markSaved()

	e.mu.Lock()
	e.lastSaved = snap
	e.state = StateIdle
	e.lastErr = nil
	e.mu.Unlock()

	e.log.Debug().Str("path", e.path).Msg("session saved")
	e.emit(Event{Kind: EventSaved})
}

func (e *Engine) reload() {
	e.setState(StateLoading)

	snap, err := session.Load(e.path)
	if err != nil {
		e.log.Error().Err(err).Str("path", e.path).Msg("session reload failed")
		e.fail(&PersistenceError{Op: "read", Path: e.path, Err: err})
		return
	}

	e.setState(StateMerging)
	if err := e.merge(snap); err != nil {
		e.log.Error().Err(err).Str("path", e.path).Msg("session reload failed")
		e.fail(err)
		return
	}

	e.mu.Lock()
	e.lastSaved = snap
	e.state = StateIdle
	e.lastErr = nil
	e.mu.Unlock()

	e.log.Debug().Str("path", e.path).Msg("session reloaded")
	e.emit(Event{Kind: EventReloaded})
}

// merge folds an externally written snapshot into the live document. An
// error aborts the whole reload before any external state is adopted,
// leaving the prior document untouched.
func (e *Engine) merge(snap *session.Snapshot) error {
	// The diff source stays authoritative for structure; only reparse
	// when the external text actually differs.
	if snap.DiffContext != "" && snap.DiffContext != e.doc.DiffText() {
		if err := e.doc.SetDiff(snap.DiffContext); err != nil {
			return fmt.Errorf("external diff context: %w", err)
		}
	}

	e.mu.Lock()
	base := e.lastSaved
	e.mu.Unlock()

	e.doc.Comments().Reconcile(func(local []review.Comment) []review.Comment {
		return mergeComments(base.Comments(), snap.Comments(), local)
	})

	extFlags := make(map[string]bool, len(snap.Files))
	for _, f := range snap.Files {
		extFlags[f.Path] = f.Reviewed
	}
	for path, reviewed := range mergeReviewed(extFlags, e.doc.Reviewed().Map()) {
		e.doc.Reviewed().Set(path, reviewed)
	}

	e.doc.Absorb(snap)
	return nil
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) fail(err error) {
	e.mu.Lock()
	e.state = StateError
	e.lastErr = err
	e.mu.Unlock()
	e.emit(Event{Kind: EventErrored, Err: err})
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
	}
}
