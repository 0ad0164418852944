// Package watch delivers debounced change notifications for the session
// file. It only ever signals; the reconciliation engine does the reads.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hay-kot/acre/internal/core/logging"
)

const (
	// DefaultDebounce collapses editor save bursts into one notification.
	DefaultDebounce = 200 * time.Millisecond

	eventBufferSize = 16
)

// SessionWatcher watches one session file for external writes. Events
// are debounced, and writes the engine itself performed are suppressed
// via MarkSaved so a save does not trigger a pointless reload.
type SessionWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu         sync.Mutex
	timer      *time.Timer
	savedMtime time.Time

	events chan time.Time
	quit   chan struct{}
	wg     sync.WaitGroup
}

// New creates a watcher for the given session file. The parent
// directory is watched rather than the file itself so atomic
// rename-into-place writes are still observed.
func New(path string, debounce time.Duration) (*SessionWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	sw := &SessionWatcher{
		path:     path,
		watcher:  fsw,
		debounce: debounce,
		events:   make(chan time.Time, eventBufferSize),
		quit:     make(chan struct{}),
	}

	sw.wg.Add(1)
	go sw.run()
	return sw, nil
}

// Events returns the notification channel. Each value is the time the
// debounced change fired.
func (sw *SessionWatcher) Events() <-chan time.Time { return sw.events }

// MarkSaved records the session file's current mtime so the write that
// produced it is not reported back as an external change. Call it right
// after every engine save.
func (sw *SessionWatcher) MarkSaved() {
	info, err := os.Stat(sw.path)
	if err != nil {
		return
	}
	sw.mu.Lock()
	sw.savedMtime = info.ModTime()
	sw.mu.Unlock()
}

// Close stops the watcher and its pending timer.
func (sw *SessionWatcher) Close() error {
	close(sw.quit)

	sw.mu.Lock()
	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.mu.Unlock()

	err := sw.watcher.Close()
	sw.wg.Wait()
	return err
}

func (sw *SessionWatcher) run() {
	defer sw.wg.Done()

	log := logging.Component("watch")
	for {
		select {
		case <-sw.quit:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			sw.handleEvent(event)
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (sw *SessionWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if filepath.Base(event.Name) != filepath.Base(sw.path) {
		return
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.timer = time.AfterFunc(sw.debounce, sw.fire)
}

// fire drops the notification when the file's mtime still matches the
// one recorded by MarkSaved, meaning the last writer was us.
func (sw *SessionWatcher) fire() {
	sw.mu.Lock()
	saved := sw.savedMtime
	sw.mu.Unlock()

	if info, err := os.Stat(sw.path); err == nil && !saved.IsZero() && info.ModTime().Equal(saved) {
		return
	}

	select {
	case sw.events <- time.Now():
	default:
	}
}
