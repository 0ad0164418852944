package review

import "sync"

// ReviewState tracks the per-file reviewed flags. The flags are a
// local-only concept; an external writer setting one is informative but
// the local value wins on conflict during reconciliation.
type ReviewState struct {
	mu sync.Mutex
	m  map[string]bool
}

// NewReviewState creates an empty review state.
func NewReviewState() *ReviewState {
	return &ReviewState{m: make(map[string]bool)}
}

// Toggle flips the reviewed flag for a path and returns the new value.
func (r *ReviewState) Toggle(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[path] = !r.m[path]
	return r.m[path]
}

// Set records the reviewed flag for a path.
func (r *ReviewState) Set(path string, reviewed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[path] = reviewed
}

// Reviewed returns the flag for a path.
func (r *ReviewState) Reviewed(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[path]
}

// Map returns a copy of the full flag map.
func (r *ReviewState) Map() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(r.m))
	for k, v := range r.m {
		out[k] = v
	}
	return out
}

// Count returns how many files are marked reviewed.
func (r *ReviewState) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.m {
		if v {
			n++
		}
	}
	return n
}
