// Package session defines the persisted review document: its data
// model, its on-disk location, and the YAML codec that round-trips it
// without losing fields written by other tools.
package session

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hay-kot/acre/internal/core/review"
)

// FilePrefix is the base name of every session file. The suffix varies
// by diff source so reviews of different targets in the same repo do
// not clobber each other.
const FilePrefix = ".acre-review"

// Diff source types recognized in session metadata.
const (
	SourceUncommitted = "uncommitted"
	SourceStaged      = "staged"
	SourceBranch      = "branch"
	SourceCommit      = "commit"
	SourcePR          = "pr"
	SourceFile        = "file"
)

// FilePath returns the session file path for a diff source inside the
// given repository root.
//
//	uncommitted/staged/branch -> .acre-review.yaml
//	commit <sha>              -> .acre-review.<sha7>.yaml
//	pr <n>                    -> .acre-review.pr-<n>.yaml
func FilePath(root, sourceType, sourceRef string) string {
	name := FilePrefix + ".yaml"
	switch sourceType {
	case SourceCommit:
		ref := sourceRef
		if len(ref) > 7 {
			ref = ref[:7]
		}
		name = fmt.Sprintf("%s.%s.yaml", FilePrefix, ref)
	case SourcePR:
		name = fmt.Sprintf("%s.pr-%s.yaml", FilePrefix, sourceRef)
	}
	return filepath.Join(root, name)
}

// Meta is the session-level metadata block.
type Meta struct {
	ID                string
	SourceType        string
	SourceRef         string
	SourceDescription string
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewMeta creates metadata for a fresh session.
func NewMeta(sourceType, sourceRef, description string) Meta {
	now := time.Now()
	return Meta{
		ID:                uuid.NewString(),
		SourceType:        sourceType,
		SourceRef:         sourceRef,
		SourceDescription: description,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// FileSnapshot is the persisted per-file state.
type FileSnapshot struct {
	Path     string
	Reviewed bool
	Comments []review.Comment

	// Extra preserves unknown per-file keys written by other tools.
	Extra map[string]any
}

// Snapshot is the pure-data form of a session document, the unit the
// codec encodes and decodes and the merge operates on.
type Snapshot struct {
	Meta        Meta
	DiffContext string
	Files       []FileSnapshot

	// Extra preserves unknown top-level keys written by other tools.
	Extra map[string]any
}

// Comments returns every comment across all files in file order.
func (s *Snapshot) Comments() []review.Comment {
	var out []review.Comment
	for _, f := range s.Files {
		out = append(out, f.Comments...)
	}
	return out
}

// File returns the snapshot for one path.
func (s *Snapshot) File(path string) (FileSnapshot, bool) {
	for _, f := range s.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileSnapshot{}, false
}
