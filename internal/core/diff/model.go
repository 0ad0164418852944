// Package diff parses unified diff text into an addressable structure.
//
// The parser consumes diff text produced by an external tool (git, gh);
// it never computes diffs itself. Every parsed line carries explicit old
// and new line numbers so comments can anchor to stable positions that
// survive re-parsing of identical text.
package diff

// LineType represents the type of a line in a unified diff.
type LineType int

const (
	LineContext LineType = iota // present in both old and new file
	LineAdded                   // present only in the new file
	LineRemoved                 // present only in the old file
)

// String returns the serialized form used in address keys.
func (t LineType) String() string {
	switch t {
	case LineAdded:
		return "add"
	case LineRemoved:
		return "del"
	default:
		return "ctx"
	}
}

// Line is a single content line inside a hunk.
//
// OldNo is 0 when Type is LineAdded; NewNo is 0 when Type is LineRemoved.
// At most one of the two is ever absent.
type Line struct {
	Type    LineType
	Content string // without the leading +/-/space marker
	OldNo   int
	NewNo   int
}

// Hunk is a contiguous block of changes with its header range metadata.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Section  string // optional text after the closing @@, e.g. a function name
	Lines    []Line
}

// ChangeKind classifies how a file changed.
type ChangeKind string

const (
	KindModified ChangeKind = "modified"
	KindAdded    ChangeKind = "added"
	KindDeleted  ChangeKind = "deleted"
	KindRenamed  ChangeKind = "renamed"
)

// File is a single file's diff. Files preserve the order produced by the
// diff source so scroll offsets stay meaningful across reloads.
type File struct {
	Path    string // canonical path (new path, or old path for deletions)
	OldPath string // previous path; set for renames and modifications
	Kind    ChangeKind
	Binary  bool
	Hunks   []Hunk
}

// AddedLines returns the count of added lines in the file.
func (f File) AddedLines() int {
	n := 0
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			if l.Type == LineAdded {
				n++
			}
		}
	}
	return n
}

// RemovedLines returns the count of removed lines in the file.
func (f File) RemovedLines() int {
	n := 0
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			if l.Type == LineRemoved {
				n++
			}
		}
	}
	return n
}
