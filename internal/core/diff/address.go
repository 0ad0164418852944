package diff

import "fmt"

// Address is a deterministic identifier for a line, a hunk header, or a
// file, used both as a comment anchor and as a scroll-position key.
// Recomputing the address from freshly re-parsed identical diff text
// yields the same value, which is what lets comments survive a diff
// refresh.
type Address struct {
	Path      string
	FileLevel bool
	HunkLevel bool
	HunkIdx   int
	Type      LineType
	OldNo     int
	NewNo     int
}

// FileAddress returns the file-level address for a path.
func FileAddress(path string) Address {
	return Address{Path: path, FileLevel: true}
}

// HunkAddress returns the address of the hunk header at the given index
// within a file.
func HunkAddress(path string, hunkIdx int) Address {
	return Address{Path: path, HunkLevel: true, HunkIdx: hunkIdx}
}

// LineAddress returns the address of a line within the given hunk.
func LineAddress(path string, hunkIdx int, l Line) Address {
	return Address{
		Path:    path,
		HunkIdx: hunkIdx,
		Type:    l.Type,
		OldNo:   l.OldNo,
		NewNo:   l.NewNo,
	}
}

// Key returns the stable string form of the address.
func (a Address) Key() string {
	if a.FileLevel {
		return a.Path
	}
	if a.HunkLevel {
		return fmt.Sprintf("%s#hunk:%d", a.Path, a.HunkIdx)
	}
	return fmt.Sprintf("%s#%d:%s:%d:%d", a.Path, a.HunkIdx, a.Type, a.OldNo, a.NewNo)
}

// LineNo returns the relevant display line number: the old number for
// removed lines, the new number otherwise. Zero for file-level and
// hunk-level addresses.
func (a Address) LineNo() int {
	if a.FileLevel || a.HunkLevel {
		return 0
	}
	if a.Type == LineRemoved {
		return a.OldNo
	}
	return a.NewNo
}

// OnRemovedLine reports whether the address anchors to a removed line.
func (a Address) OnRemovedLine() bool {
	return !a.FileLevel && !a.HunkLevel && a.Type == LineRemoved
}
