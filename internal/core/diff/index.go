package diff

// RowKind classifies a renderable row in the flattened index.
type RowKind int

const (
	RowFileHeader RowKind = iota
	RowHunkHeader
	RowLine
)

// Row is one renderable row: a file header, hunk header, or content line.
type Row struct {
	Kind    RowKind
	FileIdx int
	HunkIdx int // -1 for file headers
	LineIdx int // -1 for file and hunk headers
	Addr    Address
}

// Index is the flattened, order-preserving view over a parsed file list.
// It answers "row at scroll offset N" and boundary navigation in O(1),
// and anchor lookups through a key map. An Index is immutable once built;
// rebuild it after every re-parse.
type Index struct {
	files []File
	rows  []Row

	byKey  map[string]int // address key -> row offset
	byPath map[string]int // file path -> file index

	// Precomputed boundary offsets per row, so navigation is O(1). A
	// value of -1 means no boundary exists in that direction.
	nextFile []int
	prevFile []int
	nextHunk []int
	prevHunk []int
}

// NewIndex builds the flattened index for an ordered file list.
func NewIndex(files []File) *Index {
	ix := &Index{
		files:  files,
		byKey:  make(map[string]int),
		byPath: make(map[string]int, len(files)),
	}

	for fi, f := range files {
		ix.byPath[f.Path] = fi

		addr := FileAddress(f.Path)
		ix.byKey[addr.Key()] = len(ix.rows)
		ix.rows = append(ix.rows, Row{Kind: RowFileHeader, FileIdx: fi, HunkIdx: -1, LineIdx: -1, Addr: addr})

		for hi, h := range f.Hunks {
			ha := HunkAddress(f.Path, hi)
			ix.byKey[ha.Key()] = len(ix.rows)
			ix.rows = append(ix.rows, Row{Kind: RowHunkHeader, FileIdx: fi, HunkIdx: hi, LineIdx: -1, Addr: ha})

			for li, l := range h.Lines {
				la := LineAddress(f.Path, hi, l)
				ix.byKey[la.Key()] = len(ix.rows)
				ix.rows = append(ix.rows, Row{Kind: RowLine, FileIdx: fi, HunkIdx: hi, LineIdx: li, Addr: la})
			}
		}
	}

	ix.buildBoundaries()

	return ix
}

func (ix *Index) buildBoundaries() {
	n := len(ix.rows)
	ix.nextFile = make([]int, n)
	ix.prevFile = make([]int, n)
	ix.nextHunk = make([]int, n)
	ix.prevHunk = make([]int, n)

	lastFile, lastHunk := -1, -1
	for i := 0; i < n; i++ {
		ix.prevFile[i] = lastFile
		ix.prevHunk[i] = lastHunk
		switch ix.rows[i].Kind {
		case RowFileHeader:
			lastFile = i
		case RowHunkHeader:
			lastHunk = i
		}
	}

	nextFile, nextHunk := -1, -1
	for i := n - 1; i >= 0; i-- {
		ix.nextFile[i] = nextFile
		ix.nextHunk[i] = nextHunk
		switch ix.rows[i].Kind {
		case RowFileHeader:
			nextFile = i
		case RowHunkHeader:
			nextHunk = i
		}
	}
}

// Len returns the number of rows.
func (ix *Index) Len() int { return len(ix.rows) }

// Files returns the ordered file list the index was built from.
func (ix *Index) Files() []File { return ix.files }

// Row returns the row at the given offset.
func (ix *Index) Row(offset int) (Row, bool) {
	if offset < 0 || offset >= len(ix.rows) {
		return Row{}, false
	}
	return ix.rows[offset], true
}

// File returns the file record for a path.
func (ix *Index) File(path string) (File, bool) {
	fi, ok := ix.byPath[path]
	if !ok {
		return File{}, false
	}
	return ix.files[fi], true
}

// Lookup returns the row offset for an address. File-level addresses
// resolve to the file header row.
func (ix *Index) Lookup(addr Address) (int, bool) {
	off, ok := ix.byKey[addr.Key()]
	return off, ok
}

// Contains reports whether the address exists in the current document.
func (ix *Index) Contains(addr Address) bool {
	_, ok := ix.byKey[addr.Key()]
	return ok
}

// Resolve re-derives a line address from a persisted (path, line number,
// removed-side) triple. Removed lines match on old numbering, everything
// else on new numbering. Returns false when the line no longer exists.
func (ix *Index) Resolve(path string, lineNo int, removed bool) (Address, bool) {
	fi, ok := ix.byPath[path]
	if !ok {
		return Address{}, false
	}
	for hi, h := range ix.files[fi].Hunks {
		for _, l := range h.Lines {
			if removed {
				if l.Type == LineRemoved && l.OldNo == lineNo {
					return LineAddress(path, hi, l), true
				}
				continue
			}
			if l.Type != LineRemoved && l.NewNo == lineNo {
				return LineAddress(path, hi, l), true
			}
		}
	}
	return Address{}, false
}

// NextFile returns the offset of the next file header strictly after
// offset, or offset unchanged when there is none (no wraparound).
func (ix *Index) NextFile(offset int) int {
	return ix.boundary(offset, ix.nextFile)
}

// PrevFile returns the offset of the nearest file header strictly before
// offset, or offset unchanged when there is none.
func (ix *Index) PrevFile(offset int) int {
	return ix.boundary(offset, ix.prevFile)
}

// NextHunk returns the offset of the next hunk header strictly after
// offset, or offset unchanged when there is none.
func (ix *Index) NextHunk(offset int) int {
	return ix.boundary(offset, ix.nextHunk)
}

// PrevHunk returns the offset of the nearest hunk header strictly before
// offset, or offset unchanged when there is none.
func (ix *Index) PrevHunk(offset int) int {
	return ix.boundary(offset, ix.prevHunk)
}

func (ix *Index) boundary(offset int, table []int) int {
	if offset < 0 || offset >= len(table) {
		return offset
	}
	if b := table[offset]; b >= 0 {
		return b
	}
	return offset
}

// HunkContext returns the rendered text of the hunk containing the
// address, captured into comments so an external agent sees what was
// being commented on. File-level addresses return an empty string.
func (ix *Index) HunkContext(addr Address) string {
	if addr.FileLevel {
		return ""
	}
	fi, ok := ix.byPath[addr.Path]
	if !ok || addr.HunkIdx >= len(ix.files[fi].Hunks) {
		return ""
	}
	f := ix.files[fi]
	snippet := File{Path: f.Path, Kind: f.Kind, Hunks: []Hunk{f.Hunks[addr.HunkIdx]}}
	return Render([]File{snippet})
}
