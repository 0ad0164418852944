package diff

import (
	"fmt"
	"strconv"
	"strings"
)

// MalformedDiffError reports an unparsable hunk header or a structurally
// invalid diff section. Path identifies the file section being parsed at
// the time of failure (may be empty when no file header was seen yet).
type MalformedDiffError struct {
	Path   string
	Header string // the offending raw line
	Err    error
}

func (e *MalformedDiffError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed diff in %q at %q: %v", e.Path, e.Header, e.Err)
	}
	return fmt.Sprintf("malformed diff in %q at %q", e.Path, e.Header)
}

func (e *MalformedDiffError) Unwrap() error { return e.Err }

// Parse parses unified diff text (plain or git-extended) into an ordered
// file list. Hunk headers are parsed strictly; an unparsable header fails
// the whole parse rather than guessing at line numbers.
func Parse(text string) ([]File, error) {
	p := parser{}

	for _, raw := range strings.Split(text, "\n") {
		if err := p.line(raw); err != nil {
			return nil, err
		}
	}
	p.flushFile()

	return p.files, nil
}

type parser struct {
	files []File
	cur   *File
	hunk  *Hunk

	// remaining expected content lines in the open hunk, derived from the
	// header counts. Content lines beginning with "-"/"+"/" " are only
	// interpreted as such while one of these is positive, which keeps
	// lines like "--- foo" inside a hunk from being mistaken for headers.
	oldRemain int
	newRemain int
	oldNo     int
	newNo     int
}

func (p *parser) flushHunk() {
	if p.hunk != nil && p.cur != nil {
		p.cur.Hunks = append(p.cur.Hunks, *p.hunk)
	}
	p.hunk = nil
	p.oldRemain, p.newRemain = 0, 0
}

func (p *parser) flushFile() {
	p.flushHunk()
	if p.cur != nil {
		if p.cur.Path == "" {
			p.cur.Path = p.cur.OldPath
		}
		p.files = append(p.files, *p.cur)
	}
	p.cur = nil
}

func (p *parser) line(raw string) error {
	if p.hunk != nil && (p.oldRemain > 0 || p.newRemain > 0) {
		if p.content(raw) {
			if p.oldRemain <= 0 && p.newRemain <= 0 {
				p.flushHunk()
			}
			return nil
		}
		// Unexpected marker while the hunk still owes lines: the source
		// is trusted not to do this, but close the hunk and fall through
		// rather than mis-numbering whatever comes next.
		p.flushHunk()
	}

	switch {
	case strings.HasPrefix(raw, "diff --git "):
		p.flushFile()
		oldPath, newPath := parseGitHeader(raw)
		p.cur = &File{Path: newPath, OldPath: oldPath, Kind: KindModified}

	case strings.HasPrefix(raw, "new file mode"):
		if p.cur != nil {
			p.cur.Kind = KindAdded
			p.cur.OldPath = ""
		}

	case strings.HasPrefix(raw, "deleted file mode"):
		if p.cur != nil {
			p.cur.Kind = KindDeleted
		}

	case strings.HasPrefix(raw, "rename from "):
		if p.cur != nil {
			p.cur.Kind = KindRenamed
			p.cur.OldPath = strings.TrimPrefix(raw, "rename from ")
		}

	case strings.HasPrefix(raw, "rename to "):
		if p.cur != nil {
			p.cur.Kind = KindRenamed
			p.cur.Path = strings.TrimPrefix(raw, "rename to ")
		}

	case strings.HasPrefix(raw, "Binary files ") && strings.HasSuffix(raw, " differ"),
		raw == "GIT binary patch":
		if p.cur != nil {
			p.cur.Binary = true
		}

	case strings.HasPrefix(raw, "--- "):
		// In a plain unified diff there is no "diff --git" line, so a
		// "---" header opens a new file section when the current one
		// already has content.
		if p.cur == nil || len(p.cur.Hunks) > 0 {
			p.flushFile()
			p.cur = &File{Kind: KindModified}
		}
		path := stripPathPrefix(raw[4:], "a/")
		if path == "/dev/null" {
			p.cur.Kind = KindAdded
			p.cur.OldPath = ""
		} else if p.cur.OldPath == "" && p.cur.Kind != KindAdded {
			p.cur.OldPath = path
		}

	case strings.HasPrefix(raw, "+++ "):
		if p.cur == nil {
			p.cur = &File{Kind: KindModified}
		}
		path := stripPathPrefix(raw[4:], "b/")
		if path == "/dev/null" {
			p.cur.Kind = KindDeleted
		} else if p.cur.Path == "" {
			p.cur.Path = path
		}

	case strings.HasPrefix(raw, "@@"):
		p.flushHunk()
		path := ""
		if p.cur != nil {
			path = p.cur.Path
		}
		if p.cur == nil {
			return &MalformedDiffError{Path: path, Header: raw, Err: fmt.Errorf("hunk header outside file section")}
		}
		h, err := parseHunkHeader(raw)
		if err != nil {
			return &MalformedDiffError{Path: path, Header: raw, Err: err}
		}
		p.hunk = &h
		p.oldRemain, p.newRemain = h.OldCount, h.NewCount
		p.oldNo, p.newNo = h.OldStart, h.NewStart

	default:
		// Extended header lines (index, mode, similarity) and trailing
		// noise are skipped.
	}

	return nil
}

// content consumes one line of hunk content. Returns false if the line is
// not a recognized content marker.
func (p *parser) content(raw string) bool {
	if raw == "" {
		// Some tools emit genuinely empty lines for empty context.
		p.hunk.Lines = append(p.hunk.Lines, Line{Type: LineContext, OldNo: p.oldNo, NewNo: p.newNo})
		p.oldNo++
		p.newNo++
		p.oldRemain--
		p.newRemain--
		return true
	}

	switch raw[0] {
	case '+':
		p.hunk.Lines = append(p.hunk.Lines, Line{Type: LineAdded, Content: raw[1:], NewNo: p.newNo})
		p.newNo++
		p.newRemain--
	case '-':
		p.hunk.Lines = append(p.hunk.Lines, Line{Type: LineRemoved, Content: raw[1:], OldNo: p.oldNo})
		p.oldNo++
		p.oldRemain--
	case ' ':
		p.hunk.Lines = append(p.hunk.Lines, Line{Type: LineContext, Content: raw[1:], OldNo: p.oldNo, NewNo: p.newNo})
		p.oldNo++
		p.newNo++
		p.oldRemain--
		p.newRemain--
	case '\\':
		// "\ No newline at end of file" - not a content line.
	default:
		return false
	}
	return true
}

// parseGitHeader extracts old/new paths from a "diff --git a/X b/Y" line.
func parseGitHeader(raw string) (oldPath, newPath string) {
	rest := strings.TrimPrefix(raw, "diff --git ")
	if i := strings.Index(rest, " b/"); i >= 0 {
		return strings.TrimPrefix(rest[:i], "a/"), rest[i+len(" b/"):]
	}
	// Fall back to whitespace splitting for unprefixed paths.
	parts := strings.Fields(rest)
	if len(parts) == 2 {
		return stripPathPrefix(parts[0], "a/"), stripPathPrefix(parts[1], "b/")
	}
	return "", ""
}

// stripPathPrefix removes the git path prefix and any trailing metadata
// (git appends a timestamp after a tab in some formats).
func stripPathPrefix(s, prefix string) string {
	if i := strings.IndexByte(s, '\t'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	return strings.TrimPrefix(s, prefix)
}

// parseHunkHeader parses a header like "@@ -1,7 +1,8 @@ func name".
func parseHunkHeader(raw string) (Hunk, error) {
	if !strings.HasPrefix(raw, "@@") {
		return Hunk{}, fmt.Errorf("missing @@ prefix")
	}

	closeIdx := strings.Index(raw[2:], "@@")
	if closeIdx == -1 {
		return Hunk{}, fmt.Errorf("missing closing @@")
	}
	closeIdx += 2

	rangeStr := strings.TrimSpace(raw[2:closeIdx])

	section := ""
	if closeIdx+2 < len(raw) {
		section = strings.TrimSpace(raw[closeIdx+2:])
	}

	parts := strings.Fields(rangeStr)
	if len(parts) != 2 {
		return Hunk{}, fmt.Errorf("expected 2 ranges, got %d", len(parts))
	}
	if !strings.HasPrefix(parts[0], "-") {
		return Hunk{}, fmt.Errorf("old range missing - prefix")
	}
	if !strings.HasPrefix(parts[1], "+") {
		return Hunk{}, fmt.Errorf("new range missing + prefix")
	}

	oldStart, oldCount, err := parseRange(parts[0][1:])
	if err != nil {
		return Hunk{}, fmt.Errorf("parse old range: %w", err)
	}
	newStart, newCount, err := parseRange(parts[1][1:])
	if err != nil {
		return Hunk{}, fmt.Errorf("parse new range: %w", err)
	}

	return Hunk{
		OldStart: oldStart,
		OldCount: oldCount,
		NewStart: newStart,
		NewCount: newCount,
		Section:  section,
	}, nil
}

// parseRange parses "1,7" or "1" (meaning "1,1") into start and count.
func parseRange(s string) (start, count int, err error) {
	parts := strings.Split(s, ",")

	start, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parse start: %w", err)
	}

	switch len(parts) {
	case 1:
		count = 1
	case 2:
		count, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("parse count: %w", err)
		}
	default:
		return 0, 0, fmt.Errorf("invalid range format: %s", s)
	}

	return start, count, nil
}

// Render regenerates a readable diff context block from parsed files.
// The output is embedded in the session document so an external agent can
// read the changes without re-running the diff tool.
func Render(files []File) string {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "# %s (%s)\n", f.Path, f.Kind)
		if f.Binary {
			b.WriteString("(binary file)\n\n")
			continue
		}
		for _, h := range f.Hunks {
			fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
			if h.Section != "" {
				b.WriteString(" " + h.Section)
			}
			b.WriteByte('\n')
			for _, l := range h.Lines {
				var marker byte
				switch l.Type {
				case LineAdded:
					marker = '+'
				case LineRemoved:
					marker = '-'
				default:
					marker = ' '
				}
				// Trailing whitespace is stripped so the YAML literal
				// block style survives round-tripping.
				b.WriteString(strings.TrimRight(string(marker)+l.Content, " \t"))
				b.WriteByte('\n')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
