// Package export flattens a review session into formats an external
// consumer can act on: a Markdown brief for handing to an agent, or
// JSON for tooling.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hay-kot/acre/internal/core/review"
	"github.com/hay-kot/acre/internal/core/session"
)

// Format selects the export output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Options tune an export.
type Options struct {
	Format Format

	// Filter is a doublestar glob applied to comment file paths, e.g.
	// "internal/**/*.go". Empty exports everything.
	Filter string
}

// Render produces the export text for a document.
func Render(doc *session.Document, opts Options) (string, error) {
	comments, err := filtered(doc, opts.Filter)
	if err != nil {
		return "", err
	}

	switch opts.Format {
	case FormatMarkdown, "":
		return markdown(doc, comments), nil
	case FormatJSON:
		return asJSON(doc, comments)
	default:
		return "", fmt.Errorf("unknown export format %q", opts.Format)
	}
}

func filtered(doc *session.Document, pattern string) ([]review.Comment, error) {
	all := doc.Comments().All()
	if pattern == "" {
		return all, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid filter pattern %q", pattern)
	}

	var out []review.Comment
	for _, c := range all {
		ok, err := doublestar.Match(pattern, c.FilePath)
		if err != nil {
			return nil, fmt.Errorf("filter pattern %q: %w", pattern, err)
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// markdown writes the numbered comment brief:
//
//	1. **[ISSUE]** `a.py:10` - off by one
func markdown(doc *session.Document, comments []review.Comment) string {
	meta := doc.Meta()

	var lines []string
	lines = append(lines, "I reviewed your code and have the following comments. Please address them.", "")

	switch meta.SourceType {
	case session.SourceCommit:
		if meta.SourceRef != "" {
			ref := meta.SourceRef
			if len(ref) > 7 {
				ref = ref[:7]
			}
			lines = append(lines, "Reviewing commit: "+ref, "")
		}
	case session.SourceBranch:
		if meta.SourceRef != "" {
			lines = append(lines, "Reviewing changes: "+meta.SourceRef, "")
		}
	case session.SourcePR:
		if meta.SourceRef != "" {
			lines = append(lines, "Reviewing PR #"+meta.SourceRef, "")
		}
	}

	legend := make([]string, 0, len(review.Categories))
	for _, cat := range review.Categories {
		legend = append(legend, fmt.Sprintf("%s (%s)", strings.ToUpper(string(cat)), cat.Description()))
	}
	lines = append(lines, "Comment types: "+strings.Join(legend, ", "), "")

	if meta.Notes != "" {
		lines = append(lines, "Summary: "+meta.Notes, "")
	}

	if len(comments) == 0 {
		lines = append(lines, "No comments.")
		return strings.Join(lines, "\n")
	}
	for i, c := range comments {
		lines = append(lines, fmt.Sprintf("%d. **[%s]** %s - %s",
			i+1, strings.ToUpper(string(c.Category)), location(c), c.Content))
	}
	return strings.Join(lines, "\n")
}

// location formats a comment anchor: `path` for file-level,
// `path:start-end` for ranges, `path:~n` for removed lines.
func location(c review.Comment) string {
	if c.LineNo == nil {
		return fmt.Sprintf("`%s`", c.FilePath)
	}
	if c.IsRange() {
		lo, hi := c.Range()
		return fmt.Sprintf("`%s:%d-%d`", c.FilePath, lo, hi)
	}
	if c.OnRemovedLine {
		return fmt.Sprintf("`%s:~%d`", c.FilePath, *c.LineNo)
	}
	return fmt.Sprintf("`%s:%d`", c.FilePath, *c.LineNo)
}

type jsonComment struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	FilePath      string `json:"file_path"`
	LineNo        *int   `json:"line_no"`
	LineEndNo     *int   `json:"line_no_end,omitempty"`
	IsDeletedLine bool   `json:"is_deleted_line"`
	Content       string `json:"content"`
	Response      string `json:"llm_response,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type jsonExport struct {
	SessionID  string `json:"session_id"`
	DiffSource struct {
		Type string `json:"type"`
		Ref  string `json:"ref"`
	} `json:"diff_source"`
	Notes         string        `json:"notes"`
	FilesReviewed int           `json:"files_reviewed"`
	FilesTotal    int           `json:"files_total"`
	LinesAdded    int           `json:"lines_added"`
	LinesRemoved  int           `json:"lines_removed"`
	Comments      []jsonComment `json:"comments"`
}

func asJSON(doc *session.Document, comments []review.Comment) (string, error) {
	meta := doc.Meta()

	out := jsonExport{
		SessionID:     meta.ID,
		Notes:         meta.Notes,
		FilesReviewed: doc.Reviewed().Count(),
		FilesTotal:    len(doc.Index().Files()),
		Comments:      []jsonComment{},
	}
	out.DiffSource.Type = meta.SourceType
	out.DiffSource.Ref = meta.SourceRef

	for _, f := range doc.Index().Files() {
		out.LinesAdded += f.AddedLines()
		out.LinesRemoved += f.RemovedLines()
	}

	for _, c := range comments {
		out.Comments = append(out.Comments, jsonComment{
			ID:            c.ID,
			Category:      string(c.Category),
			FilePath:      c.FilePath,
			LineNo:        c.LineNo,
			LineEndNo:     c.LineEndNo,
			IsDeletedLine: c.OnRemovedLine,
			Content:       c.Content,
			Response:      c.Response,
			CreatedAt:     c.CreatedAt.Format(time.RFC3339Nano),
		})
	}

	bits, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	return string(bits), nil
}
