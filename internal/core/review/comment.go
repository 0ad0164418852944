// Package review holds the comment model and the in-memory comment store
// for a review session.
package review

import (
	"time"

	"github.com/google/uuid"

	"github.com/hay-kot/acre/internal/core/diff"
)

// AgentAuthorPrefix marks comments authored by an external agent.
// Agents use the format "Agent (Model/Version)".
const AgentAuthorPrefix = "Agent ("

// Category classifies a review comment.
type Category string

const (
	CategoryNote       Category = "note"
	CategorySuggestion Category = "suggestion"
	CategoryIssue      Category = "issue"
	CategoryPraise     Category = "praise"
	CategoryAnalysis   Category = "ai_analysis"
)

// Categories lists all valid categories in display order.
var Categories = []Category{CategoryNote, CategorySuggestion, CategoryIssue, CategoryPraise, CategoryAnalysis}

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Description returns a short explanation of the category, used in the
// export legend.
func (c Category) Description() string {
	switch c {
	case CategoryNote:
		return "observations"
	case CategorySuggestion:
		return "improvements"
	case CategoryIssue:
		return "problems to fix"
	case CategoryPraise:
		return "positive feedback"
	case CategoryAnalysis:
		return "AI-generated analysis"
	default:
		return ""
	}
}

// Comment is a single review comment, anchored to a line, a line range,
// or a whole file. Content is mutable by the local reviewer; Response is
// the slot the external collaborator fills.
type Comment struct {
	ID       string
	Author   string
	Category Category
	Content  string

	FilePath      string
	LineNo        *int // nil = file-level comment
	LineEndNo     *int // non-nil for range comments
	OnRemovedLine bool // line numbers refer to the old file side

	// Context is the hunk text captured at creation time so an external
	// agent sees the code being discussed.
	Context string

	Response    string
	RespondedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Extra holds unknown fields read from the persisted document,
	// preserved verbatim across save cycles.
	Extra map[string]any
}

// NewComment creates a comment anchored at the given address.
func NewComment(anchor diff.Address, author, content string, category Category) Comment {
	now := time.Now()
	c := Comment{
		ID:        uuid.NewString(),
		Author:    author,
		Category:  category,
		Content:   content,
		FilePath:  anchor.Path,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !anchor.FileLevel {
		n := anchor.LineNo()
		c.LineNo = &n
		c.OnRemovedLine = anchor.OnRemovedLine()
	}
	return c
}

// FileLevel reports whether the comment is attached to the whole file.
func (c Comment) FileLevel() bool { return c.LineNo == nil }

// IsRange reports whether the comment spans more than one line.
func (c Comment) IsRange() bool {
	return c.LineNo != nil && c.LineEndNo != nil && *c.LineNo != *c.LineEndNo
}

// HasResponse reports whether the external collaborator has answered.
func (c Comment) HasResponse() bool { return c.Response != "" }

// FromAgent reports whether the comment was authored by an external agent.
func (c Comment) FromAgent() bool {
	return len(c.Author) >= len(AgentAuthorPrefix) && c.Author[:len(AgentAuthorPrefix)] == AgentAuthorPrefix
}

// Range returns the normalized (start, end) line range. File-level
// comments return (0, 0).
func (c Comment) Range() (start, end int) {
	if c.LineNo == nil {
		return 0, 0
	}
	start, end = *c.LineNo, *c.LineNo
	if c.LineEndNo != nil {
		end = *c.LineEndNo
	}
	if start > end {
		start, end = end, start
	}
	return start, end
}

// Anchor re-derives the comment's address against the given index.
// Returns a file-level address when the line no longer exists.
func (c Comment) Anchor(ix *diff.Index) diff.Address {
	if c.LineNo == nil {
		return diff.FileAddress(c.FilePath)
	}
	if addr, ok := ix.Resolve(c.FilePath, *c.LineNo, c.OnRemovedLine); ok {
		return addr
	}
	return diff.FileAddress(c.FilePath)
}

// IdentityKey is the stable matching key used during reconciliation: two
// comments with the same file, anchor fields, author, and content are the
// same comment regardless of which process wrote them.
type IdentityKey struct {
	path    string
	author  string
	content string
	line    int
	lineEnd int
	hasLine bool
	hasEnd  bool
	removed bool
}

// Identity returns the comment's reconciliation matching key.
func (c Comment) Identity() IdentityKey {
	k := IdentityKey{
		path:    c.FilePath,
		author:  c.Author,
		content: c.Content,
		removed: c.OnRemovedLine,
	}
	if c.LineNo != nil {
		k.line = *c.LineNo
		k.hasLine = true
	}
	if c.LineEndNo != nil {
		k.lineEnd = *c.LineEndNo
		k.hasEnd = true
	}
	return k
}
