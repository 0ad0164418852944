package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/acre/internal/core/review"
)

func comment(id, path, author, content string, line int) review.Comment {
	c := review.Comment{
		ID:       id,
		Author:   author,
		Category: review.CategoryNote,
		Content:  content,
		FilePath: path,
	}
	if line > 0 {
		c.LineNo = &line
	}
	return c
}

func TestMergeComments_BothSidesNoDuplicates(t *testing.T) {
	t.Parallel()

	saved := comment("c-1", "a.py", "human", "saved earlier", 10)
	localNew := comment("c-2", "a.py", "human", "unsaved local", 11)
	extNew := comment("c-3", "b.py", "Agent (Claude/Opus-4.5)", "agent finding", 5)

	base := []review.Comment{saved}
	external := []review.Comment{saved, extNew}
	local := []review.Comment{saved, localNew}

	merged := mergeComments(base, external, local)

	require.Len(t, merged, 3)
	contents := []string{merged[0].Content, merged[1].Content, merged[2].Content}
	assert.Contains(t, contents, "saved earlier")
	assert.Contains(t, contents, "unsaved local")
	assert.Contains(t, contents, "agent finding")
}

func TestMergeComments_ResponseAdoption(t *testing.T) {
	t.Parallel()

	local := comment("c-1", "a.py", "human", "why this?", 10)
	answered := local
	answered.Response = "because of X"

	base := []review.Comment{local}
	merged := mergeComments(base, []review.Comment{answered}, []review.Comment{local})

	require.Len(t, merged, 1)
	assert.Equal(t, "c-1", merged[0].ID)
	assert.Equal(t, "because of X", merged[0].Response)
}

func TestMergeComments_LocalResponseNotOverwritten(t *testing.T) {
	t.Parallel()

	c := comment("c-1", "a.py", "human", "why this?", 10)
	localCopy := c
	localCopy.Response = "local answer"
	extCopy := c
	extCopy.Response = "external answer"

	merged := mergeComments([]review.Comment{c}, []review.Comment{extCopy}, []review.Comment{localCopy})

	require.Len(t, merged, 1)
	assert.Equal(t, "local answer", merged[0].Response)
}

func TestMergeComments_IdentityMatchesWithoutIDs(t *testing.T) {
	t.Parallel()

	// An agent re-appends the same comment without an id; decode assigns
	// a fresh one. Identity matching still dedupes it.
	local := comment("c-1", "a.py", "human", "same words", 10)
	ext := comment("fresh-uuid", "a.py", "human", "same words", 10)
	ext.Response = "answered"

	merged := mergeComments([]review.Comment{local}, []review.Comment{ext}, []review.Comment{local})

	require.Len(t, merged, 1)
	assert.Equal(t, "c-1", merged[0].ID, "in-memory copy wins")
	assert.Equal(t, "answered", merged[0].Response)
}

func TestMergeComments_ExternalDeletionHonored(t *testing.T) {
	t.Parallel()

	c := comment("c-1", "a.py", "human", "obsolete", 10)

	// Saved before, untouched locally, gone externally: honored.
	merged := mergeComments([]review.Comment{c}, nil, []review.Comment{c})
	assert.Empty(t, merged)
}

func TestMergeComments_LocalEditOutranksExternalDeletion(t *testing.T) {
	t.Parallel()

	c := comment("c-1", "a.py", "human", "original", 10)
	edited := c
	edited.Content = "reworded since last save"

	merged := mergeComments([]review.Comment{c}, nil, []review.Comment{edited})

	require.Len(t, merged, 1)
	assert.Equal(t, "reworded since last save", merged[0].Content)
}

func TestMergeComments_UnsavedLocalNeverDropped(t *testing.T) {
	t.Parallel()

	c := comment("c-1", "a.py", "human", "just typed", 10)

	// Not in base, not in external: brand-new local work.
	merged := mergeComments(nil, nil, []review.Comment{c})
	require.Len(t, merged, 1)
}

func TestMergeComments_ThreadedDuplicateContent(t *testing.T) {
	t.Parallel()

	// Two identical comments at the same anchor stay two comments.
	a := comment("c-1", "a.py", "human", "ping", 10)
	b := comment("c-2", "a.py", "human", "ping", 10)

	both := []review.Comment{a, b}
	merged := mergeComments(both, both, both)
	assert.Len(t, merged, 2)
}

func TestMergeReviewed(t *testing.T) {
	t.Parallel()

	got := mergeReviewed(
		map[string]bool{"a.py": true, "b.py": true},
		map[string]bool{"b.py": false, "c.py": true},
	)

	assert.Equal(t, map[string]bool{
		"a.py": true,  // external only, adopted
		"b.py": false, // disagreement, local wins
		"c.py": true,  // local only, kept
	}, got)
}
