package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/acre/internal/core/diff"
)

const storeDiff = `diff --git a/a.py b/a.py
--- a/a.py
+++ b/a.py
@@ -8,3 +8,6 @@
 ctx8
 ctx9
+added10
+added11
+added12
 ctx10
diff --git a/b.py b/b.py
--- a/b.py
+++ b/b.py
@@ -4,3 +4,2 @@
 ctx4
-removed5
 ctx6
diff --git a/img.png b/img.png
Binary files a/img.png and b/img.png differ`

func newTestStore(t *testing.T) (*Store, *diff.Index) {
	t.Helper()
	files, err := diff.Parse(storeDiff)
	require.NoError(t, err)
	ix := diff.NewIndex(files)
	return NewStore(ix), ix
}

func lineAnchor(t *testing.T, ix *diff.Index, path string, line int, removed bool) diff.Address {
	t.Helper()
	addr, ok := ix.Resolve(path, line, removed)
	require.True(t, ok, "line %s:%d should resolve", path, line)
	return addr
}

func TestStore_AddLineComment(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)
	anchor := lineAnchor(t, ix, "a.py", 11, false)

	c, err := s.Add(anchor, "human", "looks odd", CategoryIssue)
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "a.py", c.FilePath)
	require.NotNil(t, c.LineNo)
	assert.Equal(t, 11, *c.LineNo)
	assert.False(t, c.OnRemovedLine)
	assert.Contains(t, c.Context, "+added11")
	assert.False(t, c.CreatedAt.IsZero())
}

func TestStore_AddFileComment(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	c, err := s.Add(diff.FileAddress("b.py"), "human", "whole file", CategoryNote)
	require.NoError(t, err)
	assert.True(t, c.FileLevel())
	assert.Empty(t, c.Context)
}

func TestStore_AddRemovedLineComment(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)
	anchor := lineAnchor(t, ix, "b.py", 5, true)

	c, err := s.Add(anchor, "human", "why gone?", CategoryNote)
	require.NoError(t, err)
	assert.True(t, c.OnRemovedLine)
	require.NotNil(t, c.LineNo)
	assert.Equal(t, 5, *c.LineNo)
}

func TestStore_AddInvalidAnchor(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)

	_, err := s.Add(diff.FileAddress("missing.py"), "human", "x", CategoryNote)
	assert.ErrorIs(t, err, ErrInvalidAnchor)

	// Line that exists nowhere in the diff.
	_, ok := ix.Resolve("a.py", 999, false)
	require.False(t, ok)
	bogus := diff.Address{Path: "a.py", HunkIdx: 0, Type: diff.LineAdded, NewNo: 999}
	_, err = s.Add(bogus, "human", "x", CategoryNote)
	assert.ErrorIs(t, err, ErrInvalidAnchor)
}

func TestStore_BinaryFileOnlyFileLevel(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	_, err := s.Add(diff.FileAddress("img.png"), "human", "big asset", CategoryNote)
	require.NoError(t, err)

	bogus := diff.Address{Path: "img.png", Type: diff.LineAdded, NewNo: 1}
	_, err = s.Add(bogus, "human", "x", CategoryNote)
	assert.ErrorIs(t, err, ErrInvalidAnchor)
}

func TestStore_AddThenDeleteRestoresState(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)
	anchor := lineAnchor(t, ix, "a.py", 10, false)

	_, err := s.Add(anchor, "human", "first", CategoryNote)
	require.NoError(t, err)
	before := s.Snapshot()

	c, err := s.Add(anchor, "human", "second", CategorySuggestion)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	require.NoError(t, s.Delete(c.ID, false))
	assert.Equal(t, before, s.Snapshot())
}

func TestStore_HunkHeaderNotAnAnchor(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)

	addr := diff.HunkAddress("a.py", 0)
	require.True(t, ix.Contains(addr))

	_, err := s.Add(addr, "human", "x", CategoryNote)
	assert.ErrorIs(t, err, ErrInvalidAnchor)
}

func TestStore_ReconcileSeesConcurrentAdds(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)
	anchor := lineAnchor(t, ix, "a.py", 10, false)

	_, err := s.Add(anchor, "human", "existing", CategoryNote)
	require.NoError(t, err)

	adopted := Comment{ID: "ext-1", Author: "agent", Content: "from disk", FilePath: "a.py"}
	s.Reconcile(func(current []Comment) []Comment {
		require.Len(t, current, 1)
		assert.Equal(t, "existing", current[0].Content)
		return append(current, adopted)
	})

	require.Equal(t, 2, s.Len())
	got, ok := s.Get("ext-1")
	require.True(t, ok)
	assert.Equal(t, "from disk", got.Content)
}

func TestStore_ThreadedCommentsSameAnchor(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)
	anchor := lineAnchor(t, ix, "a.py", 10, false)

	first, err := s.Add(anchor, "human", "first", CategoryNote)
	require.NoError(t, err)
	second, err := s.Add(anchor, "Agent (Claude/Opus)", "second", CategoryAnalysis)
	require.NoError(t, err)

	got := s.ByFile("a.py")
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.True(t, got[1].FromAgent())
}

func TestStore_EditAndDelete(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)
	c, err := s.Add(lineAnchor(t, ix, "a.py", 10, false), "human", "typo", CategoryNote)
	require.NoError(t, err)

	require.NoError(t, s.Edit(c.ID, "fixed wording", false))
	got, ok := s.Get(c.ID)
	require.True(t, ok)
	assert.Equal(t, "fixed wording", got.Content)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))

	assert.ErrorIs(t, s.Edit("nope", "x", false), ErrNotFound)
	assert.ErrorIs(t, s.Delete("nope", false), ErrNotFound)
}

func TestStore_RespondedCommentProtected(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)
	c, err := s.Add(lineAnchor(t, ix, "a.py", 10, false), "human", "question", CategoryIssue)
	require.NoError(t, err)

	require.NoError(t, s.SetResponse(c.ID, "answered"))

	assert.ErrorIs(t, s.Edit(c.ID, "rewrite", false), ErrHasResponse)
	assert.ErrorIs(t, s.Delete(c.ID, false), ErrHasResponse)

	// Forced edit keeps the response attached.
	require.NoError(t, s.Edit(c.ID, "rewrite", true))
	got, _ := s.Get(c.ID)
	assert.Equal(t, "rewrite", got.Content)
	assert.Equal(t, "answered", got.Response)
	require.NotNil(t, got.RespondedAt)

	require.NoError(t, s.Delete(c.ID, true))
	assert.Equal(t, 0, s.Len())
}

func TestStore_SetResponseUnknownID(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	assert.ErrorIs(t, s.SetResponse("nope", "x"), ErrNotFound)
}

func TestStore_Near(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)

	first, err := s.Add(lineAnchor(t, ix, "a.py", 10, false), "human", "a", CategoryNote)
	require.NoError(t, err)
	second, err := s.Add(lineAnchor(t, ix, "b.py", 5, true), "human", "b", CategoryNote)
	require.NoError(t, err)

	// From the top of the document, forward finds the a.py comment.
	got, ok := s.Near(diff.FileAddress("a.py"), Forward)
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID)

	// From the b.py file header, backward skips over to a.py's comment.
	got, ok = s.Near(diff.FileAddress("b.py"), Backward)
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID)

	// Forward from b.py's header finds the removed-line comment.
	got, ok = s.Near(diff.FileAddress("b.py"), Forward)
	require.True(t, ok)
	assert.Equal(t, second.ID, got.ID)

	// Backward from the very top finds nothing before the first anchor
	// other than the file-level position itself.
	_, ok = s.Near(lineAnchor(t, ix, "a.py", 8, false), Backward)
	assert.False(t, ok)
}

func TestStore_NearTieBreaksByCreation(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)
	anchor := lineAnchor(t, ix, "a.py", 10, false)

	first, err := s.Add(anchor, "human", "first", CategoryNote)
	require.NoError(t, err)
	_, err = s.Add(anchor, "human", "second", CategoryNote)
	require.NoError(t, err)

	got, ok := s.Near(diff.FileAddress("a.py"), Forward)
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID)
}

func TestStore_AddRange(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)
	start := lineAnchor(t, ix, "a.py", 10, false)
	end := lineAnchor(t, ix, "a.py", 12, false)

	c, err := s.AddRange(start, end, "human", "this block", CategorySuggestion)
	require.NoError(t, err)
	require.NotNil(t, c.LineNo)
	require.NotNil(t, c.LineEndNo)
	assert.Equal(t, 10, *c.LineNo)
	assert.Equal(t, 12, *c.LineEndNo)
	assert.True(t, c.IsRange())

	// Reversed input normalizes.
	c2, err := s.AddRange(end, start, "human", "again", CategoryNote)
	require.NoError(t, err)
	lo, hi := c2.Range()
	assert.Equal(t, 10, lo)
	assert.Equal(t, 12, hi)
}

func TestStore_AddRangeSingleLine(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)
	a := lineAnchor(t, ix, "a.py", 10, false)

	c, err := s.AddRange(a, a, "human", "one line", CategoryNote)
	require.NoError(t, err)
	assert.Nil(t, c.LineEndNo)
	assert.False(t, c.IsRange())
}

func TestStore_AddRangeInvalid(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)
	a := lineAnchor(t, ix, "a.py", 10, false)
	b := lineAnchor(t, ix, "b.py", 5, true)

	_, err := s.AddRange(a, b, "human", "x", CategoryNote)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = s.AddRange(diff.FileAddress("a.py"), a, "human", "x", CategoryNote)
	assert.ErrorIs(t, err, ErrInvalidRange)

	// Same file but opposite diff sides.
	ctx4 := lineAnchor(t, ix, "b.py", 4, false)
	rm5 := lineAnchor(t, ix, "b.py", 5, true)
	_, err = s.AddRange(ctx4, rm5, "human", "x", CategoryNote)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestStore_AllFlattenedOrder(t *testing.T) {
	t.Parallel()

	s, ix := newTestStore(t)

	_, err := s.Add(lineAnchor(t, ix, "b.py", 5, true), "human", "on b", CategoryNote)
	require.NoError(t, err)
	_, err = s.Add(lineAnchor(t, ix, "a.py", 11, false), "human", "on a line", CategoryNote)
	require.NoError(t, err)
	_, err = s.Add(diff.FileAddress("a.py"), "human", "on a file", CategoryNote)
	require.NoError(t, err)

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "on a file", all[0].Content) // file-level first within a.py
	assert.Equal(t, "on a line", all[1].Content)
	assert.Equal(t, "on b", all[2].Content) // b.py follows a.py in diff order
}
