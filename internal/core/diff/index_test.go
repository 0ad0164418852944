package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoFileDiff = `diff --git a/a.py b/a.py
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
 ctx6`

func buildIndex(t *testing.T, text string) *Index {
	t.Helper()
	files, err := Parse(text)
	require.NoError(t, err)
	return NewIndex(files)
}

func TestIndex_RowLayout(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, twoFileDiff)

	// file header + hunk header + 6 lines, then file header + hunk header + 3 lines
	require.Equal(t, 13, ix.Len())

	row, ok := ix.Row(0)
	require.True(t, ok)
	assert.Equal(t, RowFileHeader, row.Kind)
	assert.Equal(t, "a.py", row.Addr.Path)
	assert.True(t, row.Addr.FileLevel)

	row, ok = ix.Row(1)
	require.True(t, ok)
	assert.Equal(t, RowHunkHeader, row.Kind)

	_, ok = ix.Row(13)
	assert.False(t, ok)
}

func TestIndex_AddressesUnique(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, twoFileDiff)

	seen := map[string]bool{}
	for i := 0; i < ix.Len(); i++ {
		row, _ := ix.Row(i)
		key := row.Addr.Key()
		assert.False(t, seen[key], "duplicate address %s", key)
		seen[key] = true
	}
}

func TestIndex_HunkHeaderAddresses(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, twoFileDiff)

	row, ok := ix.Row(1)
	require.True(t, ok)
	require.Equal(t, RowHunkHeader, row.Kind)
	assert.NotEqual(t, FileAddress("a.py").Key(), row.Addr.Key())

	off, ok := ix.Lookup(HunkAddress("a.py", 0))
	require.True(t, ok)
	assert.Equal(t, 1, off)

	off, ok = ix.Lookup(HunkAddress("b.py", 0))
	require.True(t, ok)
	assert.Equal(t, 9, off)

	_, ok = ix.Lookup(HunkAddress("a.py", 7))
	assert.False(t, ok)
}

func TestIndex_AddressesStableAcrossReparse(t *testing.T) {
	t.Parallel()

	first := buildIndex(t, twoFileDiff)
	second := buildIndex(t, twoFileDiff)

	require.Equal(t, first.Len(), second.Len())
	for i := 0; i < first.Len(); i++ {
		a, _ := first.Row(i)
		b, _ := second.Row(i)
		assert.Equal(t, a.Addr.Key(), b.Addr.Key())
	}
}

func TestIndex_HunkLocalChangePreservesOtherAddresses(t *testing.T) {
	t.Parallel()

	changed := `diff --git a/a.py b/a.py
--- a/a.py
+++ b/a.py
@@ -8,3 +8,6 @@
 ctx8
 ctx9
+CHANGED10
+added11
+added12
 ctx10
diff --git a/b.py b/b.py
--- a/b.py
+++ b/b.py
@@ -4,3 +4,2 @@
 ctx4
-removed5
 ctx6`

	before := buildIndex(t, twoFileDiff)
	after := buildIndex(t, changed)

	// Addresses in b.py (the untouched hunk) are identical.
	addr, ok := before.Resolve("b.py", 5, true)
	require.True(t, ok)
	addrAfter, ok := after.Resolve("b.py", 5, true)
	require.True(t, ok)
	assert.Equal(t, addr.Key(), addrAfter.Key())

	// So are line-number-derived addresses inside the changed hunk,
	// since addressing is positional, not content-based.
	a1, ok := before.Resolve("a.py", 10, false)
	require.True(t, ok)
	a2, ok := after.Resolve("a.py", 10, false)
	require.True(t, ok)
	assert.Equal(t, a1.Key(), a2.Key())
}

func TestIndex_Lookup(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, twoFileDiff)

	addr, ok := ix.Resolve("a.py", 11, false)
	require.True(t, ok)
	off, ok := ix.Lookup(addr)
	require.True(t, ok)

	row, _ := ix.Row(off)
	assert.Equal(t, RowLine, row.Kind)
	assert.Equal(t, 11, row.Addr.NewNo)

	_, ok = ix.Lookup(FileAddress("missing.py"))
	assert.False(t, ok)
}

func TestIndex_Resolve(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, twoFileDiff)

	addr, ok := ix.Resolve("a.py", 10, false)
	require.True(t, ok)
	assert.Equal(t, LineAdded, addr.Type)
	assert.Equal(t, 10, addr.NewNo)

	addr, ok = ix.Resolve("b.py", 5, true)
	require.True(t, ok)
	assert.Equal(t, LineRemoved, addr.Type)
	assert.Equal(t, 5, addr.OldNo)

	_, ok = ix.Resolve("a.py", 999, false)
	assert.False(t, ok)

	_, ok = ix.Resolve("missing.py", 1, false)
	assert.False(t, ok)
}

func TestIndex_FileNavigation(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, twoFileDiff)

	// Second file header sits after the first file's 8 rows.
	assert.Equal(t, 8, ix.NextFile(0))
	assert.Equal(t, 8, ix.NextFile(3))
	assert.Equal(t, 0, ix.PrevFile(8))
	assert.Equal(t, 8, ix.PrevFile(12))

	// Clamped: no-op past the ends.
	assert.Equal(t, 12, ix.NextFile(12))
	assert.Equal(t, 0, ix.PrevFile(0))
}

func TestIndex_HunkNavigation(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, twoFileDiff)

	assert.Equal(t, 1, ix.NextHunk(0))
	assert.Equal(t, 9, ix.NextHunk(1))
	assert.Equal(t, 1, ix.PrevHunk(5))
	assert.Equal(t, 9, ix.PrevHunk(12))

	// Backward from the first hunk and forward from the last are no-ops.
	assert.Equal(t, 1, ix.PrevHunk(1))
	assert.Equal(t, 12, ix.NextHunk(12))
	assert.Equal(t, 0, ix.PrevHunk(0))
}

func TestIndex_HunkContext(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, twoFileDiff)

	addr, ok := ix.Resolve("a.py", 11, false)
	require.True(t, ok)

	ctx := ix.HunkContext(addr)
	assert.Contains(t, ctx, "+added11")
	assert.Contains(t, ctx, "@@ -8,3 +8,6 @@")

	assert.Empty(t, ix.HunkContext(FileAddress("a.py")))
}

func TestIndex_EmptyDocument(t *testing.T) {
	t.Parallel()

	ix := NewIndex(nil)
	assert.Equal(t, 0, ix.Len())
	assert.Equal(t, 0, ix.NextFile(0))
	assert.Equal(t, 0, ix.PrevHunk(0))
}
