package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/acre/internal/core/review"
)

func TestFilePath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		sourceType string
		ref        string
		want       string
	}{
		{"uncommitted", SourceUncommitted, "", "/repo/.acre-review.yaml"},
		{"staged", SourceStaged, "", "/repo/.acre-review.yaml"},
		{"branch", SourceBranch, "main", "/repo/.acre-review.yaml"},
		{"commit short", SourceCommit, "abc1234", "/repo/.acre-review.abc1234.yaml"},
		{"commit long", SourceCommit, "abc1234def5678", "/repo/.acre-review.abc1234.yaml"},
		{"pr", SourcePR, "42", "/repo/.acre-review.pr-42.yaml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, FilePath("/repo", tc.sourceType, tc.ref))
		})
	}
}

func TestDocument_SnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	doc, err := NewDocument(NewMeta(SourceUncommitted, "", "working tree"), codecDiff)
	require.NoError(t, err)

	ix := doc.Index()
	anchor, ok := ix.Resolve("a.py", 10, false)
	require.True(t, ok)
	c, err := doc.Comments().Add(anchor, "human", "check this", review.CategoryNote)
	require.NoError(t, err)
	doc.Reviewed().Set("a.py", true)
	doc.SetNotes("wip")

	snap := doc.Snapshot()
	assert.Equal(t, codecDiff, snap.DiffContext)
	require.Len(t, snap.Files, 1)
	assert.True(t, snap.Files[0].Reviewed)
	require.Len(t, snap.Files[0].Comments, 1)
	assert.Equal(t, c.ID, snap.Files[0].Comments[0].ID)

	restored, err := FromSnapshot(snap, "")
	require.NoError(t, err)
	assert.Equal(t, doc.Meta().ID, restored.Meta().ID)
	assert.Equal(t, "wip", restored.Meta().Notes)
	assert.True(t, restored.Reviewed().Reviewed("a.py"))

	got, ok := restored.Comments().Get(c.ID)
	require.True(t, ok)
	assert.Equal(t, "check this", got.Content)
}

func TestDocument_OrphanedFileSurvivesSnapshot(t *testing.T) {
	t.Parallel()

	snap := testSnapshot(t)
	snap.Files = append(snap.Files, FileSnapshot{
		Path: "gone.py",
		Comments: []review.Comment{
			{ID: "c-2", Author: "human", Category: review.CategoryNote, Content: "keep me", FilePath: "gone.py"},
		},
	})

	doc, err := FromSnapshot(snap, "")
	require.NoError(t, err)

	// gone.py is not in the diff but its comment must not be dropped.
	_, inDiff := doc.Index().File("gone.py")
	assert.False(t, inDiff)

	out := doc.Snapshot()
	require.Len(t, out.Files, 2)
	assert.Equal(t, "a.py", out.Files[0].Path)
	assert.Equal(t, "gone.py", out.Files[1].Path)
	require.Len(t, out.Files[1].Comments, 1)
	assert.Equal(t, "keep me", out.Files[1].Comments[0].Content)
}

func TestDocument_SetDiffReanchorsComments(t *testing.T) {
	t.Parallel()

	doc, err := NewDocument(NewMeta(SourceUncommitted, "", ""), codecDiff)
	require.NoError(t, err)

	anchor, ok := doc.Index().Resolve("a.py", 10, false)
	require.True(t, ok)
	c, err := doc.Comments().Add(anchor, "human", "anchored", review.CategoryNote)
	require.NoError(t, err)

	// The hunk shrinks so new-side line 10 no longer exists.
	const shrunk = `diff --git a/a.py b/a.py
--- a/a.py
+++ b/a.py
@@ -8,2 +8,2 @@
 ctx8
-ctx9
+CTX9`
	require.NoError(t, doc.SetDiff(shrunk))

	got, ok := doc.Comments().Get(c.ID)
	require.True(t, ok)
	addr := got.Anchor(doc.Index())
	assert.True(t, addr.FileLevel, "vanished line demotes to file level")
	assert.Equal(t, "a.py", addr.Path)
}

func TestDocument_SetDiffRejectsMalformed(t *testing.T) {
	t.Parallel()

	doc, err := NewDocument(NewMeta(SourceUncommitted, "", ""), codecDiff)
	require.NoError(t, err)

	err = doc.SetDiff("diff --git a/x b/x\n--- a/x\n+++ b/x\n@@ bogus @@\n")
	require.Error(t, err)

	// The previous diff stays live.
	assert.Equal(t, codecDiff, doc.DiffText())
}
