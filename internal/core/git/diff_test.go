package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/acre/internal/core/session"
	"github.com/hay-kot/acre/pkg/executil"
)

const sampleDiff = `diff --git a/file.go b/file.go
--- a/file.go
+++ b/file.go
@@ -1,3 +1,4 @@
 package main

 func main() {
+	println("hello")
 }
`

func TestGetDiff_Modes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      Source
		wantCmd  string
		wantArgs []string
	}{
		{
			name:     "staged",
			src:      Source{Type: session.SourceStaged},
			wantCmd:  "git",
			wantArgs: []string{"diff", "--staged"},
		},
		{
			name:     "branch",
			src:      Source{Type: session.SourceBranch, Ref: "main"},
			wantCmd:  "git",
			wantArgs: []string{"diff", "main...HEAD"},
		},
		{
			name:     "commit",
			src:      Source{Type: session.SourceCommit, Ref: "abc1234"},
			wantCmd:  "git",
			wantArgs: []string{"show", "abc1234", "--format="},
		},
		{
			name:     "pr",
			src:      Source{Type: session.SourcePR, Ref: "42"},
			wantCmd:  "gh",
			wantArgs: []string{"pr", "diff", "42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := &executil.RecordingExecutor{
				Outputs: map[string][]byte{
					"git": []byte(sampleDiff),
					"gh":  []byte(sampleDiff),
				},
			}

			e := NewExecutor("git", "gh", mock)
			got, err := e.GetDiff(context.Background(), "/repo", tt.src)
			require.NoError(t, err)
			assert.Equal(t, sampleDiff, got)

			require.Len(t, mock.Commands, 1)
			assert.Equal(t, tt.wantCmd, mock.Commands[0].Cmd)
			assert.Equal(t, tt.wantArgs, mock.Commands[0].Args)
			assert.Equal(t, "/repo", mock.Commands[0].Dir)
		})
	}
}

func TestGetDiff_MissingRef(t *testing.T) {
	t.Parallel()

	mock := &executil.RecordingExecutor{}
	e := NewExecutor("git", "gh", mock)

	for _, src := range []Source{
		{Type: session.SourceBranch},
		{Type: session.SourceCommit},
		{Type: session.SourcePR},
		{Type: "bogus"},
	} {
		_, err := e.GetDiff(context.Background(), "/repo", src)
		var serr *SourceUnavailableError
		assert.ErrorAs(t, err, &serr, "source %+v", src)
	}
	assert.Empty(t, mock.Commands, "missing refs fail before any command runs")
}

func TestGetDiff_UncommittedSynthesizesUntracked(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fresh.go"), []byte("package fresh\n\nvar X = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0x00, 0x01, 0xff}, 0o644))

	mock := &executil.RecordingExecutor{
		Outputs: map[string][]byte{
			"git diff":     []byte(sampleDiff),
			"git ls-files": []byte("fresh.go\nblob.bin\n"),
		},
	}

	e := NewExecutor("git", "gh", mock)
	got, err := e.GetDiff(context.Background(), dir, Source{Type: session.SourceUncommitted})
	require.NoError(t, err)

	assert.Contains(t, got, sampleDiff)
	assert.Contains(t, got, "diff --git a/fresh.go b/fresh.go")
	assert.Contains(t, got, "new file mode 100644")
	assert.Contains(t, got, "@@ -0,0 +1,3 @@")
	assert.Contains(t, got, "+var X = 1")
	assert.NotContains(t, got, "blob.bin", "binary untracked files are skipped")
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  Source
		want string
	}{
		{Source{Type: session.SourceUncommitted}, "uncommitted changes"},
		{Source{Type: session.SourceStaged}, "staged changes"},
		{Source{Type: session.SourceBranch, Ref: "main"}, "changes vs main"},
		{Source{Type: session.SourceCommit, Ref: "abc1234def"}, "commit abc1234"},
		{Source{Type: session.SourcePR, Ref: "42"}, "PR #42"},
		{Source{Type: "bogus"}, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.src))
	}
}
