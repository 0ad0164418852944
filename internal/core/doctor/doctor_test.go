package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/acre/internal/core/config"
	"github.com/hay-kot/acre/internal/core/session"
)

func TestSummary(t *testing.T) {
	t.Parallel()

	results := []Result{
		{Name: "a", Items: []CheckItem{
			{Status: StatusPass},
			{Status: StatusWarn},
		}},
		{Name: "b", Items: []CheckItem{
			{Status: StatusPass},
			{Status: StatusFail},
		}},
	}

	passed, warned, failed := Summary(results)
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, warned)
	assert.Equal(t, 1, failed)
}

func TestToolsCheck(t *testing.T) {
	orig := lookPathFunc
	t.Cleanup(func() { lookPathFunc = orig })

	t.Run("all present", func(t *testing.T) {
		lookPathFunc = func(name string) (string, error) {
			return "/usr/bin/" + name, nil
		}

		result := NewToolsCheck("git", "gh").Run(context.Background())
		require.Len(t, result.Items, 2)
		assert.Equal(t, StatusPass, result.Items[0].Status)
		assert.Equal(t, StatusPass, result.Items[1].Status)
	})

	t.Run("missing gh warns", func(t *testing.T) {
		lookPathFunc = func(name string) (string, error) {
			if name == "gh" {
				return "", fmt.Errorf("not found")
			}
			return "/usr/bin/" + name, nil
		}

		result := NewToolsCheck("git", "gh").Run(context.Background())
		assert.Equal(t, StatusPass, result.Items[0].Status)
		assert.Equal(t, StatusWarn, result.Items[1].Status)
	})

	t.Run("missing git fails", func(t *testing.T) {
		lookPathFunc = func(name string) (string, error) {
			return "", fmt.Errorf("not found")
		}

		result := NewToolsCheck("git", "gh").Run(context.Background())
		assert.Equal(t, StatusFail, result.Items[0].Status)
	})
}

func TestConfigCheck(t *testing.T) {
	t.Parallel()

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.GitPath = "sh" // something guaranteed to be on PATH

		result := NewConfigCheck(&cfg, "").Run(context.Background())
		require.Len(t, result.Items, 1)
		assert.Equal(t, StatusPass, result.Items[0].Status)
	})

	t.Run("broken config fails", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Export.Format = "carrier-pigeon"

		result := NewConfigCheck(&cfg, "").Run(context.Background())
		require.Len(t, result.Items, 1)
		assert.Equal(t, StatusFail, result.Items[0].Status)
	})
}

func TestSessionsCheck(t *testing.T) {
	t.Parallel()

	const checkDiff = `diff --git a/a.py b/a.py
--- a/a.py
+++ b/a.py
@@ -1,2 +1,2 @@
 one
-two
+TWO
`

	t.Run("no session files", func(t *testing.T) {
		t.Parallel()

		result := NewSessionsCheck(t.TempDir()).Run(context.Background())
		require.Len(t, result.Items, 1)
		assert.Equal(t, StatusPass, result.Items[0].Status)
		assert.Equal(t, "none found", result.Items[0].Detail)
	})

	t.Run("valid and broken files", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()

		doc, err := session.NewDocument(session.NewMeta(session.SourceUncommitted, "", "uncommitted changes"), checkDiff)
		require.NoError(t, err)
		require.NoError(t, session.Save(filepath.Join(root, session.FilePrefix+".yaml"), doc.Snapshot()))

		broken := filepath.Join(root, session.FilePrefix+".pr-9.yaml")
		require.NoError(t, os.WriteFile(broken, []byte(":::nope"), 0o644))

		result := NewSessionsCheck(root).Run(context.Background())
		require.Len(t, result.Items, 2)

		statuses := map[string]Status{}
		for _, item := range result.Items {
			statuses[item.Label] = item.Status
		}
		assert.Equal(t, StatusPass, statuses[session.FilePrefix+".yaml"])
		assert.Equal(t, StatusFail, statuses[session.FilePrefix+".pr-9.yaml"])
	})
}
