package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/hay-kot/acre/internal/core/session"
)

// Source identifies what a review session diffs against.
type Source struct {
	Type string // one of the session.Source* constants
	Ref  string // branch name, commit SHA, or PR number; empty otherwise
}

// SourceUnavailableError means the external diff provider failed:
// missing binary, network failure for a PR fetch, bad ref. Fatal when
// creating a session, tolerated when resuming one from disk.
type SourceUnavailableError struct {
	Source Source
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("diff source %s unavailable: %s", Describe(e.Source), e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// Describe returns the human-readable description of a diff source,
// e.g. "uncommitted changes" or "PR #42".
func Describe(src Source) string {
	switch src.Type {
	case session.SourceUncommitted:
		return "uncommitted changes"
	case session.SourceStaged:
		return "staged changes"
	case session.SourceBranch:
		return fmt.Sprintf("changes vs %s", src.Ref)
	case session.SourceCommit:
		ref := src.Ref
		if len(ref) > 7 {
			ref = ref[:7]
		}
		return fmt.Sprintf("commit %s", ref)
	case session.SourcePR:
		return fmt.Sprintf("PR #%s", src.Ref)
	case session.SourceFile:
		return fmt.Sprintf("diff file %s", src.Ref)
	default:
		return "unknown"
	}
}

// GetDiff produces the raw unified diff text for a source. Uncommitted
// mode additionally synthesizes new-file patches for untracked files so
// a fresh file shows up in the review.
func (e *Executor) GetDiff(ctx context.Context, dir string, src Source) (string, error) {
	var (
		out []byte
		err error
	)
	switch src.Type {
	case session.SourceUncommitted:
		return e.uncommittedDiff(ctx, dir, src)
	case session.SourceStaged:
		out, err = e.exec.RunDir(ctx, dir, e.gitPath, "diff", "--staged")
	case session.SourceBranch:
		if src.Ref == "" {
			return "", &SourceUnavailableError{Source: src, Err: fmt.Errorf("base branch required")}
		}
		out, err = e.exec.RunDir(ctx, dir, e.gitPath, "diff", src.Ref+"...HEAD")
	case session.SourceCommit:
		if src.Ref == "" {
			return "", &SourceUnavailableError{Source: src, Err: fmt.Errorf("commit required")}
		}
		out, err = e.exec.RunDir(ctx, dir, e.gitPath, "show", src.Ref, "--format=")
	case session.SourcePR:
		if src.Ref == "" {
			return "", &SourceUnavailableError{Source: src, Err: fmt.Errorf("pr number required")}
		}
		out, err = e.exec.RunDir(ctx, dir, e.ghPath, "pr", "diff", src.Ref)
	case session.SourceFile:
		if src.Ref == "" {
			return "", &SourceUnavailableError{Source: src, Err: fmt.Errorf("diff file required")}
		}
		out, err = os.ReadFile(src.Ref)
	default:
		return "", &SourceUnavailableError{Source: src, Err: fmt.Errorf("unknown source type %q", src.Type)}
	}
	if err != nil {
		return "", &SourceUnavailableError{Source: src, Err: err}
	}
	return string(out), nil
}

func (e *Executor) uncommittedDiff(ctx context.Context, dir string, src Source) (string, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "diff", "HEAD")
	if err != nil {
		return "", &SourceUnavailableError{Source: src, Err: err}
	}
	text := string(out)

	untracked, err := e.untrackedFiles(ctx, dir)
	if err != nil {
		return "", &SourceUnavailableError{Source: src, Err: err}
	}
	for _, path := range untracked {
		patch, ok := newFilePatch(dir, path)
		if ok {
			text += patch
		}
	}
	return text, nil
}

// newFilePatch builds a unified-diff new-file entry for an untracked
// file. Binary and unreadable files are skipped.
func newFilePatch(dir, path string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, path))
	if err != nil || !utf8.Valid(data) || strings.ContainsRune(string(data), 0) {
		return "", false
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\ndiff --git a/%s b/%s\n", path, path)
	b.WriteString("new file mode 100644\n")
	b.WriteString("--- /dev/null\n")
	fmt.Fprintf(&b, "+++ b/%s\n", path)
	fmt.Fprintf(&b, "@@ -0,0 +1,%d @@\n", len(lines))
	for _, line := range lines {
		b.WriteString("+" + line + "\n")
	}
	return b.String(), true
}
