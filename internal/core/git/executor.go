// Package git shells out to the git and gh command-line tools to
// discover repository state and produce the diffs a review session is
// built from.
package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/hay-kot/acre/pkg/executil"
)

// Executor runs git and gh commands through an executil.Executor so
// tests can substitute a fake.
type Executor struct {
	gitPath string
	ghPath  string
	exec    executil.Executor
}

// NewExecutor creates an executor using the given binary paths.
func NewExecutor(gitPath, ghPath string, exec executil.Executor) *Executor {
	return &Executor{gitPath: gitPath, ghPath: ghPath, exec: exec}
}

// RepoRoot returns the absolute path of the repository containing dir.
func (e *Executor) RepoRoot(ctx context.Context, dir string) (string, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CurrentBranch returns the checked-out branch name, or the short
// commit SHA in detached HEAD state.
func (e *Executor) CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("git branch: %w", err)
	}
	branch := strings.TrimSpace(string(out))
	if branch != "" {
		return branch, nil
	}

	out, err = e.exec.RunDir(ctx, dir, e.gitPath, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// UserIdent returns the reviewer identity as "Name <email>" from git
// config. Falls back to "human" when neither is configured.
func (e *Executor) UserIdent(ctx context.Context, dir string) string {
	name := e.configValue(ctx, dir, "user.name")
	email := e.configValue(ctx, dir, "user.email")

	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case name != "":
		return name
	case email != "":
		return email
	default:
		return "human"
	}
}

func (e *Executor) configValue(ctx context.Context, dir, key string) string {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "config", "--get", key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// untrackedFiles lists files git does not know about yet, honoring the
// standard ignore rules.
func (e *Executor) untrackedFiles(ctx context.Context, dir string) ([]string, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}
