package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hay-kot/acre/internal/core/git"
	"github.com/hay-kot/acre/internal/core/logging"
	"github.com/hay-kot/acre/internal/core/session"
	"github.com/hay-kot/acre/pkg/executil"
)

// reviewSession bundles everything a command needs to operate on one
// session: the repo root, the session file path, and the live document.
type reviewSession struct {
	Root   string
	Path   string
	Source git.Source
	Doc    *session.Document
	Git    *git.Executor
}

func (f *Flags) gitExec() *git.Executor {
	return git.NewExecutor(f.Config.GitPath, f.Config.GhPath, &executil.RealExecutor{})
}

// sourceFromFlags picks the diff source. Priority mirrors session
// creation precedence: pr, commit, branch, staged, diff file, then
// uncommitted as the default.
func sourceFromFlags(staged bool, branch, commit, pr, diffFile string) git.Source {
	switch {
	case pr != "":
		return git.Source{Type: session.SourcePR, Ref: pr}
	case commit != "":
		return git.Source{Type: session.SourceCommit, Ref: commit}
	case branch != "":
		return git.Source{Type: session.SourceBranch, Ref: branch}
	case staged:
		return git.Source{Type: session.SourceStaged}
	case diffFile != "":
		return git.Source{Type: session.SourceFile, Ref: diffFile}
	default:
		return git.Source{Type: session.SourceUncommitted}
	}
}

// openSession creates or resumes the session for a diff source. A fresh
// session requires the diff source to work; resuming an existing file
// tolerates an unavailable source and falls back to the recorded diff.
func openSession(ctx context.Context, flags *Flags, src git.Source) (*reviewSession, error) {
	log := logging.Component("commands")
	gitExec := flags.gitExec()

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := gitExec.RepoRoot(ctx, cwd)
	if err != nil {
		if src.Type != session.SourceFile {
			return nil, err
		}
		// A plain diff file can be reviewed outside a repository.
		root = cwd
	}

	path := session.FilePath(root, src.Type, src.Ref)
	diffText, diffErr := gitExec.GetDiff(ctx, root, src)

	if _, statErr := os.Stat(path); statErr == nil {
		snap, err := session.Load(path)
		if err != nil {
			return nil, err
		}
		if diffErr != nil {
			var serr *git.SourceUnavailableError
			if !errors.As(diffErr, &serr) {
				return nil, diffErr
			}
			log.Warn().Err(diffErr).Msg("diff source unavailable, resuming from recorded diff")
			diffText = ""
		}
		doc, err := session.FromSnapshot(snap, diffText)
		if err != nil {
			return nil, err
		}
		return &reviewSession{Root: root, Path: path, Source: src, Doc: doc, Git: gitExec}, nil
	}

	if diffErr != nil {
		return nil, diffErr
	}
	meta := session.NewMeta(src.Type, src.Ref, git.Describe(src))
	doc, err := session.NewDocument(meta, diffText)
	if err != nil {
		return nil, err
	}
	return &reviewSession{Root: root, Path: path, Source: src, Doc: doc, Git: gitExec}, nil
}

// save persists the document to the session file.
func (rs *reviewSession) save() error {
	if err := session.Save(rs.Path, rs.Doc.Snapshot()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// author resolves the comment author: config override first, then git
// identity.
func (rs *reviewSession) author(ctx context.Context, flags *Flags) string {
	if flags.Config.Author != "" {
		return flags.Config.Author
	}
	return rs.Git.UserIdent(ctx, rs.Root)
}
