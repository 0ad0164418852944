package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/acre/internal/core/engine"
	"github.com/hay-kot/acre/internal/core/git"
	"github.com/hay-kot/acre/internal/core/logging"
	"github.com/hay-kot/acre/internal/core/watch"
)

// sourceFlags are the diff-scope flags shared by commands that open a
// session.
type sourceFlags struct {
	staged   bool
	branch   string
	commit   string
	pr       string
	diffFile string
}

func (s *sourceFlags) cliFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "staged",
			Usage:       "review staged changes only",
			Destination: &s.staged,
		},
		&cli.StringFlag{
			Name:        "branch",
			Aliases:     []string{"b"},
			Usage:       "review changes vs a base branch",
			Destination: &s.branch,
		},
		&cli.StringFlag{
			Name:        "commit",
			Aliases:     []string{"c"},
			Usage:       "review a single commit",
			Destination: &s.commit,
		},
		&cli.StringFlag{
			Name:        "pr",
			Usage:       "review a GitHub pull request (requires gh)",
			Destination: &s.pr,
		},
		&cli.StringFlag{
			Name:        "diff-file",
			Usage:       "review a pre-generated diff file",
			Destination: &s.diffFile,
		},
	}
}

func (s *sourceFlags) source() git.Source {
	return sourceFromFlags(s.staged, s.branch, s.commit, s.pr, s.diffFile)
}

type StartCmd struct {
	flags *Flags
	src   sourceFlags
}

// NewStartCmd creates a new start command.
func NewStartCmd(flags *Flags) *StartCmd {
	return &StartCmd{flags: flags}
}

// Register adds the start command to the application.
func (cmd *StartCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "start",
		Usage: "Create or resume a review session and reconcile external edits",
		Description: `Start writes the session file for the selected diff scope and keeps it
reconciled: external edits to the file (an agent adding responses, a
human editing in another window) are merged back into the session as
they land, and local state is persisted on every change.

Examples:
  acre start                  # review uncommitted changes
  acre start --staged         # review the index
  acre start -b main          # review changes vs main
  acre start --pr 42          # review a GitHub PR`,
		Flags:  cmd.src.cliFlags(),
		Action: cmd.run,
	})
	return app
}

func (cmd *StartCmd) run(ctx context.Context, c *cli.Command) error {
	log := logging.Component("start")

	rs, err := openSession(ctx, cmd.flags, cmd.src.source())
	if err != nil {
		return err
	}
	ctx = logging.WithSessionID(ctx, rs.Doc.Meta().ID)

	watcher, err := watch.New(rs.Path, cmd.flags.Config.Debounce())
	if err != nil {
		return fmt.Errorf("watch session file: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	eng := engine.New(rs.Path, rs.Doc, engine.Options{MarkSaved: watcher.MarkSaved})
	defer func() { _ = eng.Close() }()

	// Write the document up front so the collaborator has a file to
	// open even before any comments exist.
	eng.RequestSave()

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	if interactive {
		fmt.Fprintf(c.Root().Writer, "reviewing %s\n", git.Describe(rs.Source))
		fmt.Fprintf(c.Root().Writer, "session file: %s\n", rs.Path)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-watcher.Events():
			eng.RequestReload()
		case ev := <-eng.Events():
			switch ev.Kind {
			case engine.EventReloaded:
				log.Info().Ctx(ctx).Msg("session reloaded from external changes")
				if interactive {
					fmt.Fprintln(c.Root().Writer, "session reloaded from external changes")
				}
			case engine.EventErrored:
				log.Error().Ctx(ctx).Err(ev.Err).Msg("reconciliation error")
				if interactive {
					fmt.Fprintf(c.Root().Writer, "error: %s (keeping last good state)\n", ev.Err)
				}
			}
		}
	}
}
