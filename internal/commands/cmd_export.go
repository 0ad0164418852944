package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/acre/internal/core/export"
)

type ExportCmd struct {
	flags *Flags
	src   sourceFlags

	format string
	filter string
	out    string
}

// NewExportCmd creates a new export command.
func NewExportCmd(flags *Flags) *ExportCmd {
	return &ExportCmd{flags: flags}
}

// Register adds the export command to the application.
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	flags := append(cmd.src.cliFlags(),
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "output format (markdown or json)",
			Destination: &cmd.format,
		},
		&cli.StringFlag{
			Name:        "filter",
			Usage:       "glob applied to comment file paths, e.g. 'src/**'",
			Destination: &cmd.filter,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "write to a file instead of stdout",
			Destination: &cmd.out,
		},
	)

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "export",
		Usage: "Export the session's comments as a Markdown brief or JSON",
		Description: `Export flattens the session into something a collaborator can act on
without the session file.

Examples:
  acre export
  acre export -f json -o review.json
  acre export --filter 'internal/**'`,
		Flags:  flags,
		Action: cmd.run,
	})
	return app
}

func (cmd *ExportCmd) run(ctx context.Context, c *cli.Command) error {
	rs, err := openSession(ctx, cmd.flags, cmd.src.source())
	if err != nil {
		return err
	}

	// Flags win over config defaults.
	cfg := cmd.flags.Config.Export
	format := cmd.format
	if format == "" {
		format = cfg.Format
	}
	filter := cmd.filter
	if filter == "" {
		filter = cfg.Filter
	}

	text, err := export.Render(rs.Doc, export.Options{
		Format: export.Format(format),
		Filter: filter,
	})
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	if cmd.out != "" {
		if err := os.WriteFile(cmd.out, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		if interactive {
			fmt.Fprintf(c.Root().Writer, "wrote %s\n", cmd.out)
		}
		return nil
	}

	fmt.Fprint(c.Root().Writer, text)
	// Piped output stays byte-exact; a terminal gets a closing newline.
	if interactive && !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(c.Root().Writer)
	}
	return nil
}
