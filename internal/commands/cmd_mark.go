package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type MarkCmd struct {
	flags *Flags
	src   sourceFlags
}

// NewMarkCmd creates a new mark command.
func NewMarkCmd(flags *Flags) *MarkCmd {
	return &MarkCmd{flags: flags}
}

// Register adds the mark command to the application.
func (cmd *MarkCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "mark",
		Usage:     "Toggle the reviewed flag on a file in the diff",
		UsageText: "acre mark [options] <path>",
		Flags:     cmd.src.cliFlags(),
		Action:    cmd.run,
	})
	return app
}

func (cmd *MarkCmd) run(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("a file path is required")
	}

	rs, err := openSession(ctx, cmd.flags, cmd.src.source())
	if err != nil {
		return err
	}

	if _, ok := rs.Doc.Index().File(path); !ok {
		return fmt.Errorf("%s is not part of the current diff", path)
	}

	reviewed := rs.Doc.Reviewed().Toggle(path)
	if err := rs.save(); err != nil {
		return err
	}

	state := "unreviewed"
	if reviewed {
		state = "reviewed"
	}
	fmt.Fprintf(c.Root().Writer, "%s marked %s\n", path, state)
	return nil
}
