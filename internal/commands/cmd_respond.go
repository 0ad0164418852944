package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/acre/internal/core/validate"
)

type RespondCmd struct {
	flags *Flags
	src   sourceFlags

	message string
}

// NewRespondCmd creates a new respond command.
func NewRespondCmd(flags *Flags) *RespondCmd {
	return &RespondCmd{flags: flags}
}

// Register adds the respond command to the application.
func (cmd *RespondCmd) Register(app *cli.Command) *cli.Command {
	flags := append(cmd.src.cliFlags(),
		&cli.StringFlag{
			Name:        "message",
			Aliases:     []string{"m"},
			Usage:       "response text",
			Required:    true,
			Destination: &cmd.message,
		},
	)

	app.Commands = append(app.Commands, &cli.Command{
		Name:      "respond",
		Usage:     "Record a response on an existing comment",
		UsageText: "acre respond [options] <comment-id>",
		Flags:     flags,
		Action:    cmd.run,
	})
	return app
}

func (cmd *RespondCmd) run(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("a comment id is required")
	}
	if err := validate.CommentTextField("message", cmd.message); err != nil {
		return err
	}

	rs, err := openSession(ctx, cmd.flags, cmd.src.source())
	if err != nil {
		return err
	}

	if err := rs.Doc.Comments().SetResponse(id, cmd.message); err != nil {
		return err
	}
	if err := rs.save(); err != nil {
		return err
	}
	fmt.Fprintf(c.Root().Writer, "responded to %s\n", id)
	return nil
}
