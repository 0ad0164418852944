package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/acre/internal/core/diff"
	"github.com/hay-kot/acre/internal/core/logging"
	"github.com/hay-kot/acre/internal/core/review"
	"github.com/hay-kot/acre/internal/core/validate"
)

type CommentCmd struct {
	flags *Flags
	src   sourceFlags

	message  string
	category string
	deleted  bool
}

// NewCommentCmd creates a new comment command.
func NewCommentCmd(flags *Flags) *CommentCmd {
	return &CommentCmd{flags: flags}
}

// Register adds the comment command to the application.
func (cmd *CommentCmd) Register(app *cli.Command) *cli.Command {
	flags := append(cmd.src.cliFlags(),
		&cli.StringFlag{
			Name:        "message",
			Aliases:     []string{"m"},
			Usage:       "comment text",
			Required:    true,
			Destination: &cmd.message,
		},
		&cli.StringFlag{
			Name:        "category",
			Aliases:     []string{"t"},
			Usage:       "comment category (note, suggestion, issue, praise)",
			Value:       string(review.CategoryNote),
			Destination: &cmd.category,
		},
		&cli.BoolFlag{
			Name:        "deleted",
			Usage:       "the line number refers to a removed line (old file side)",
			Destination: &cmd.deleted,
		},
	)

	app.Commands = append(app.Commands, &cli.Command{
		Name:      "comment",
		Usage:     "Attach a comment to a file, line, or line range in the diff",
		UsageText: "acre comment [options] <path>[:line[-end]]",
		Description: `Comment anchors feedback to the current diff.

Examples:
  acre comment src/app.py -m "tidy this module"
  acre comment src/app.py:42 -m "off by one" -t issue
  acre comment src/app.py:10-14 -m "extract a helper" -t suggestion
  acre comment src/app.py:42 --deleted -m "why was this removed?"`,
		Flags:  flags,
		Action: cmd.run,
	})
	return app
}

func (cmd *CommentCmd) run(ctx context.Context, c *cli.Command) error {
	target := c.Args().First()
	if target == "" {
		return fmt.Errorf("a target of the form <path>[:line[-end]] is required")
	}
	path, line, end, err := parseTarget(target)
	if err != nil {
		return err
	}
	if err := validate.CommentTextField("message", cmd.message); err != nil {
		return err
	}

	category := review.Category(cmd.category)
	if !category.Valid() {
		return fmt.Errorf("unknown category %q", cmd.category)
	}

	rs, err := openSession(ctx, cmd.flags, cmd.src.source())
	if err != nil {
		return err
	}
	author := rs.author(ctx, cmd.flags)

	ix := rs.Doc.Index()
	store := rs.Doc.Comments()

	var comment review.Comment
	switch {
	case line == 0:
		comment, err = store.Add(diff.FileAddress(path), author, cmd.message, category)
	case end == 0:
		anchor, ok := ix.Resolve(path, line, cmd.deleted)
		if !ok {
			return fmt.Errorf("%s:%d is not part of the current diff", path, line)
		}
		comment, err = store.Add(anchor, author, cmd.message, category)
	default:
		start, ok := ix.Resolve(path, line, cmd.deleted)
		if !ok {
			return fmt.Errorf("%s:%d is not part of the current diff", path, line)
		}
		stop, ok := ix.Resolve(path, end, cmd.deleted)
		if !ok {
			return fmt.Errorf("%s:%d is not part of the current diff", path, end)
		}
		comment, err = store.AddRange(start, stop, author, cmd.message, category)
	}
	if err != nil {
		return err
	}

	if err := rs.save(); err != nil {
		return err
	}

	ctx = logging.WithSessionID(ctx, rs.Doc.Meta().ID)
	ctx = logging.WithAuthor(ctx, author)
	logger := logging.Component("comment")
	logger.Info().Ctx(ctx).
		Str("id", comment.ID).
		Str("file", path).
		Msg("comment added")

	fmt.Fprintf(c.Root().Writer, "added comment %s\n", comment.ID)
	return nil
}

// parseTarget splits "<path>[:line[-end]]" into its parts. Line 0 means
// a file-level target.
func parseTarget(s string) (path string, line, end int, err error) {
	idx := strings.LastIndex(s, ":")
	if idx == -1 {
		return s, 0, 0, nil
	}

	path, spec := s[:idx], s[idx+1:]
	if path == "" {
		return "", 0, 0, fmt.Errorf("invalid target %q", s)
	}

	lo, hi, ok := strings.Cut(spec, "-")
	line, err = strconv.Atoi(lo)
	if err != nil || line < 1 {
		return "", 0, 0, fmt.Errorf("invalid line number in %q", s)
	}
	if !ok {
		return path, line, 0, nil
	}

	end, err = strconv.Atoi(hi)
	if err != nil || end < 1 {
		return "", 0, 0, fmt.Errorf("invalid line range in %q", s)
	}
	return path, line, end, nil
}
