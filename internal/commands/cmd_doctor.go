package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/acre/internal/core/doctor"
)

type DoctorCmd struct {
	flags *Flags

	jsonOut bool
}

// NewDoctorCmd creates a new doctor command.
func NewDoctorCmd(flags *Flags) *DoctorCmd {
	return &DoctorCmd{flags: flags}
}

// Register adds the doctor command to the application.
func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "doctor",
		Usage: "Check tools, config, and session files for problems",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output results as JSON",
				Destination: &cmd.jsonOut,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	checks := []doctor.Check{
		doctor.NewToolsCheck(cfg.GitPath, cfg.GhPath),
		doctor.NewConfigCheck(cfg, cmd.flags.ConfigPath),
	}

	// Session files live at the repo root; outside a repository fall
	// back to the working directory.
	root, err := os.Getwd()
	if err == nil {
		if repoRoot, rerr := cmd.flags.gitExec().RepoRoot(ctx, root); rerr == nil {
			root = repoRoot
		}
		checks = append(checks, doctor.NewSessionsCheck(root))
	}

	results := doctor.RunAll(ctx, checks)

	if cmd.jsonOut {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.Root().Writer, string(data))
	} else {
		for _, r := range results {
			fmt.Fprintf(c.Root().Writer, "%s\n", r.Name)
			for _, item := range r.Items {
				marker := map[doctor.Status]string{
					doctor.StatusPass: "ok",
					doctor.StatusWarn: "warn",
					doctor.StatusFail: "FAIL",
				}[item.Status]
				fmt.Fprintf(c.Root().Writer, "  [%s] %s", marker, item.Label)
				if item.Detail != "" {
					fmt.Fprintf(c.Root().Writer, " (%s)", item.Detail)
				}
				fmt.Fprintln(c.Root().Writer)
			}
		}
	}

	passed, warned, failed := doctor.Summary(results)
	if !cmd.jsonOut {
		fmt.Fprintf(c.Root().Writer, "\n%d passed, %d warnings, %d failed\n", passed, warned, failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}
