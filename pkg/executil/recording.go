package executil

import (
	"context"
	"strings"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Dir  string
	Cmd  string
	Args []string
}

// RecordingExecutor captures commands for testing.
// Configure Outputs and Errors maps to control return values.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	// Outputs maps commands to their output. Lookup tries the most
	// specific key first: the full command line ("git config --get
	// user.name"), then command plus subcommand ("git config"), then
	// the bare command name ("git").
	Outputs map[string][]byte

	// Errors maps commands to their error, with the same key lookup
	// as Outputs.
	Errors map[string]error
}

// Run records the command and returns configured output/error.
func (e *RecordingExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	return e.record("", cmd, args...)
}

// RunDir records the command with directory and returns configured output/error.
func (e *RecordingExecutor) RunDir(ctx context.Context, dir, cmd string, args ...string) ([]byte, error) {
	return e.record(dir, cmd, args...)
}

func (e *RecordingExecutor) record(dir, cmd string, args ...string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, RecordedCommand{
		Dir:  dir,
		Cmd:  cmd,
		Args: args,
	})

	keys := []string{cmd}
	if len(args) > 0 {
		keys = append(keys, cmd+" "+args[0], cmd+" "+strings.Join(args, " "))
	}

	var out []byte
	var err error
	for i := len(keys) - 1; i >= 0; i-- {
		if e.Outputs != nil && out == nil {
			out = e.Outputs[keys[i]]
		}
		if e.Errors != nil && err == nil {
			err = e.Errors[keys[i]]
		}
	}
	return out, err
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}
