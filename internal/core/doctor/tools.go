package doctor

import (
	"context"
	"os/exec"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// ToolsCheck verifies that the external tools sessions shell out to are
// available.
type ToolsCheck struct {
	GitPath string
	GhPath  string
}

// NewToolsCheck creates a new tools check for the configured binaries.
func NewToolsCheck(gitPath, ghPath string) *ToolsCheck {
	return &ToolsCheck{GitPath: gitPath, GhPath: ghPath}
}

func (c *ToolsCheck) Name() string {
	return "Tools"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	// git is required
	if path, err := lookPathFunc(c.GitPath); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "git",
			Status: StatusFail,
			Detail: "not found on PATH",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "git",
			Status: StatusPass,
			Detail: path,
		})
	}

	// gh is only needed for PR sessions
	if path, err := lookPathFunc(c.GhPath); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "gh",
			Status: StatusWarn,
			Detail: "not found on PATH (required for --pr sessions)",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "gh",
			Status: StatusPass,
			Detail: path,
		})
	}

	return result
}
