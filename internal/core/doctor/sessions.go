package doctor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hay-kot/acre/internal/core/session"
)

// SessionsCheck parses every session file at the repository root so a
// hand-edited file that no longer loads is caught before a review
// starts.
type SessionsCheck struct {
	Root string
}

// NewSessionsCheck creates a session-file check for a repository root.
func NewSessionsCheck(root string) *SessionsCheck {
	return &SessionsCheck{Root: root}
}

func (c *SessionsCheck) Name() string {
	return "Sessions"
}

func (c *SessionsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	matches, err := filepath.Glob(filepath.Join(c.Root, session.FilePrefix+"*.yaml"))
	if err != nil || len(matches) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "session files",
			Status: StatusPass,
			Detail: "none found",
		})
		return result
	}

	for _, path := range matches {
		name := filepath.Base(path)
		snap, err := session.Load(path)
		if err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  name,
				Status: StatusFail,
				Detail: err.Error(),
			})
			continue
		}
		result.Items = append(result.Items, CheckItem{
			Label:  name,
			Status: StatusPass,
			Detail: fmt.Sprintf("%d files, %d comments", len(snap.Files), len(snap.Comments())),
		})
	}
	return result
}
