// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"
)

// CommentText validates that comment or response text is non-empty
// after trimming whitespace.
func CommentText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is required")
	}
	return nil
}

// CommentTextField returns a criterio validator for comment text.
func CommentTextField(field, text string) error {
	return criterio.Run(field, text, CommentText)
}
