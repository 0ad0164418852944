package logging

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	authorKey    contextKey = "author"
)

// WithSessionID adds a review session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithAuthor adds the acting author identity to the context.
func WithAuthor(ctx context.Context, author string) context.Context {
	return context.WithValue(ctx, authorKey, author)
}

// GetSessionID retrieves the session ID from the context.
// Returns empty string if not present.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

// GetAuthor retrieves the author from the context.
// Returns empty string if not present.
func GetAuthor(ctx context.Context) string {
	if a, ok := ctx.Value(authorKey).(string); ok {
		return a
	}
	return ""
}
