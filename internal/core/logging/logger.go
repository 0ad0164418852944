package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Base attaches the context hook to a logger so session_id and author
// travel from context into every event.
func Base(logger zerolog.Logger) zerolog.Logger {
	return logger.Hook(ContextHook{})
}

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}
