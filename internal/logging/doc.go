// Package logging wraps log/slog with the repository's structured logging
// conventions: a console handler for interactive use, a JSON handler for
// machine consumption, component-scoped child loggers, and context-derived
// job/stage/batch fields so every record from a worker can be correlated.
package logging
