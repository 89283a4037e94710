// Package config loads, normalizes, and validates the TOML configuration
// file. Configuration is read once at startup and passed to constructors as
// an immutable value; nothing reads ambient global state at call time.
package config
