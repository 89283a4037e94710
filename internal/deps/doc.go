// Package deps verifies that the external binaries the pipeline shells out
// to are installed and resolvable before any job runs.
package deps
