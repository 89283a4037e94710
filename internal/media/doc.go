// Package media holds the shared data model passed between pipeline stages:
// transcripts, timed segments, processing options, and export records.
package media
