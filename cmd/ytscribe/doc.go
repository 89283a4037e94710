// Command ytscribe is the batch transcription CLI: it downloads videos,
// transcribes them locally, optionally translates the result, exports
// subtitle files, and keeps finished transcripts in an on-disk cache.
package main
