// Package ytdlp wraps the yt-dlp command line tool as the pipeline's
// download stage. Errors are classified into the shared taxonomy so the
// runner retries transient network failures but not unavailable videos.
package ytdlp
