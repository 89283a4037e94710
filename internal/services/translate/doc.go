// Package translate calls an OpenAI-compatible chat completion API to
// translate transcripts. Segments are translated in fixed-size chunks with a
// strict line-per-line contract so translated subtitles keep their original
// timing.
package translate
