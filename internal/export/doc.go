// Package export renders finished transcripts into their on-disk output
// formats: SubRip (.srt), WebVTT (.vtt), plain text (.txt), and the full
// transcript document as JSON. When a transcript carries a translation the
// translated text and segments are exported; otherwise the source language is
// used.
package export
