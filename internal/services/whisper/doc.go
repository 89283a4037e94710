// Package whisper drives local speech recognition: ffmpeg converts the
// downloaded audio into the mono 16 kHz WAV layout whisper expects, then the
// whisper CLI produces a JSON result that is parsed into transcript segments.
package whisper
