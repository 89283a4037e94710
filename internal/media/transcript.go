package media

import (
	"sort"
	"strings"
	"time"
)

// Segment is one timed span of recognized speech. Start and End are offsets
// from the beginning of the media in seconds.
type Segment struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the final pipeline artifact and the cache payload: the
// recognized (and optionally translated) segments plus enough metadata to
// re-export without re-running inference.
type Transcript struct {
	SourceRef          string    `json:"source_ref"`
	Model              string    `json:"model"`
	Language           string    `json:"language,omitempty"`
	TargetLanguage     string    `json:"target_language,omitempty"`
	Text               string    `json:"text"`
	Segments           []Segment `json:"segments"`
	TranslatedText     string    `json:"translated_text,omitempty"`
	TranslatedSegments []Segment `json:"translated_segments,omitempty"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// ExportSegments returns the segments that should feed exporters: translated
// segments when a translation was produced, the originals otherwise.
func (t *Transcript) ExportSegments() []Segment {
	if len(t.TranslatedSegments) > 0 {
		return t.TranslatedSegments
	}
	return t.Segments
}

// ExportText returns the plain text matching ExportSegments.
func (t *Transcript) ExportText() string {
	if strings.TrimSpace(t.TranslatedText) != "" {
		return t.TranslatedText
	}
	return t.Text
}

// Options are the immutable processing parameters attached to a job. Two jobs
// with identical source and options are interchangeable work.
type Options struct {
	// Model selects the speech-to-text model size (e.g. "small", "large-v3").
	Model string
	// TargetLanguage, when set, requests translation of the transcript.
	TargetLanguage string
	// Formats lists the requested export formats (srt, vtt, txt, json).
	Formats []string
	// Fresh bypasses the cache: any existing entry for the fingerprint is
	// invalidated before processing. Fresh does not participate in the
	// fingerprint because it does not change what is produced.
	Fresh bool
}

// Normalize returns a copy with trimmed, lowercased, sorted, deduplicated
// fields so equivalent option sets compare and fingerprint identically.
func (o Options) Normalize() Options {
	out := Options{
		Model:          strings.ToLower(strings.TrimSpace(o.Model)),
		TargetLanguage: strings.ToLower(strings.TrimSpace(o.TargetLanguage)),
		Fresh:          o.Fresh,
	}
	seen := make(map[string]struct{}, len(o.Formats))
	for _, format := range o.Formats {
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			continue
		}
		if _, ok := seen[format]; ok {
			continue
		}
		seen[format] = struct{}{}
		out.Formats = append(out.Formats, format)
	}
	sort.Strings(out.Formats)
	return out
}

// ExportFile records one produced output file.
type ExportFile struct {
	Format string `json:"format"`
	Path   string `json:"path"`
}
