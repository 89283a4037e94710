package stage

import (
	"context"

	"ytscribe/internal/media"
)

// Stage names, in execution order.
const (
	NameDownload   = "download"
	NameConvert    = "convert"
	NameTranscribe = "transcribe"
	NameTranslate  = "translate"
	NameExport     = "export"
)

// Progress weight boundaries. Each stage maps its local completion onto a
// fixed slice of the overall range so aggregate progress is comparable across
// jobs regardless of which stages dominate their runtime.
var progressBounds = map[string][2]float64{
	NameDownload:   {0.0, 0.2},
	NameConvert:    {0.2, 0.3},
	NameTranscribe: {0.3, 0.7},
	NameTranslate:  {0.7, 0.9},
	NameExport:     {0.9, 1.0},
}

// Downloader fetches the audio track for a source reference and returns the
// path of the downloaded file inside the work directory.
type Downloader interface {
	Download(ctx context.Context, sourceRef string) (string, error)
}

// Converter prepares a downloaded file for inference and returns the path of
// the converted audio.
type Converter interface {
	Convert(ctx context.Context, inputPath string) (string, error)
}

// Transcriber runs speech recognition on prepared audio. The returned
// transcript carries Text, Segments, and the detected or configured Language;
// the runner fills in source and option metadata.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, model string) (*media.Transcript, error)
}

// Translator fills the transcript's translated text and segments for the
// requested target language.
type Translator interface {
	Translate(ctx context.Context, transcript *media.Transcript, targetLanguage string) error
}

// Exporter renders the transcript into the requested output formats.
type Exporter interface {
	Export(transcript *media.Transcript, formats []string) ([]media.ExportFile, error)
}

// ProgressFunc receives overall progress in [0, 1] as stages complete. It is
// called from the worker goroutine running the job and must not block.
type ProgressFunc func(stage string, overall float64)

// scaled maps a stage-local fraction onto the overall progress range.
func scaled(stage string, fraction float64) float64 {
	bounds, ok := progressBounds[stage]
	if !ok {
		return fraction
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return bounds[0] + fraction*(bounds[1]-bounds[0])
}
