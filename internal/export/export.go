package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ytscribe/internal/fileutil"
	"ytscribe/internal/logging"
	"ytscribe/internal/media"
	"ytscribe/internal/services"
	"ytscribe/internal/stage"
)

// Supported output formats.
const (
	FormatSRT  = "srt"
	FormatVTT  = "vtt"
	FormatTXT  = "txt"
	FormatJSON = "json"
)

var supportedFormats = map[string]bool{
	FormatSRT:  true,
	FormatVTT:  true,
	FormatTXT:  true,
	FormatJSON: true,
}

// SupportedFormats lists the accepted format names in stable order.
func SupportedFormats() []string {
	names := make([]string, 0, len(supportedFormats))
	for name := range supportedFormats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateFormats rejects unknown format names.
func ValidateFormats(formats []string) error {
	for _, format := range formats {
		if !supportedFormats[strings.ToLower(strings.TrimSpace(format))] {
			return fmt.Errorf("unsupported export format %q (supported: %s)",
				format, strings.Join(SupportedFormats(), ", "))
		}
	}
	return nil
}

// Writer renders transcripts into subtitle and text files under an output
// directory. File names are derived from the source video ID so repeated runs
// overwrite rather than accumulate.
type Writer struct {
	dir    string
	logger *slog.Logger
}

func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "export"),
	}
}

var _ stage.Exporter = (*Writer)(nil)

// Export renders the transcript in each requested format and returns the
// resulting files. The formats slice is assumed normalized (lowercase,
// deduplicated); unknown formats are an error before any file is written.
func (w *Writer) Export(transcript *media.Transcript, formats []string) ([]media.ExportFile, error) {
	if transcript == nil {
		return nil, services.Wrap(services.ErrExport, "export", "write", "transcript required", nil)
	}
	if len(formats) == 0 {
		formats = []string{FormatSRT}
	}
	if err := ValidateFormats(formats); err != nil {
		return nil, services.Wrap(services.ErrExport, "export", "write", err.Error(), nil)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrExport, "export", "create output dir", w.dir, err)
	}

	base := filepath.Join(w.dir, baseName(transcript.SourceRef))
	segments := transcript.ExportSegments()
	text := transcript.ExportText()

	files := make([]media.ExportFile, 0, len(formats))
	for _, format := range formats {
		path := base + "." + format
		var data []byte
		switch format {
		case FormatSRT:
			data = []byte(formatSRT(segments))
		case FormatVTT:
			data = []byte(formatVTT(segments))
		case FormatTXT:
			data = []byte(text)
		case FormatJSON:
			encoded, err := json.MarshalIndent(transcript, "", "  ")
			if err != nil {
				return files, services.Wrap(services.ErrExport, "export", "encode json", path, err)
			}
			data = encoded
		}
		if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
			return files, services.Wrap(services.ErrExport, "export", "write file", path, err)
		}
		files = append(files, media.ExportFile{Format: format, Path: path})
		w.logger.Debug("wrote export file",
			logging.String("format", format),
			logging.String("path", path),
			logging.Int("bytes", len(data)))
	}
	return files, nil
}

// baseName derives a filesystem-safe stem from a video reference. Watch URLs
// use the v= query value, short and embed URLs use the trailing path element,
// and anything else falls back to a sanitized form of the whole reference.
func baseName(sourceRef string) string {
	id := sourceRef
	if idx := strings.Index(sourceRef, "v="); idx >= 0 {
		id = sourceRef[idx+len("v="):]
		if amp := strings.IndexByte(id, '&'); amp >= 0 {
			id = id[:amp]
		}
	} else if idx := strings.LastIndexByte(sourceRef, '/'); idx >= 0 {
		id = sourceRef[idx+1:]
		if q := strings.IndexByte(id, '?'); q >= 0 {
			id = id[:q]
		}
	}
	id = sanitize(id)
	if id == "" {
		id = "video"
	}
	return "yt_" + id
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}
