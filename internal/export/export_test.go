package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytscribe/internal/logging"
	"ytscribe/internal/media"
	"ytscribe/internal/stage"
)

func testTranscript() *media.Transcript {
	return &media.Transcript{
		SourceRef: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Model:     "small",
		Language:  "en",
		Text:      "Hello there. General Kenobi.",
		Segments: []media.Segment{
			{Index: 1, Start: 0, End: 1.5, Text: "Hello there."},
			{Index: 2, Start: 1.5, End: 3.25, Text: "General Kenobi."},
		},
	}
}

func TestFormatSRT(t *testing.T) {
	got := formatSRT(testTranscript().Segments)
	want := "1\n" +
		"00:00:00,000 --> 00:00:01,500\n" +
		"Hello there.\n\n" +
		"2\n" +
		"00:00:01,500 --> 00:00:03,250\n" +
		"General Kenobi.\n\n"
	if got != want {
		t.Errorf("srt output:\n%q\nwant:\n%q", got, want)
	}
}

func TestFormatVTT(t *testing.T) {
	got := formatVTT(testTranscript().Segments)
	if !strings.HasPrefix(got, "WEBVTT\n\n") {
		t.Fatalf("vtt output missing header: %q", got)
	}
	if !strings.Contains(got, "00:00:01.500 --> 00:00:03.250\n") {
		t.Errorf("vtt should use period millisecond separator: %q", got)
	}
}

func TestTimestampSplitting(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{59.999, "00:00:59,999"},
		{61.25, "00:01:01,250"},
		{3661.001, "01:01:01,001"},
		{-5, "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := srtTimestamp(tc.seconds); got != tc.want {
			t.Errorf("srtTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	cases := []struct {
		ref  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "yt_dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=abc123&t=42s", "yt_abc123"},
		{"https://youtu.be/xyz789", "yt_xyz789"},
		{"https://youtu.be/xyz789?si=tracking", "yt_xyz789"},
		{"plain-id", "yt_plain-id"},
		{"weird/../id", "yt_id"},
	}
	for _, tc := range cases {
		if got := baseName(tc.ref); got != tc.want {
			t.Errorf("baseName(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestWriterWritesRequestedFormats(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, logging.NewNop())

	files, err := writer.Export(testTranscript(), []string{"srt", "txt", "json", "vtt"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("file count = %d, want 4", len(files))
	}
	for _, file := range files {
		if filepath.Dir(file.Path) != dir {
			t.Errorf("file %q not in output dir", file.Path)
		}
		if _, err := os.Stat(file.Path); err != nil {
			t.Errorf("missing output file %q: %v", file.Path, err)
		}
	}

	txt, err := os.ReadFile(filepath.Join(dir, "yt_dQw4w9WgXcQ.txt"))
	if err != nil {
		t.Fatalf("read txt: %v", err)
	}
	if string(txt) != "Hello there. General Kenobi." {
		t.Errorf("txt content = %q", string(txt))
	}

	raw, err := os.ReadFile(filepath.Join(dir, "yt_dQw4w9WgXcQ.json"))
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var decoded media.Transcript
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded.Model != "small" || len(decoded.Segments) != 2 {
		t.Errorf("json round trip lost data: %+v", decoded)
	}
}

func TestWriterPrefersTranslation(t *testing.T) {
	transcript := testTranscript()
	transcript.TargetLanguage = "es"
	transcript.TranslatedText = "Hola. General Kenobi."
	transcript.TranslatedSegments = []media.Segment{
		{Index: 1, Start: 0, End: 1.5, Text: "Hola."},
		{Index: 2, Start: 1.5, End: 3.25, Text: "General Kenobi."},
	}

	dir := t.TempDir()
	writer := NewWriter(dir, logging.NewNop())
	if _, err := writer.Export(transcript, []string{"srt", "txt"}); err != nil {
		t.Fatalf("Export: %v", err)
	}

	srt, _ := os.ReadFile(filepath.Join(dir, "yt_dQw4w9WgXcQ.srt"))
	if !strings.Contains(string(srt), "Hola.") {
		t.Error("srt should carry translated segments")
	}
	txt, _ := os.ReadFile(filepath.Join(dir, "yt_dQw4w9WgXcQ.txt"))
	if string(txt) != "Hola. General Kenobi." {
		t.Errorf("txt = %q, want translated text", string(txt))
	}
}

func TestWriterDefaultsToSRT(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, logging.NewNop())
	files, err := writer.Export(testTranscript(), nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(files) != 1 || files[0].Format != FormatSRT {
		t.Errorf("default export = %+v, want single srt", files)
	}
}

func TestWriterExportsThroughStageInterface(t *testing.T) {
	dir := t.TempDir()
	var exporter stage.Exporter = NewWriter(dir, logging.NewNop())

	files, err := exporter.Export(testTranscript(), []string{"srt"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}
	if _, err := os.Stat(files[0].Path); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
}

func TestWriterRejectsUnknownFormat(t *testing.T) {
	writer := NewWriter(t.TempDir(), logging.NewNop())
	if _, err := writer.Export(testTranscript(), []string{"docx"}); err == nil {
		t.Error("unknown format should error")
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"srt", "VTT", " json "}); err != nil {
		t.Errorf("mixed-case formats should validate: %v", err)
	}
	if err := ValidateFormats([]string{"pdf"}); err == nil {
		t.Error("pdf should be rejected")
	}
}
