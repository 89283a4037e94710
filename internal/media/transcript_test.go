package media

import (
	"reflect"
	"testing"
)

func TestOptionsNormalize(t *testing.T) {
	opts := Options{
		Model:          "  Small ",
		TargetLanguage: "ES",
		Formats:        []string{"SRT", "json", "srt", " ", "vtt"},
	}

	got := opts.Normalize()

	if got.Model != "small" {
		t.Errorf("Model = %q, want %q", got.Model, "small")
	}
	if got.TargetLanguage != "es" {
		t.Errorf("TargetLanguage = %q, want %q", got.TargetLanguage, "es")
	}
	want := []string{"json", "srt", "vtt"}
	if !reflect.DeepEqual(got.Formats, want) {
		t.Errorf("Formats = %v, want %v", got.Formats, want)
	}
}

func TestExportSegmentsPrefersTranslation(t *testing.T) {
	original := []Segment{{Index: 1, Start: 0, End: 1, Text: "hello"}}
	translated := []Segment{{Index: 1, Start: 0, End: 1, Text: "hola"}}

	tr := Transcript{Text: "hello", Segments: original}
	if got := tr.ExportSegments(); !reflect.DeepEqual(got, original) {
		t.Errorf("without translation, ExportSegments = %v", got)
	}
	if got := tr.ExportText(); got != "hello" {
		t.Errorf("without translation, ExportText = %q", got)
	}

	tr.TranslatedSegments = translated
	tr.TranslatedText = "hola"
	if got := tr.ExportSegments(); !reflect.DeepEqual(got, translated) {
		t.Errorf("with translation, ExportSegments = %v", got)
	}
	if got := tr.ExportText(); got != "hola" {
		t.Errorf("with translation, ExportText = %q", got)
	}
}
