package fingerprint

import (
	"testing"

	"ytscribe/internal/media"
)

func TestComputeDeterministic(t *testing.T) {
	opts := media.Options{Model: "small", TargetLanguage: "es", Formats: []string{"srt", "txt"}}

	a := Compute("https://youtu.be/abc123", opts)
	b := Compute("https://youtu.be/abc123", opts)

	if a != b {
		t.Fatalf("fingerprint not stable: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected sha256 hex length 64, got %d", len(a))
	}
}

func TestComputeIgnoresOptionOrderingAndCase(t *testing.T) {
	a := Compute("https://youtu.be/abc123", media.Options{
		Model: "Small", TargetLanguage: "ES", Formats: []string{"txt", "SRT"},
	})
	b := Compute("https://youtu.be/abc123", media.Options{
		Model: "small", TargetLanguage: "es", Formats: []string{"srt", "txt"},
	})

	if a != b {
		t.Error("normalized-equal options must fingerprint identically")
	}
}

func TestComputeDistinguishesInputs(t *testing.T) {
	base := media.Options{Model: "small", Formats: []string{"srt"}}

	ref := Compute("https://youtu.be/abc123", base)

	if Compute("https://youtu.be/xyz789", base) == ref {
		t.Error("different source refs must differ")
	}
	if Compute("https://youtu.be/abc123", media.Options{Model: "large-v3", Formats: []string{"srt"}}) == ref {
		t.Error("different models must differ")
	}
	if Compute("https://youtu.be/abc123", media.Options{Model: "small", TargetLanguage: "de", Formats: []string{"srt"}}) == ref {
		t.Error("different target languages must differ")
	}
	if Compute("https://youtu.be/abc123", media.Options{Model: "small", Formats: []string{"vtt"}}) == ref {
		t.Error("different formats must differ")
	}
}

func TestComputeIgnoresFresh(t *testing.T) {
	opts := media.Options{Model: "small", Formats: []string{"srt"}}
	fresh := opts
	fresh.Fresh = true

	if Compute("https://youtu.be/abc123", opts) != Compute("https://youtu.be/abc123", fresh) {
		t.Error("cache-bypass flag must not change the fingerprint")
	}
}
