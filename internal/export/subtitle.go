package export

import (
	"fmt"
	"strings"

	"ytscribe/internal/media"
)

// formatSRT renders segments as SubRip text. Cues are numbered from one and
// timestamps use comma-separated milliseconds per the SRT convention.
func formatSRT(segments []media.Segment) string {
	var b strings.Builder
	for i, segment := range segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", srtTimestamp(segment.Start), srtTimestamp(segment.End))
		b.WriteString(strings.TrimSpace(segment.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// formatVTT renders segments as WebVTT. Unlike SRT the millisecond separator
// is a period and the file opens with a WEBVTT header line.
func formatVTT(segments []media.Segment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, segment := range segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", vttTimestamp(segment.Start), vttTimestamp(segment.End))
		b.WriteString(strings.TrimSpace(segment.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

func srtTimestamp(seconds float64) string {
	h, m, s, ms := splitTimestamp(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func vttTimestamp(seconds float64) string {
	h, m, s, ms := splitTimestamp(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func splitTimestamp(seconds float64) (h, m, s, ms int) {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int(seconds*1000 + 0.5)
	ms = totalMillis % 1000
	totalSeconds := totalMillis / 1000
	s = totalSeconds % 60
	m = (totalSeconds / 60) % 60
	h = totalSeconds / 3600
	return h, m, s, ms
}
