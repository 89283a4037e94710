package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"ytscribe/internal/media"
)

// version is folded into the hash so the key space can be rotated if the
// canonical encoding ever changes.
const version = "v1"

// Compute derives the deterministic job key from a source reference and its
// processing options. Equal inputs always produce equal fingerprints,
// independent of option ordering, whitespace, or letter case.
func Compute(sourceRef string, opts media.Options) string {
	opts = opts.Normalize()

	var b strings.Builder
	b.WriteString(version)
	b.WriteByte('|')
	b.WriteString(strings.TrimSpace(sourceRef))
	b.WriteString("|model=")
	b.WriteString(opts.Model)
	b.WriteString("|target=")
	b.WriteString(opts.TargetLanguage)
	b.WriteString("|formats=")
	b.WriteString(strings.Join(opts.Formats, ","))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
