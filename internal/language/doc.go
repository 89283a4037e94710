// Package language normalizes user-supplied language identifiers (codes,
// BCP-47 tags, English names) to the base ISO 639 codes used across the
// pipeline, and renders display names for reports.
package language
