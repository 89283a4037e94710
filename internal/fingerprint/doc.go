// Package fingerprint derives the content-addressed key that identifies
// interchangeable work: the hash of a job's source reference and normalized
// processing options. The cache store and the batch engine's in-batch dedup
// both key on it.
package fingerprint
