// Package stage defines the pipeline collaborator interfaces and the Runner
// that drives one job through the fixed sequence download, convert,
// transcribe, translate, export. Each stage owns a fixed slice of the overall
// progress range; retryable failures are re-attempted within the same worker
// slot with exponential backoff.
package stage
