// Package services defines the failure taxonomy shared by all pipeline
// collaborators and the context keys used to thread job/stage identity into
// structured logs.
//
// Every external call site wraps its errors with one of the sentinel markers
// (ErrNetwork, ErrNotFound, ErrResource, ErrInference, ErrExport, ErrCacheIO)
// so the batch engine can classify failures without knowing which collaborator
// produced them. IsRetryable is the single authority on retry eligibility.
package services
