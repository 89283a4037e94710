// Package cache implements the persistent result cache: a content-addressed
// store mapping job fingerprints to transcript artifacts on disk, with a
// SQLite manifest as the source of truth for sizes and access times.
//
// Entries expire by age (TTL from creation) and are evicted in
// least-recently-accessed order when the size budget is exceeded. Both are
// enforced lazily on lookup and store; there is no background sweeper.
// Lookup failures of any kind degrade to a cache miss because caching is an
// optimization, never a correctness requirement.
//
// The cache directory is self-describing: the manifest plus the objects/
// directory are all that is needed to verify artifact presence, so no
// external bookkeeping is involved. A flock on the directory prevents two
// processes from mutating the same cache.
package cache
