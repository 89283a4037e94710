package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"ytscribe/internal/fileutil"
	"ytscribe/internal/logging"
	"ytscribe/internal/media"
	"ytscribe/internal/services"
)

// Lookup returns the entry for a fingerprint when it exists, has not exceeded
// its TTL, and its artifact is verified present on disk; the entry's last
// access time is bumped. A stale or orphaned entry is removed as a side
// effect and reported as a miss. Any I/O failure degrades to a miss: caching
// is a pure optimization and never fails a job.
func (s *Store) Lookup(ctx context.Context, fingerprint string) (Entry, bool) {
	if s == nil || fingerprint == "" {
		return Entry{}, false
	}
	ctx = ensureContext(ctx)

	var entry Entry
	var createdAt, lastAccess string
	row := s.db.QueryRowContext(ctx,
		`SELECT fingerprint, artifact_path, size_bytes, created_at, last_access_at FROM entries WHERE fingerprint = ?`,
		fingerprint)
	if err := row.Scan(&entry.Fingerprint, &entry.ArtifactPath, &entry.SizeBytes, &createdAt, &lastAccess); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("cache lookup failed; treating as miss",
				logging.Error(err),
				logging.String(logging.FieldEventType, "cache_lookup_failed"),
				logging.String(logging.FieldFingerprint, fingerprint))
		}
		return Entry{}, false
	}
	entry.CreatedAt = parseTime(createdAt)
	entry.LastAccessAt = parseTime(lastAccess)

	// TTL is measured from creation, not last access.
	if s.ttl > 0 && s.now().Sub(entry.CreatedAt) > s.ttl {
		s.remove(ctx, entry, "expired")
		return Entry{}, false
	}
	if _, err := os.Stat(entry.ArtifactPath); err != nil {
		s.remove(ctx, entry, "artifact missing")
		return Entry{}, false
	}

	entry.LastAccessAt = s.now()
	if err := s.execWithRetry(ctx,
		`UPDATE entries SET last_access_at = ? WHERE fingerprint = ?`,
		formatTime(entry.LastAccessAt), fingerprint); err != nil {
		s.logger.Warn("cache access-time update failed",
			logging.Error(err),
			logging.String(logging.FieldFingerprint, fingerprint))
	}

	s.logger.Debug("cache hit",
		logging.String(logging.FieldFingerprint, fingerprint),
		logging.Int64("size_bytes", entry.SizeBytes))
	return entry, true
}

// ReadArtifact decodes the transcript stored for an entry.
func (s *Store) ReadArtifact(entry Entry) (*media.Transcript, error) {
	if s == nil {
		return nil, errors.New("cache: store not configured")
	}
	data, err := os.ReadFile(entry.ArtifactPath)
	if err != nil {
		return nil, services.Wrap(services.ErrCacheIO, "cache", "read artifact", entry.Fingerprint, err)
	}
	var transcript media.Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, services.Wrap(services.ErrCacheIO, "cache", "decode artifact", entry.Fingerprint, err)
	}
	return &transcript, nil
}

// Store persists a transcript artifact for a fingerprint, replacing any prior
// entry atomically, then enforces the size budget by evicting entries in
// least-recently-accessed order (never the just-inserted one). Errors are
// reported to the caller but must not fail the job that produced the
// artifact; the result remains available in memory.
func (s *Store) Store(ctx context.Context, fingerprint string, transcript *media.Transcript) (Entry, error) {
	if s == nil {
		return Entry{}, errors.New("cache: store not configured")
	}
	if fingerprint == "" {
		return Entry{}, errors.New("cache: fingerprint required")
	}
	if transcript == nil {
		return Entry{}, errors.New("cache: transcript required")
	}
	ctx = ensureContext(ctx)

	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return Entry{}, services.Wrap(services.ErrCacheIO, "cache", "encode artifact", fingerprint, err)
	}

	dest := s.objectPath(fingerprint)
	if err := fileutil.WriteAtomic(dest, data, 0o644); err != nil {
		return Entry{}, services.Wrap(services.ErrCacheIO, "cache", "write artifact", fingerprint, err)
	}

	now := s.now()
	entry := Entry{
		Fingerprint:  fingerprint,
		ArtifactPath: dest,
		SizeBytes:    int64(len(data)),
		CreatedAt:    now,
		LastAccessAt: now,
	}
	if err := s.execWithRetry(ctx,
		`INSERT INTO entries (fingerprint, artifact_path, size_bytes, created_at, last_access_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET
		   artifact_path = excluded.artifact_path,
		   size_bytes = excluded.size_bytes,
		   created_at = excluded.created_at,
		   last_access_at = excluded.last_access_at`,
		fingerprint, dest, entry.SizeBytes, formatTime(now), formatTime(now)); err != nil {
		// The artifact file exists but is untracked; remove it so the
		// directory stays consistent with the manifest.
		_ = os.Remove(dest)
		return Entry{}, services.Wrap(services.ErrCacheIO, "cache", "record entry", fingerprint, err)
	}

	if err := s.enforceBudget(ctx, fingerprint); err != nil {
		s.logger.Warn("cache eviction incomplete",
			logging.Error(err),
			logging.String(logging.FieldEventType, "cache_evict_failed"),
			logging.String(logging.FieldErrorHint, "cache may exceed its size budget until the next store"))
	}

	s.logger.Debug("stored cache entry",
		logging.String(logging.FieldFingerprint, fingerprint),
		logging.Int64("size_bytes", entry.SizeBytes))
	return entry, nil
}

// Invalidate removes an entry unconditionally; used when a job requests fresh
// processing. Removing an absent fingerprint is not an error.
func (s *Store) Invalidate(ctx context.Context, fingerprint string) error {
	if s == nil || fingerprint == "" {
		return nil
	}
	ctx = ensureContext(ctx)
	if err := os.Remove(s.objectPath(fingerprint)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrCacheIO, "cache", "remove artifact", fingerprint, err)
	}
	if err := s.execWithRetry(ctx, `DELETE FROM entries WHERE fingerprint = ?`, fingerprint); err != nil {
		return services.Wrap(services.ErrCacheIO, "cache", "remove entry", fingerprint, err)
	}
	return nil
}

// Clear removes every entry and artifact.
func (s *Store) Clear(ctx context.Context) error {
	if s == nil {
		return nil
	}
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT fingerprint, artifact_path FROM entries`)
	if err != nil {
		return services.Wrap(services.ErrCacheIO, "cache", "list entries", "", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var fingerprint, path string
		if err := rows.Scan(&fingerprint, &path); err != nil {
			return services.Wrap(services.ErrCacheIO, "cache", "scan entry", "", err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return services.Wrap(services.ErrCacheIO, "cache", "iterate entries", "", err)
	}

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrCacheIO, "cache", "remove artifact", path, err)
		}
	}
	if err := s.execWithRetry(ctx, `DELETE FROM entries`); err != nil {
		return services.Wrap(services.ErrCacheIO, "cache", "clear manifest", "", err)
	}
	return nil
}

// remove deletes a single entry and its artifact, logging rather than
// propagating failures: it only runs on the lookup path, where errors
// degrade to a miss.
func (s *Store) remove(ctx context.Context, entry Entry, reason string) {
	if err := os.Remove(entry.ArtifactPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove stale cache artifact",
			logging.Error(err),
			logging.String(logging.FieldFingerprint, entry.Fingerprint))
	}
	if err := s.execWithRetry(ctx, `DELETE FROM entries WHERE fingerprint = ?`, entry.Fingerprint); err != nil {
		s.logger.Warn("failed to remove stale cache entry",
			logging.Error(err),
			logging.String(logging.FieldFingerprint, entry.Fingerprint))
		return
	}
	s.logger.Debug("removed cache entry",
		logging.String(logging.FieldFingerprint, entry.Fingerprint),
		logging.String("reason", reason))
}

// enforceBudget evicts least-recently-accessed entries until total size fits
// the budget and the filesystem keeps a minimum free-space ratio. The entry
// named by keep survives even when it alone exceeds the budget.
func (s *Store) enforceBudget(ctx context.Context, keep string) error {
	for {
		total, err := s.SizeBytes(ctx)
		if err != nil {
			return err
		}
		overBudget := s.maxBytes > 0 && total > s.maxBytes
		if !overBudget {
			ok, err := s.freeSpaceOK()
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}

		victim, found, err := s.oldestEntryExcept(ctx, keep)
		if err != nil {
			return err
		}
		if !found {
			if overBudget {
				s.logger.Warn("cache over budget but only the newest entry remains",
					logging.String(logging.FieldFingerprint, keep),
					logging.Int64("total_bytes", total),
					logging.Int64("max_bytes", s.maxBytes))
			}
			return nil
		}

		if err := os.Remove(victim.ArtifactPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove evicted artifact: %w", err)
		}
		if err := s.execWithRetry(ctx, `DELETE FROM entries WHERE fingerprint = ?`, victim.Fingerprint); err != nil {
			return fmt.Errorf("remove evicted entry: %w", err)
		}
		s.logger.Info("evicted cache entry",
			logging.String(logging.FieldEventType, "cache_evicted"),
			logging.String(logging.FieldFingerprint, victim.Fingerprint),
			logging.Int64("size_bytes", victim.SizeBytes))
	}
}

func (s *Store) oldestEntryExcept(ctx context.Context, keep string) (Entry, bool, error) {
	var entry Entry
	var createdAt, lastAccess string
	row := s.db.QueryRowContext(ctx,
		`SELECT fingerprint, artifact_path, size_bytes, created_at, last_access_at
		 FROM entries WHERE fingerprint != ?
		 ORDER BY last_access_at ASC LIMIT 1`, keep)
	if err := row.Scan(&entry.Fingerprint, &entry.ArtifactPath, &entry.SizeBytes, &createdAt, &lastAccess); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	entry.CreatedAt = parseTime(createdAt)
	entry.LastAccessAt = parseTime(lastAccess)
	return entry, true, nil
}
