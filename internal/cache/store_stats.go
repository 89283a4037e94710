package cache

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/sys/unix"
)

// Stats describes current cache usage for diagnostics and the CLI.
type Stats struct {
	Entries    int     `json:"entries"`
	TotalBytes int64   `json:"total_bytes"`
	MaxBytes   int64   `json:"max_bytes"`
	TTL        string  `json:"ttl"`
	FreeRatio  float64 `json:"free_ratio"`
	Oldest     Entry   `json:"oldest,omitempty"`
	Newest     Entry   `json:"newest,omitempty"`
}

// SizeBytes returns the total on-disk footprint recorded in the manifest.
func (s *Store) SizeBytes(ctx context.Context) (int64, error) {
	if s == nil {
		return 0, nil
	}
	ctx = ensureContext(ctx)
	var total int64
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size_bytes), 0) FROM entries`)
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// EntryCount returns the number of manifest entries.
func (s *Store) EntryCount(ctx context.Context) (int, error) {
	if s == nil {
		return 0, nil
	}
	ctx = ensureContext(ctx)
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Stats returns usage and free-space information.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if s == nil {
		return stats, nil
	}
	ctx = ensureContext(ctx)

	total, err := s.SizeBytes(ctx)
	if err != nil {
		return stats, err
	}
	count, err := s.EntryCount(ctx)
	if err != nil {
		return stats, err
	}
	stats.Entries = count
	stats.TotalBytes = total
	stats.MaxBytes = s.maxBytes
	stats.TTL = s.ttl.String()

	totalFS, freeFS, err := s.statfs(s.dir)
	if err == nil && totalFS > 0 {
		stats.FreeRatio = float64(freeFS) / float64(totalFS)
	} else {
		stats.FreeRatio = 1.0
	}

	oldest, found, err := s.oldestEntryExcept(ctx, "")
	if err != nil {
		return stats, err
	}
	if found {
		stats.Oldest = oldest
	}
	newest, found, err := s.newestEntry(ctx)
	if err != nil {
		return stats, err
	}
	if found {
		stats.Newest = newest
	}
	return stats, nil
}

func (s *Store) newestEntry(ctx context.Context) (Entry, bool, error) {
	var entry Entry
	var createdAt, lastAccess string
	row := s.db.QueryRowContext(ctx,
		`SELECT fingerprint, artifact_path, size_bytes, created_at, last_access_at
		 FROM entries ORDER BY last_access_at DESC LIMIT 1`)
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

func (s *Store) freeSpaceOK() (bool, error) {
	total, free, err := s.statfs(s.dir)
	if err != nil {
		return false, err
	}
	if total == 0 {
		return true, nil
	}
	return float64(free)/float64(total) >= freeSpaceFloor, nil
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
