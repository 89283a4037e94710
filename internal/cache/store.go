package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"ytscribe/internal/config"
	"ytscribe/internal/logging"
)

const (
	objectsDirName = "objects"
	manifestName   = "manifest.db"
	lockName       = "cache.lock"

	// freeSpaceFloor is the minimum free-space ratio allowed on the cache
	// filesystem before eviction becomes more aggressive than the size budget.
	freeSpaceFloor = 0.05

	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Entry is the manifest record for one cached transcript artifact.
type Entry struct {
	Fingerprint  string
	ArtifactPath string
	SizeBytes    int64
	CreatedAt    time.Time
	LastAccessAt time.Time
}

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Store is the content-addressed result cache: a SQLite manifest beside an
// objects directory of transcript JSON files. It is the sole writer and
// deleter of cache artifacts on disk. All public methods are safe for
// concurrent use; a single store-wide mutex serializes manifest mutation,
// which is adequate at the expected contention (one call per finished job).
type Store struct {
	dir      string
	db       *sql.DB
	maxBytes int64
	ttl      time.Duration
	logger   *slog.Logger
	lock     *flock.Flock

	// Injectable for tests.
	now    func() time.Time
	statfs statfsFunc
}

// Open initializes the cache directory, takes a process-level lock on it, and
// connects to the manifest database. Returns (nil, nil) when caching is
// disabled in the configuration; callers treat a nil store as cache-off.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil || !cfg.Cache.Enabled {
		return nil, nil
	}
	dir := strings.TrimSpace(cfg.Paths.CacheDir)
	if dir == "" {
		return nil, errors.New("cache: directory not configured")
	}
	if err := os.MkdirAll(filepath.Join(dir, objectsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("cache: create objects dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("cache: acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("cache: directory %q is in use by another process", dir)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, manifestName))
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("cache: open manifest: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("cache: apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		dir:      dir,
		db:       db,
		maxBytes: cfg.CacheMaxBytes(),
		ttl:      cfg.CacheTTL(),
		logger:   logging.NewComponentLogger(logger, "cache"),
		lock:     lock,
		now:      time.Now,
		statfs:   realStatfs,
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close releases the manifest connection and the directory lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dir returns the cache root directory.
func (s *Store) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS entries (
	fingerprint    TEXT PRIMARY KEY,
	artifact_path  TEXT NOT NULL,
	size_bytes     INTEGER NOT NULL,
	created_at     TEXT NOT NULL,
	last_access_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_last_access ON entries(last_access_at);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("cache: init schema: %w", err)
	}
	return nil
}

func (s *Store) objectPath(fingerprint string) string {
	return filepath.Join(s.dir, objectsDirName, fingerprint+".json")
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
