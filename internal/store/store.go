// Package store handles SQLite persistence of combo counters.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/verte-zerg/kero/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const (
	// DefaultTable is the table holding combo counters.
	DefaultTable = "keyboard"
	// DefaultBackupSuffix is appended to the store path for backups.
	DefaultBackupSuffix = ".backup"

	memoryPath = ":memory:"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config describes where and how combo counters are stored.
type Config struct {
	Path         string
	Table        string
	BackupSuffix string
}

func (c Config) withDefaults() Config {
	if c.Table == "" {
		c.Table = DefaultTable
	}
	if c.BackupSuffix == "" {
		c.BackupSuffix = DefaultBackupSuffix
	}
	return c
}

// BackupPath returns the sibling path used by Clear for backups.
func (c Config) BackupPath() string {
	c = c.withDefaults()
	return c.Path + c.BackupSuffix
}

func (c Config) inMemory() bool {
	return c.Path == memoryPath
}

// Store wraps a single SQLite connection guarded by a mutex.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	cfg Config
}

// ClearResult reports what Clear did.
type ClearResult struct {
	// BackupPath is set when a backup was written.
	BackupPath string
	// BackupSkipped is true when a backup was requested but no store file existed.
	BackupSkipped bool
	// Removed is the number of deleted rows.
	Removed int64
}

// BackedUp reports whether a backup file was written.
func (r ClearResult) BackedUp() bool {
	return r.BackupPath != ""
}

// Totals summarises the stored counters.
type Totals struct {
	Distinct int64
	Presses  int64
}

// Open opens or creates the SQLite database and ensures the table exists.
func Open(cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()
	if cfg.Path == "" {
		return nil, newError(ErrOpen, cfg.Path, fmt.Errorf("store path is empty"))
	}
	if !identRe.MatchString(cfg.Table) {
		return nil, newError(ErrOpen, cfg.Path, fmt.Errorf("invalid table name %q", cfg.Table))
	}
	if !cfg.inMemory() {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, newError(ErrOpen, cfg.Path, err)
		}
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, newError(ErrOpen, cfg.Path, err)
	}
	// One physical connection; an in-memory database also lives only as long
	// as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db, cfg: cfg}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, newError(ErrOpen, cfg.Path, err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Config returns the resolved store configuration.
func (s *Store) Config() Config {
	return s.cfg
}

func (s *Store) migrate() error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			keys TEXT NOT NULL UNIQUE,
			single INTEGER NOT NULL,
			press_times INTEGER NOT NULL CHECK (press_times >= 1)
		);`, s.cfg.Table),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_keys ON %[1]s(keys);`, s.cfg.Table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Upsert records one occurrence of the snapshot's combo. The lookup and
// the increment are a single statement executed under the store lock.
func (s *Store) Upsert(ctx context.Context, snap model.ComboSnapshot) error {
	if snap.Empty() || snap.Keys == "" {
		return newError(ErrWrite, s.cfg.Path, fmt.Errorf("empty combo snapshot"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (keys, single, press_times)
		VALUES (?, ?, 1)
		ON CONFLICT(keys) DO UPDATE SET press_times = press_times + 1`, s.cfg.Table),
		snap.Keys, snap.Single)
	if err != nil {
		return newError(ErrWrite, s.cfg.Path, fmt.Errorf("upsert %q: %w", snap.Keys, err))
	}
	return nil
}

// Query returns records matching the filter, most pressed first and ties
// ordered by key string.
func (s *Store) Query(ctx context.Context, filter model.Filter) ([]model.ComboRecord, error) {
	where := ""
	args := []any{}
	switch filter {
	case model.FilterSingle:
		where = "WHERE single = ?"
		args = append(args, true)
	case model.FilterCombo:
		where = "WHERE single = ?"
		args = append(args, false)
	}
	query := fmt.Sprintf(`SELECT keys, single, press_times
		FROM %s
		%s
		ORDER BY press_times DESC, keys ASC`, s.cfg.Table, where)

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newError(ErrQuery, s.cfg.Path, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ComboRecord
	for rows.Next() {
		var rec model.ComboRecord
		if err := rows.Scan(&rec.Keys, &rec.Single, &rec.PressTimes); err != nil {
			return nil, newError(ErrQuery, s.cfg.Path, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(ErrQuery, s.cfg.Path, err)
	}
	return result, nil
}

// Totals returns the number of distinct combos and the sum of their presses.
func (s *Store) Totals(ctx context.Context, filter model.Filter) (Totals, error) {
	where := ""
	args := []any{}
	if filter != model.FilterAll {
		where = "WHERE single = ?"
		args = append(args, filter == model.FilterSingle)
	}
	query := fmt.Sprintf(`SELECT COUNT(*), COALESCE(SUM(press_times), 0) FROM %s %s`, s.cfg.Table, where)

	s.mu.Lock()
	defer s.mu.Unlock()

	var totals Totals
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&totals.Distinct, &totals.Presses); err != nil {
		return Totals{}, newError(ErrQuery, s.cfg.Path, err)
	}
	return totals, nil
}

// Clear deletes every record, keeping the schema. With withBackup the store
// file is first copied to its backup path; a missing file skips the backup.
// A failed backup leaves the records untouched.
func (s *Store) Clear(ctx context.Context, withBackup bool) (ClearResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result ClearResult
	if withBackup {
		backupPath, err := s.backupLocked()
		if err != nil {
			return ClearResult{}, err
		}
		if backupPath == "" {
			result.BackupSkipped = true
		}
		result.BackupPath = backupPath
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.cfg.Table))
	if err != nil {
		return ClearResult{}, newError(ErrWrite, s.cfg.Path, fmt.Errorf("clear: %w", err))
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return ClearResult{}, newError(ErrWrite, s.cfg.Path, err)
	}
	result.Removed = removed
	return result, nil
}

// backupLocked copies the store file to its backup path. It returns an empty
// path when there is no file to copy. Callers hold s.mu.
func (s *Store) backupLocked() (string, error) {
	if s.cfg.inMemory() {
		return "", nil
	}
	info, err := os.Stat(s.cfg.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", newError(ErrBackup, s.cfg.Path, err)
	}
	if !info.Mode().IsRegular() {
		return "", newError(ErrBackup, s.cfg.Path, fmt.Errorf("store path is not a regular file"))
	}
	dest := s.cfg.BackupPath()
	if err := copyFile(s.cfg.Path, dest); err != nil {
		return "", newError(ErrBackup, dest, err)
	}
	return dest, nil
}

// ClearPath clears the store described by cfg without creating it when the
// file does not exist yet.
func ClearPath(ctx context.Context, cfg Config, withBackup bool) (ClearResult, error) {
	cfg = cfg.withDefaults()
	if !cfg.inMemory() {
		if _, err := os.Stat(cfg.Path); err != nil {
			if os.IsNotExist(err) {
				return ClearResult{BackupSkipped: withBackup}, nil
			}
			return ClearResult{}, newError(ErrOpen, cfg.Path, err)
		}
	}
	st, err := Open(cfg)
	if err != nil {
		return ClearResult{}, err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			// Best-effort close after clear.
			_ = cerr
		}
	}()
	return st.Clear(ctx, withBackup)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			// Best-effort close for read-only source.
			_ = cerr
		}
	}()

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, dest)
}
