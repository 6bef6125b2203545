package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a day key has no entry, or the store is empty.
var ErrNotFound = errors.New("not found")

// MutateFunc receives the current entry for a day (a fresh empty entry when
// found is false) and edits it in place. Returning write=false leaves the
// store untouched. It may be called more than once if the backend retries.
type MutateFunc func(entry *DailyEntry, found bool) (write bool, err error)

// Store is the daily aggregate store. Day keys use DayLayout.
type Store interface {
	// Get returns the entry for day, or ErrNotFound.
	Get(ctx context.Context, day string) (*DailyEntry, error)
	// Range returns entries with from <= date <= to, ascending by date.
	// An empty bound is open.
	Range(ctx context.Context, from, to string) ([]DailyEntry, error)
	// Earliest returns the entry with the smallest date, or ErrNotFound.
	Earliest(ctx context.Context) (*DailyEntry, error)
	// Upsert inserts or replaces the entry for entry.Date.
	Upsert(ctx context.Context, entry *DailyEntry) error
	// Mutate performs an atomic read-modify-write on a single day.
	Mutate(ctx context.Context, day string, fn MutateFunc) error
	Close() error
}

const entryColumns = `date, projects, languages, relative_files, hourly, total_minutes, last_timestamp`

const upsertEntrySQL = `
	INSERT INTO daily_entries (` + entryColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(date) DO UPDATE SET
		projects       = excluded.projects,
		languages      = excluded.languages,
		relative_files = excluded.relative_files,
		hourly         = excluded.hourly,
		total_minutes  = excluded.total_minutes,
		last_timestamp = excluded.last_timestamp,
		updated_at     = CURRENT_TIMESTAMP
`

const selectEntrySQL = `SELECT ` + entryColumns + ` FROM daily_entries WHERE date = ?`

// SQLiteOptions tunes how OpenSQLite connects.
type SQLiteOptions struct {
	JournalMode   string
	BusyTimeoutMS int
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	ownsDB bool

	// Prepared statements
	getEntry    *sql.Stmt
	earliest    *sql.Stmt
	upsertEntry *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated
// database. Close does not close db.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

// OpenSQLite opens the database at path (":memory:" for a private in-memory
// database), applies migrations and returns a store that owns the handle.
// Write transactions start with BEGIN IMMEDIATE so concurrent writers queue
// on the database lock instead of racing on stale reads.
func OpenSQLite(ctx context.Context, path string, opts SQLiteOptions) (*SQLiteStore, error) {
	if opts.BusyTimeoutMS <= 0 {
		opts.BusyTimeoutMS = 5000
	}

	inMemory := path == ":memory:"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_txlock=immediate&_busy_timeout=%d&_foreign_keys=on", path, opts.BusyTimeoutMS)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if inMemory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	runner := NewMigrationRunner(db).WithJournalMode(opts.JournalMode)
	if err := runner.Run(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.ownsDB = true
	return store, nil
}

// DB exposes the underlying handle for status reporting.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getEntry, err = s.db.Prepare(selectEntrySQL)
	if err != nil {
		return err
	}

	s.earliest, err = s.db.Prepare(`SELECT ` + entryColumns + ` FROM daily_entries ORDER BY date ASC LIMIT 1`)
	if err != nil {
		return err
	}

	s.upsertEntry, err = s.db.Prepare(upsertEntrySQL)
	if err != nil {
		return err
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry decodes one daily_entries row.
func scanEntry(row rowScanner) (*DailyEntry, error) {
	var (
		e                                    DailyEntry
		projects, languages, files, hourlyJS string
	)
	if err := row.Scan(&e.Date, &projects, &languages, &files, &hourlyJS, &e.TotalMinutes, &e.LastTimestamp); err != nil {
		return nil, err
	}

	var err error
	if e.Projects, err = decodeCounter(projects); err != nil {
		return nil, fmt.Errorf("decode projects for %s: %w", e.Date, err)
	}
	if e.Languages, err = decodeCounter(languages); err != nil {
		return nil, fmt.Errorf("decode languages for %s: %w", e.Date, err)
	}
	if e.RelativeFiles, err = decodeCounter(files); err != nil {
		return nil, fmt.Errorf("decode relative_files for %s: %w", e.Date, err)
	}
	e.Hourly = make(map[int]int)
	if err := json.Unmarshal([]byte(hourlyJS), &e.Hourly); err != nil {
		return nil, fmt.Errorf("decode hourly for %s: %w", e.Date, err)
	}
	return &e, nil
}

// entryArgs renders an entry into upsertEntrySQL arguments.
func entryArgs(e *DailyEntry) ([]any, error) {
	projects, err := encodeCounter(e.Projects)
	if err != nil {
		return nil, fmt.Errorf("encode projects: %w", err)
	}
	languages, err := encodeCounter(e.Languages)
	if err != nil {
		return nil, fmt.Errorf("encode languages: %w", err)
	}
	files, err := encodeCounter(e.RelativeFiles)
	if err != nil {
		return nil, fmt.Errorf("encode relative_files: %w", err)
	}
	hourly := e.Hourly
	if hourly == nil {
		hourly = map[int]int{}
	}
	hourlyJS, err := json.Marshal(hourly)
	if err != nil {
		return nil, fmt.Errorf("encode hourly: %w", err)
	}
	return []any{e.Date, projects, languages, files, string(hourlyJS), e.TotalMinutes, e.LastTimestamp}, nil
}

// Get retrieves the entry for a single day.
func (s *SQLiteStore) Get(ctx context.Context, day string) (*DailyEntry, error) {
	e, err := scanEntry(s.getEntry.QueryRowContext(ctx, day))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("day %s: %w", day, ErrNotFound)
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// Range queries entries between two day keys, inclusive.
func (s *SQLiteStore) Range(ctx context.Context, from, to string) ([]DailyEntry, error) {
	var clauses []string
	var args []any

	if from != "" {
		clauses = append(clauses, "date >= ?")
		args = append(args, from)
	}
	if to != "" {
		clauses = append(clauses, "date <= ?")
		args = append(args, to)
	}

	query := `SELECT ` + entryColumns + ` FROM daily_entries`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []DailyEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Earliest returns the first day ever recorded.
func (s *SQLiteStore) Earliest(ctx context.Context) (*DailyEntry, error) {
	e, err := scanEntry(s.earliest.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("earliest entry: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("earliest entry: %w", err)
	}
	return e, nil
}

// Upsert writes a whole entry in one statement.
func (s *SQLiteStore) Upsert(ctx context.Context, entry *DailyEntry) error {
	if entry.Date == "" {
		return errors.New("upsert: entry has no date")
	}
	args, err := entryArgs(entry)
	if err != nil {
		return err
	}
	if _, err := s.upsertEntry.ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

// Mutate loads the day inside an immediate transaction, lets fn edit it and
// writes it back before releasing the write lock.
func (s *SQLiteStore) Mutate(ctx context.Context, day string, fn MutateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	found := true
	entry, err := scanEntry(tx.QueryRowContext(ctx, selectEntrySQL, day))
	if errors.Is(err, sql.ErrNoRows) {
		entry, found = NewDailyEntry(day), false
	} else if err != nil {
		return fmt.Errorf("load entry: %w", err)
	}

	write, err := fn(entry, found)
	if err != nil {
		return err
	}
	if !write {
		return tx.Commit()
	}
	if entry.Date != day {
		return fmt.Errorf("mutate %s: entry date changed to %q", day, entry.Date)
	}

	args, err := entryArgs(entry)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, upsertEntrySQL, args...); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}

	return tx.Commit()
}

// Count returns the number of stored days.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM daily_entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Close releases all prepared statements, and the database when the store
// opened it itself.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{s.getEntry, s.earliest, s.upsertEntry}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
