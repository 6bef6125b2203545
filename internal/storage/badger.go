package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// dayKeyPrefix namespaces daily entries. Day keys sort lexicographically in
// date order, so prefix iteration yields ascending days.
const dayKeyPrefix = "day:"

// defaultMutateAttempts bounds optimistic retries on write conflicts.
const defaultMutateAttempts = 32

// BadgerStore implements Store on BadgerDB. Each day is one JSON value.
type BadgerStore struct {
	db       *badger.DB
	ownsDB   bool
	attempts int
}

// NewBadgerStore wraps an already-open BadgerDB. Close does not close db.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, attempts: defaultMutateAttempts}
}

// OpenBadger opens a BadgerDB in dir. An empty dir opens an in-memory
// database.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	s := NewBadgerStore(db)
	s.ownsDB = true
	return s, nil
}

func dayKey(day string) []byte {
	return []byte(dayKeyPrefix + day)
}

func readEntry(item *badger.Item) (*DailyEntry, error) {
	var e DailyEntry
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &e)
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", item.Key(), err)
	}
	if e.Hourly == nil {
		e.Hourly = make(map[int]int)
	}
	return &e, nil
}

func writeEntry(txn *badger.Txn, e *DailyEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	return txn.Set(dayKey(e.Date), data)
}

// Get retrieves the entry for a single day.
func (s *BadgerStore) Get(ctx context.Context, day string) (*DailyEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entry *DailyEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dayKey(day))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("day %s: %w", day, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}
		entry, err = readEntry(item)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Range iterates day keys from from to to, inclusive.
func (s *BadgerStore) Range(ctx context.Context, from, to string) ([]DailyEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries := []DailyEntry{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(dayKeyPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(dayKey(from)); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			day := strings.TrimPrefix(string(item.Key()), dayKeyPrefix)
			if to != "" && day > to {
				break
			}
			e, err := readEntry(item)
			if err != nil {
				return err
			}
			entries = append(entries, *e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Earliest returns the first day key in iteration order.
func (s *BadgerStore) Earliest(ctx context.Context) (*DailyEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entry *DailyEntry
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(dayKeyPrefix)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(prefix)
		if !it.ValidForPrefix(prefix) {
			return fmt.Errorf("earliest entry: %w", ErrNotFound)
		}
		var err error
		entry, err = readEntry(it.Item())
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Upsert replaces the value stored for entry.Date.
func (s *BadgerStore) Upsert(ctx context.Context, entry *DailyEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.Date == "" {
		return errors.New("upsert: entry has no date")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return writeEntry(txn, entry)
	})
}

// Mutate runs fn inside a read-write transaction. Badger detects that another
// transaction committed the same key after our read and rejects the commit
// with ErrConflict; the whole read-modify-write is then retried.
func (s *BadgerStore) Mutate(ctx context.Context, day string, fn MutateFunc) error {
	for attempt := 0; attempt < s.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			found := true
			var entry *DailyEntry
			item, err := txn.Get(dayKey(day))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				entry, found = NewDailyEntry(day), false
			case err != nil:
				return fmt.Errorf("load entry: %w", err)
			default:
				if entry, err = readEntry(item); err != nil {
					return err
				}
			}

			write, err := fn(entry, found)
			if err != nil || !write {
				return err
			}
			if entry.Date != day {
				return fmt.Errorf("mutate %s: entry date changed to %q", day, entry.Date)
			}
			return writeEntry(txn, entry)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
	return fmt.Errorf("mutate %s: %w after %d attempts", day, badger.ErrConflict, s.attempts)
}

// Close closes the database when the store opened it itself.
func (s *BadgerStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
