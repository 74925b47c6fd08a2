package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"codeberg.org/snonux/schemetrans/internal/config"
)

// Store loads and saves the checkpoint offset
type Store interface {
	// Load returns the stored offset, 0 when none exists or it is unreadable
	Load() int

	// Save durably replaces the stored offset
	Save(offset int) error

	// Close releases resources held by the store
	Close() error
}

// BatchRecorder is implemented by stores that record each completed batch
// together with the checkpoint update
type BatchRecorder interface {
	Commit(start, end int, languages []string) error
}

// HistoryReader is implemented by stores that keep a batch ledger
type HistoryReader interface {
	History() ([]BatchRecord, error)
}

// BatchRecord is one completed batch from the ledger
type BatchRecord struct {
	RunID       string
	Start       int
	End         int
	Languages   []string
	CompletedAt time.Time
}

// NewStore opens the store for the configured backend
func NewStore(backend, path string) (Store, error) {
	switch backend {
	case config.BackendJSON, "":
		return NewFileStore(path), nil
	case config.BackendSQLite:
		return OpenSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown checkpoint backend: %s", backend)
	}
}

// ErrReadOnly is returned when saving to a store opened for inspection
var ErrReadOnly = errors.New("checkpoint store is read-only")

// OpenReadOnly opens the store for status reports. Nothing is created on
// disk: a missing SQLite database reads as offset 0.
func OpenReadOnly(backend, path string) (Store, error) {
	if backend != config.BackendSQLite {
		return NewStore(backend, path)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return emptyStore{}, nil
	}
	return OpenSQLiteStoreReadOnly(path)
}

type emptyStore struct{}

func (emptyStore) Load() int      { return 0 }
func (emptyStore) Save(int) error { return ErrReadOnly }
func (emptyStore) Close() error   { return nil }

// Clamp keeps a loaded offset within [0, total]
func Clamp(offset, total int) int {
	if offset < 0 {
		return 0
	}
	if offset > total {
		return total
	}
	return offset
}
