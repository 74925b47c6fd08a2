package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

type fileState struct {
	LastIndex int `json:"last_index"`
}

// FileStore keeps the checkpoint in a JSON file
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the JSON file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the checkpoint file path
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the stored offset. A missing, unreadable, malformed or
// negative checkpoint counts as a fresh start.
func (s *FileStore) Load() int {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0
	}

	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		return 0
	}
	if st.LastIndex < 0 {
		return 0
	}
	return st.LastIndex
}

// Save writes the offset via temp file and rename
func (s *FileStore) Save(offset int) error {
	data, err := json.Marshal(fileState{LastIndex: offset})
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// Close is a no-op for file stores
func (s *FileStore) Close() error {
	return nil
}
