package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// fileState is the on-disk shape of the JSON backend.
type fileState struct {
	ChannelID string    `json:"channel_id,omitempty"`
	Tracking  *Tracking `json:"tracking,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore keeps the state in a single JSON file. Writes go through a
// temp file and rename so a crash never leaves a half-written record.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the JSON file at path. The
// file is created lazily on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) TrackedEvent() (*Tracking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.read()
	if err != nil {
		return nil, err
	}
	return st.Tracking, nil
}

func (s *FileStore) SetTrackedEvent(t *Tracking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.read()
	if err != nil {
		return err
	}
	st.Tracking = t
	return s.write(st)
}

func (s *FileStore) ChannelID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.read()
	if err != nil {
		return "", err
	}
	return st.ChannelID, nil
}

func (s *FileStore) SetChannelID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.read()
	if err != nil {
		return err
	}
	st.ChannelID = id
	return s.write(st)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() (*fileState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &fileState{}, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}
	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("invalid state file %s: %w", s.path, err)
	}
	return &st, nil
}

func (s *FileStore) write(st *fileState) error {
	st.UpdatedAt = time.Now()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".paxdown-state-*.tmp")
	if err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}
