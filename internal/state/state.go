package state

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/metcalfc/folio/internal/paging"
	"github.com/zeebo/blake3"
)

const (
	stateFileName = "books.json"
	hashBytes     = 8192 // First 8KB for content hash
)

// Settings are the per-book reading preferences. Zero values mean "use the default".
type Settings struct {
	TextSize int    `json:"text_size,omitempty"`
	Font     string `json:"font,omitempty"`
}

// BookState stores the reading record and settings for a single book
type BookState struct {
	Record   *paging.Record `json:"record,omitempty"`
	Settings Settings       `json:"settings"`
}

// StateStore keeps reading records and settings for every book in one JSON file, keyed by
// content hash. It implements paging.RecordStore.
type StateStore struct {
	path string
	data map[string]BookState
	mu   sync.RWMutex
}

// NewStateStore creates or loads state from dir. An empty dir means Dir().
func NewStateStore(dir string) (*StateStore, error) {
	if dir == "" {
		dir = Dir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	store := &StateStore{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]BookState),
	}
	if err := store.load(); err != nil {
		// Non-fatal - start with empty state
		store.data = make(map[string]BookState)
	}
	return store, nil
}

// Dir returns XDG_STATE_HOME/folio or ~/.local/state/folio
func Dir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "folio")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "folio")
}

// ComputeHash identifies a book by the blake3 hash of its first bytes, so a renamed or moved
// file keeps its reading state.
func ComputeHash(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.CopyN(h, f, hashBytes); err != nil && err != io.EOF {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)[:16]), nil // 32 hex chars
}

// ReadingRecord returns the saved reading record for a book.
func (s *StateStore) ReadingRecord(hash string) (paging.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.data[hash]; ok && st.Record != nil {
		return *st.Record, true, nil
	}
	return paging.Record{}, false, nil
}

// SetReadingRecord replaces the reading record for a book
func (s *StateStore) SetReadingRecord(hash string, rec paging.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.data[hash]
	st.Record = &rec
	s.data[hash] = st
	return s.save()
}

// Settings returns the saved settings for a book.
func (s *StateStore) Settings(hash string) Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[hash].Settings
}

// SetSettings saves the settings for a book
func (s *StateStore) SetSettings(hash string, settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.data[hash]
	st.Settings = settings
	s.data[hash] = st
	return s.save()
}

// Clear forgets the reading record and settings of a book.
func (s *StateStore) Clear(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, hash)
	return s.save()
}

func (s *StateStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

// save replaces the state file atomically so a crash never leaves it half written.
func (s *StateStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), stateFileName+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
