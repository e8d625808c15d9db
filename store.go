package portal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// sessionBlob mirrors the browser-local storage keys the portal has always
// used: token, user, seenNotificationIds.
type sessionBlob struct {
	Token               string  `json:"token,omitempty"`
	User                *User   `json:"user,omitempty"`
	SeenNotificationIDs []int64 `json:"seenNotificationIds,omitempty"`
}

// MemorySessionStore is an in-memory SessionStore, the substitute guards and
// tests inject instead of the real persistent store.
type MemorySessionStore struct {
	mu   sync.RWMutex
	blob sessionBlob
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) SetSession(token string, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob.Token = token
	s.blob.User = user
	return nil
}

func (s *MemorySessionStore) Session() (string, *User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.blob.Token == "" {
		return "", nil, false
	}
	return s.blob.Token, s.blob.User, true
}

func (s *MemorySessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob.Token = ""
	s.blob.User = nil
	return nil
}

func (s *MemorySessionStore) SeenNotificationIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, len(s.blob.SeenNotificationIDs))
	copy(out, s.blob.SeenNotificationIDs)
	return out
}

func (s *MemorySessionStore) SetSeenNotificationIDs(ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob.SeenNotificationIDs = append([]int64(nil), ids...)
	return nil
}

// FileSessionStore persists the session blob as a single JSON file so the
// session survives process restarts, the way localStorage survives page
// reloads. Writes go through a temp file + rename.
type FileSessionStore struct {
	mu   sync.Mutex
	path string
	blob sessionBlob
}

var _ SessionStore = (*FileSessionStore)(nil)

// NewFileSessionStore loads any existing blob at path. A missing file is a
// fresh signed-out store; a corrupt file is discarded.
func NewFileSessionStore(path string) (*FileSessionStore, error) {
	s := &FileSessionStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "unable to read session file")
	}

	if err := json.Unmarshal(data, &s.blob); err != nil {
		s.blob = sessionBlob{}
	}
	return s, nil
}

func (s *FileSessionStore) SetSession(token string, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob.Token = token
	s.blob.User = user
	return s.flush()
}

func (s *FileSessionStore) Session() (string, *User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob.Token == "" {
		return "", nil, false
	}
	return s.blob.Token, s.blob.User, true
}

func (s *FileSessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob.Token = ""
	s.blob.User = nil
	return s.flush()
}

func (s *FileSessionStore) SeenNotificationIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.blob.SeenNotificationIDs))
	copy(out, s.blob.SeenNotificationIDs)
	return out
}

func (s *FileSessionStore) SetSeenNotificationIDs(ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob.SeenNotificationIDs = append([]int64(nil), ids...)
	return s.flush()
}

func (s *FileSessionStore) flush() error {
	data, err := json.MarshalIndent(s.blob, "", "  ")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to encode session blob")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "unable to create session directory")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "unable to write session file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "unable to replace session file")
	}
	return nil
}
