package store

import (
	"os"
	"strings"
)

// SessionStore holds the single agent session token. Absence of a token
// means "start a new conversation", so Load degrades to empty on any read
// failure rather than surfacing an error.
type SessionStore struct {
	path string
}

// NewSessionStore creates a session store backed by the given file.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Load returns the stored session token, or "" if none is stored or the
// file is unreadable.
func (s *SessionStore) Load() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Save persists the session token, overwriting any prior value. Saving an
// empty token is a no-op: a failed agent invocation must not clobber the
// last known-good session.
func (s *SessionStore) Save(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return WriteFileAtomic(s.path, []byte(id+"\n"))
}

// Reset removes the stored token so the next invocation starts fresh.
func (s *SessionStore) Reset() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
