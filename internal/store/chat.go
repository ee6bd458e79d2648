package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ChatStore holds the Telegram chat id of the authorized user's
// conversation. The relay writes it the first time it sees a message; the
// reminder scheduler reads it, having no incoming message of its own.
type ChatStore struct {
	path string
}

// NewChatStore creates a chat id store backed by the given file.
func NewChatStore(path string) *ChatStore {
	return &ChatStore{path: path}
}

// Load returns the stored chat id. The second return is false when no
// usable id is stored; reminders cannot fire until one exists.
func (s *ChatStore) Load() (int64, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Save persists the chat id.
func (s *ChatStore) Save(id int64) error {
	return WriteFileAtomic(s.path, []byte(fmt.Sprintf("%d\n", id)))
}
