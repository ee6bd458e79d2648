// Package reminder implements the one-shot reminders store and the
// run-to-completion scheduler that fires due entries exactly once.
package reminder

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jes/cursor-claw/internal/store"
)

// Reminder is one scheduled delivery: fixed Text or an agent Prompt, never
// both, fired once when At passes.
type Reminder struct {
	ID     string `json:"id,omitempty"`
	At     string `json:"at"`
	Text   string `json:"text,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

// remindersFile is the on-disk shape. The agent appends to this file
// directly, so loading also tolerates a bare top-level array.
type remindersFile struct {
	Reminders []Reminder `json:"reminders"`
}

// Store reads and atomically rewrites the reminders file.
type Store struct {
	path string
}

// NewStore creates a reminders store backed by the given file.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns all stored reminders in insertion order. A missing or
// unreadable store degrades to empty rather than failing the scheduler.
func (s *Store) Load() []Reminder {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []Reminder{}
	}
	var file remindersFile
	if err = json.Unmarshal(data, &file); err == nil && file.Reminders != nil {
		return file.Reminders
	}
	var list []Reminder
	if err = json.Unmarshal(data, &list); err == nil {
		return list
	}
	return []Reminder{}
}

// Save atomically replaces the store contents. This must succeed before any
// due reminder is acted on.
func (s *Store) Save(reminders []Reminder) error {
	if reminders == nil {
		reminders = []Reminder{}
	}
	data, err := json.MarshalIndent(remindersFile{Reminders: reminders}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal reminders: %w", err)
	}
	if err = store.WriteFileAtomic(s.path, append(data, '\n')); err != nil {
		return fmt.Errorf("failed to save reminders: %w", err)
	}
	return nil
}

// Append adds a reminder to the end of the store, assigning an id.
func (s *Store) Append(r Reminder) (Reminder, error) {
	if strings.TrimSpace(r.At) == "" {
		return Reminder{}, fmt.Errorf("reminder trigger time cannot be empty")
	}
	if _, err := parseAt(r.At); err != nil {
		return Reminder{}, err
	}
	if (r.Text == "") == (r.Prompt == "") {
		return Reminder{}, fmt.Errorf("reminder needs exactly one of text or prompt")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := s.Save(append(s.Load(), r)); err != nil {
		return Reminder{}, err
	}
	return r, nil
}

// Trigger time formats: RFC 3339 from well-behaved writers, plus the bare
// local forms a "remind me at 9" request naturally serializes to.
var atLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseAt parses a trigger time. Zoneless values are local time; zoned
// values are converted to local for comparison against the local clock.
func parseAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range atLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Local(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized trigger time %q", s)
}
