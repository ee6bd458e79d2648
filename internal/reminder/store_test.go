package reminder_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jes/cursor-claw/internal/reminder"
)

func TestStoreRoundTrip(t *testing.T) {
	s := reminder.NewStore(filepath.Join(t.TempDir(), "reminders.json"))

	require.NoError(t, s.Save([]reminder.Reminder{
		{At: "2026-08-28T09:00", Text: "one"},
		{At: "2026-08-28T10:00", Prompt: "two"},
	}))

	loaded := s.Load()
	require.Len(t, loaded, 2)
	assert.Equal(t, "one", loaded[0].Text)
	assert.Equal(t, "two", loaded[1].Prompt)
}

func TestStoreAcceptsBareArray(t *testing.T) {
	// The agent sometimes writes a top-level list instead of the wrapped
	// object; both load.
	path := filepath.Join(t.TempDir(), "reminders.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`[{"at":"2026-08-28T09:00","text":"hi"}]`), 0o600))

	loaded := reminder.NewStore(path).Load()
	require.Len(t, loaded, 1)
	assert.Equal(t, "hi", loaded[0].Text)
}

func TestStoreSaveNormalizesShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.json")
	s := reminder.NewStore(path)
	require.NoError(t, s.Save(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var file struct {
		Reminders []reminder.Reminder `json:"reminders"`
	}
	require.NoError(t, json.Unmarshal(data, &file))
	assert.NotNil(t, file.Reminders, "empty store still serializes the reminders key")
}

func TestAppend(t *testing.T) {
	s := reminder.NewStore(filepath.Join(t.TempDir(), "reminders.json"))

	first, err := s.Append(reminder.Reminder{At: "2026-08-28T09:00", Text: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := s.Append(reminder.Reminder{At: "2026-08-28T10:00", Prompt: "check builds"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	loaded := s.Load()
	require.Len(t, loaded, 2)
	assert.Equal(t, first.ID, loaded[0].ID, "append preserves insertion order")
}

func TestAppendValidation(t *testing.T) {
	s := reminder.NewStore(filepath.Join(t.TempDir(), "reminders.json"))

	_, err := s.Append(reminder.Reminder{Text: "no time"})
	assert.Error(t, err)

	_, err = s.Append(reminder.Reminder{At: "whenever", Text: "bad time"})
	assert.Error(t, err)

	_, err = s.Append(reminder.Reminder{At: "2026-08-28T09:00"})
	assert.Error(t, err, "needs text or prompt")

	_, err = s.Append(reminder.Reminder{At: "2026-08-28T09:00", Text: "a", Prompt: "b"})
	assert.Error(t, err, "text and prompt are exclusive")
}
