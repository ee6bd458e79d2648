package reminder_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jes/cursor-claw/internal/attach"
	"github.com/jes/cursor-claw/internal/reminder"
	"github.com/jes/cursor-claw/internal/store"
)

type fakeMessenger struct {
	sent    []string
	chatIDs []int64
	sendErr error
}

func (f *fakeMessenger) SendText(_ context.Context, chatID int64, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, text)
	f.chatIDs = append(f.chatIDs, chatID)
	return nil
}

func (f *fakeMessenger) SendFile(context.Context, int64, string, attach.Kind) error { return nil }

func (f *fakeMessenger) SendTyping(context.Context, int64) {}

type fakeInvoker struct {
	reply   string
	prompts []string
}

func (f *fakeInvoker) Invoke(_ context.Context, prompt, sessionID string) (string, string) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, sessionID
}

type fixture struct {
	store     *reminder.Store
	messenger *fakeMessenger
	invoker   *fakeInvoker
	sched     *reminder.Scheduler
	chats     *store.ChatStore
	sessions  *store.SessionStore
}

func newFixture(t *testing.T, withChat bool) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		store:     reminder.NewStore(filepath.Join(dir, "reminders.json")),
		messenger: &fakeMessenger{},
		invoker:   &fakeInvoker{reply: "agent says hi"},
		chats:     store.NewChatStore(filepath.Join(dir, "chat_id")),
		sessions:  store.NewSessionStore(filepath.Join(dir, "session")),
	}
	if withChat {
		require.NoError(t, f.chats.Save(100))
	}
	f.sched = reminder.NewScheduler(f.store, f.messenger, f.invoker, f.chats, f.sessions, nil)
	return f
}

func at(t time.Time) string {
	return t.Format(time.RFC3339)
}

func TestFiresDueTextReminderExactlyOnce(t *testing.T) {
	f := newFixture(t, true)
	now := time.Now()
	require.NoError(t, f.store.Save([]reminder.Reminder{
		{At: at(now.Add(-time.Minute)), Text: "stand up"},
	}))

	require.NoError(t, f.sched.Run(context.Background(), now))
	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, "⏰ stand up", f.messenger.sent[0])
	assert.Equal(t, int64(100), f.messenger.chatIDs[0])

	// Second run: the store no longer contains the entry.
	require.NoError(t, f.sched.Run(context.Background(), now))
	assert.Len(t, f.messenger.sent, 1, "a reminder fires exactly once")
	assert.Empty(t, f.store.Load())
}

func TestDueRemindersFireInStoredOrder(t *testing.T) {
	f := newFixture(t, true)
	now := time.Now()
	require.NoError(t, f.store.Save([]reminder.Reminder{
		{At: at(now.Add(-3 * time.Minute)), Text: "A"},
		{At: at(now.Add(-time.Minute)), Text: "B"},
		{At: at(now.Add(-2 * time.Minute)), Text: "C"},
	}))

	require.NoError(t, f.sched.Run(context.Background(), now))

	// Insertion order, not trigger-time order.
	assert.Equal(t, []string{"⏰ A", "⏰ B", "⏰ C"}, f.messenger.sent)
}

func TestFutureRemindersStay(t *testing.T) {
	f := newFixture(t, true)
	now := time.Now()
	require.NoError(t, f.store.Save([]reminder.Reminder{
		{At: at(now.Add(-time.Minute)), Text: "due"},
		{At: at(now.Add(time.Hour)), Text: "later"},
	}))

	require.NoError(t, f.sched.Run(context.Background(), now))

	require.Len(t, f.messenger.sent, 1)
	remaining := f.store.Load()
	require.Len(t, remaining, 1)
	assert.Equal(t, "later", remaining[0].Text)
}

func TestPromptReminderInvokesAgent(t *testing.T) {
	f := newFixture(t, true)
	now := time.Now()
	require.NoError(t, f.sessions.Save("S1"))
	require.NoError(t, f.store.Save([]reminder.Reminder{
		{At: at(now.Add(-time.Minute)), Prompt: "summarize overnight builds"},
	}))

	require.NoError(t, f.sched.Run(context.Background(), now))

	require.Len(t, f.invoker.prompts, 1)
	assert.Contains(t, f.invoker.prompts[0], "summarize overnight builds")
	assert.Contains(t, f.invoker.prompts[0], "Do not run any script",
		"prompt reminders carry the no-self-delivery instruction")
	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, "⏰ agent says hi", f.messenger.sent[0])
}

func TestRemovedBeforeActing(t *testing.T) {
	// The store must already be rewritten when delivery happens: a send
	// failure loses the reminder rather than duplicating it.
	f := newFixture(t, true)
	f.messenger.sendErr = errors.New("telegram down")
	now := time.Now()
	require.NoError(t, f.store.Save([]reminder.Reminder{
		{At: at(now.Add(-time.Minute)), Text: "lost"},
	}))

	require.NoError(t, f.sched.Run(context.Background(), now))
	assert.Empty(t, f.messenger.sent)
	assert.Empty(t, f.store.Load(), "claimed entries are gone even when delivery fails")
}

func TestSendFailureDoesNotBlockBatch(t *testing.T) {
	f := newFixture(t, true)
	now := time.Now()
	require.NoError(t, f.store.Save([]reminder.Reminder{
		{At: at(now.Add(-time.Minute)), Text: "first"},
		{At: at(now.Add(-time.Minute)), Text: "second"},
	}))

	// Fail only the first send.
	calls := 0
	f.messenger.sendErr = nil
	wrapped := f.messenger
	f.sched = reminder.NewScheduler(f.store, failFirst{inner: wrapped, calls: &calls}, f.invoker, f.chats, f.sessions, nil)

	require.NoError(t, f.sched.Run(context.Background(), now))
	assert.Equal(t, []string{"⏰ second"}, wrapped.sent)
}

type failFirst struct {
	inner *fakeMessenger
	calls *int
}

func (f failFirst) SendText(ctx context.Context, chatID int64, text string) error {
	*f.calls++
	if *f.calls == 1 {
		return errors.New("transient")
	}
	return f.inner.SendText(ctx, chatID, text)
}

func (f failFirst) SendFile(context.Context, int64, string, attach.Kind) error { return nil }

func (f failFirst) SendTyping(context.Context, int64) {}

func TestMalformedTriggerTimeStays(t *testing.T) {
	f := newFixture(t, true)
	now := time.Now()
	require.NoError(t, f.store.Save([]reminder.Reminder{
		{At: "next tuesday-ish", Text: "??"},
		{At: at(now.Add(-time.Minute)), Text: "fine"},
	}))

	require.NoError(t, f.sched.Run(context.Background(), now))

	assert.Equal(t, []string{"⏰ fine"}, f.messenger.sent)
	remaining := f.store.Load()
	require.Len(t, remaining, 1)
	assert.Equal(t, "next tuesday-ish", remaining[0].At)
}

func TestNoChatIDLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t, false)
	now := time.Now()
	require.NoError(t, f.store.Save([]reminder.Reminder{
		{At: at(now.Add(-time.Minute)), Text: "early"},
	}))

	require.NoError(t, f.sched.Run(context.Background(), now))

	assert.Empty(t, f.messenger.sent)
	assert.Len(t, f.store.Load(), 1, "nothing is claimed before delivery is possible")
}

func TestLocalNaiveTimestamps(t *testing.T) {
	f := newFixture(t, true)
	now := time.Date(2026, 8, 28, 9, 30, 0, 0, time.Local)
	require.NoError(t, f.store.Save([]reminder.Reminder{
		{At: "2026-08-28T09:00", Text: "due, zoneless"},
		{At: "2026-08-28T10:00:00", Text: "not yet"},
	}))

	require.NoError(t, f.sched.Run(context.Background(), now))

	assert.Equal(t, []string{"⏰ due, zoneless"}, f.messenger.sent)
	require.Len(t, f.store.Load(), 1)
}

func TestEmptyAndMissingStore(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.sched.Run(context.Background(), time.Now()))
	assert.Empty(t, f.messenger.sent)

	// Corrupt store degrades to empty.
	path := filepath.Join(t.TempDir(), "reminders.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))
	assert.Empty(t, reminder.NewStore(path).Load())
}
