package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/jes/cursor-claw/internal/agent"
	"github.com/jes/cursor-claw/internal/store"
	"github.com/jes/cursor-claw/internal/telegram"
)

// deliveryPrefix marks reminder messages apart from conversational replies.
const deliveryPrefix = "⏰ "

// promptInstruction rides along with every prompt reminder so the agent
// doesn't also deliver the message itself, which would reach the user twice.
const promptInstruction = " [Your reply will be sent to the user on Telegram. " +
	"Do not run any script or command that sends a Telegram message yourself—" +
	"just output the message content in your reply.]"

// Scheduler fires due reminders. It is invoked periodically by an external
// timer, runs to completion, and exits; it keeps no state between runs
// beyond the store itself.
type Scheduler struct {
	store     *Store
	messenger telegram.Messenger
	invoker   agent.Invoker
	chats     *store.ChatStore
	sessions  *store.SessionStore
	logger    *slog.Logger
}

// NewScheduler creates a scheduler over the given collaborators.
func NewScheduler(
	st *Store,
	messenger telegram.Messenger,
	invoker agent.Invoker,
	chats *store.ChatStore,
	sessions *store.SessionStore,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:     st,
		messenger: messenger,
		invoker:   invoker,
		chats:     chats,
		sessions:  sessions,
		logger:    logger,
	}
}

// Run processes one scheduler pass at the given wall-clock time.
//
// Due entries are removed from the store *before* any of them is acted on.
// That ordering is the exactly-once guarantee: a crash mid-batch loses the
// remaining reminders instead of firing them twice on the next timer tick,
// and duplicates are the worse failure for a reminder. Entries whose trigger
// time does not parse stay in the store untouched.
func (s *Scheduler) Run(ctx context.Context, now time.Time) error {
	chatID, ok := s.chats.Load()
	if !ok {
		// Nothing can be delivered yet; leave the store alone so nothing
		// is lost before the user messages the bot once.
		s.logger.Info("no chat id stored yet, skipping reminder run")
		return nil
	}

	reminders := s.store.Load()
	due := make([]Reminder, 0, len(reminders))
	remaining := make([]Reminder, 0, len(reminders))
	for _, r := range reminders {
		at, err := parseAt(r.At)
		if err != nil || at.After(now) {
			remaining = append(remaining, r)
			continue
		}
		due = append(due, r)
	}
	if len(due) == 0 {
		return nil
	}

	if err := s.store.Save(remaining); err != nil {
		// Could not claim the batch; fire nothing, or the next tick would
		// deliver everything again.
		return err
	}

	for _, r := range due {
		s.fire(ctx, chatID, r)
	}
	return nil
}

// fire delivers one claimed reminder. Failures are logged and the batch
// continues; the entry is already removed and is never retried.
func (s *Scheduler) fire(ctx context.Context, chatID int64, r Reminder) {
	body := r.Text
	if r.Prompt != "" {
		// Best-effort session reuse; the scheduler does not own the
		// session slot, so the resulting id is not persisted.
		body, _ = s.invoker.Invoke(ctx, r.Prompt+promptInstruction, s.sessions.Load())
	} else if body == "" {
		body = "(reminder)"
	}
	if err := s.messenger.SendText(ctx, chatID, deliveryPrefix+body); err != nil {
		s.logger.Error("failed to send reminder", "id", r.ID, "error", err)
		return
	}
	s.logger.Info("sent reminder", "id", r.ID, "prompt", r.Prompt != "")
}
