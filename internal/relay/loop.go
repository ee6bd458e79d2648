// Package relay runs the long-lived loop bridging Telegram and the agent:
// poll for messages from the one authorized user, feed each to the agent in
// arrival order, and send back the reply plus any pending attachments.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jes/cursor-claw/internal/agent"
	"github.com/jes/cursor-claw/internal/attach"
	"github.com/jes/cursor-claw/internal/store"
	"github.com/jes/cursor-claw/internal/telegram"
)

const (
	// pollRetryDelay backs off transport errors; they are never fatal.
	pollRetryDelay = 5 * time.Second

	// emptyTextReply nudges the user when a message carries no text.
	emptyTextReply = "(Send a text message to run the agent.)"
)

// Updater is the inbound half of the transport.
type Updater interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

// Transport is the full chat surface the loop needs.
type Transport interface {
	Updater
	telegram.Messenger
}

// Config wires a Loop.
type Config struct {
	Transport      Transport
	Invoker        agent.Invoker
	Sessions       *store.SessionStore
	Chats          *store.ChatStore
	Queue          *attach.Queue
	AllowedUserID  int64
	PollTimeout    time.Duration
	TypingInterval time.Duration
	Logger         *slog.Logger
}

// Loop is the relay state machine: Idle between polls, Processing while one
// message is in flight. Messages are handled strictly one at a time in
// arrival order: the agent session is single-threaded conversational state,
// and Telegram queues anything that arrives while we are busy.
type Loop struct {
	transport      Transport
	invoker        agent.Invoker
	sessions       *store.SessionStore
	chats          *store.ChatStore
	queue          *attach.Queue
	allowedUserID  int64
	pollTimeout    time.Duration
	typingInterval time.Duration
	logger         *slog.Logger
}

// NewLoop creates a relay loop.
func NewLoop(cfg Config) (*Loop, error) {
	if cfg.Transport == nil {
		return nil, errors.New("transport cannot be nil")
	}
	if cfg.Invoker == nil {
		return nil, errors.New("invoker cannot be nil")
	}
	if cfg.Sessions == nil || cfg.Chats == nil || cfg.Queue == nil {
		return nil, errors.New("stores and attachment queue are required")
	}
	if cfg.AllowedUserID == 0 {
		return nil, errors.New("allowed user id cannot be zero")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		transport:      cfg.Transport,
		invoker:        cfg.Invoker,
		sessions:       cfg.Sessions,
		chats:          cfg.Chats,
		queue:          cfg.Queue,
		allowedUserID:  cfg.AllowedUserID,
		pollTimeout:    cfg.PollTimeout,
		typingInterval: cfg.TypingInterval,
		logger:         logger,
	}, nil
}

// Run polls until ctx is canceled. Every observed update advances the
// offset, so unauthorized and non-message updates are acknowledged once and
// never redelivered.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("relay started", "allowed_user_id", l.allowedUserID)
	var offset int64
	for {
		if ctx.Err() != nil {
			return nil
		}
		updates, err := l.transport.GetUpdates(ctx, offset, l.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Warn("poll failed, retrying", "error", err)
			if !sleepCtx(ctx, pollRetryDelay) {
				return nil
			}
			continue
		}
		for _, update := range updates {
			offset = update.UpdateID + 1
			msg := update.Msg()
			if msg == nil || msg.From == nil {
				continue
			}
			if msg.From.ID != l.allowedUserID {
				// Dropped silently: no reply, no agent invocation.
				l.logger.Debug("ignoring message from unauthorized user", "user_id", msg.From.ID)
				continue
			}
			l.handleMessage(ctx, msg)
		}
	}
}

// handleMessage is the Processing state: one agent invocation, then reply,
// attachments, and store updates, in that order.
func (l *Loop) handleMessage(ctx context.Context, msg *telegram.Message) {
	chatID := msg.Chat.ID
	l.rememberChat(chatID)

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		if err := l.transport.SendText(ctx, chatID, emptyTextReply); err != nil {
			l.logger.Warn("failed to send nudge", "error", err)
		}
		return
	}

	l.logger.Info("running agent", "prompt_preview", preview(text, 60))
	typingCtx, stopTyping := context.WithCancel(ctx)
	go telegram.KeepTyping(typingCtx, l.transport, chatID, l.typingInterval)
	reply, sessionID := l.invoker.Invoke(ctx, text, l.sessions.Load())
	stopTyping()

	if err := l.transport.SendText(ctx, chatID, reply); err != nil {
		// Attachments stay queued for the next reply; the session still
		// advanced inside the agent, so persist it regardless.
		l.logger.Error("failed to send reply", "error", err)
	} else {
		l.flushAttachments(ctx, chatID)
	}

	if err := l.sessions.Save(sessionID); err != nil {
		l.logger.Error("failed to save session", "error", err)
	}
}

// flushAttachments sends and deletes everything queued up to this reply.
// Per-file failures are logged and do not block the rest of the batch.
func (l *Loop) flushAttachments(ctx context.Context, chatID int64) {
	for _, a := range l.queue.Drain() {
		if err := l.transport.SendFile(ctx, chatID, a.Path, a.Kind); err != nil {
			l.logger.Warn("failed to send attachment", "path", a.Path, "error", err)
			continue
		}
		l.queue.Remove(a)
	}
}

// rememberChat persists the chat id the first time the authorized user is
// seen, so the reminder scheduler knows where to deliver.
func (l *Loop) rememberChat(chatID int64) {
	if stored, ok := l.chats.Load(); ok && stored == chatID {
		return
	}
	if err := l.chats.Save(chatID); err != nil {
		l.logger.Error("failed to save chat id", "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func preview(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "…"
}
