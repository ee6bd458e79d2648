package telegram

import (
	"context"
	"time"

	"github.com/jes/cursor-claw/internal/attach"
)

// DefaultTypingInterval refreshes the indicator before Telegram's ~5 second
// display window expires.
const DefaultTypingInterval = 4 * time.Second

// Messenger is the outbound surface consumed by the relay and the reminder
// scheduler, kept small so tests can fake the transport.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendFile(ctx context.Context, chatID int64, path string, kind attach.Kind) error
	SendTyping(ctx context.Context, chatID int64)
}

// KeepTyping re-sends the typing indicator every interval until ctx is
// canceled. Run it in a goroutine for the duration of an agent invocation.
func KeepTyping(ctx context.Context, m Messenger, chatID int64, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTypingInterval
	}
	m.SendTyping(ctx, chatID)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SendTyping(ctx, chatID)
		}
	}
}
