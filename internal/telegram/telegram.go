// Package telegram bridges a single authorized Telegram chat to the
// agent. It long-polls getUpdates itself rather than using telego's
// handler framework so offset bookkeeping, the startup backlog flush,
// and failure backoff stay under local control.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/zclaw/zclaw/internal/bus"
	"github.com/zclaw/zclaw/internal/config"
	"github.com/zclaw/zclaw/internal/httpkit"
	"github.com/zclaw/zclaw/internal/llm"
	"github.com/zclaw/zclaw/internal/textutil"
)

// api is the slice of the telego bot surface the bridge uses.
// *telego.Bot satisfies it.
type api interface {
	GetUpdates(ctx context.Context, params *telego.GetUpdatesParams) ([]telego.Update, error)
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	SendChatAction(ctx context.Context, params *telego.SendChatActionParams) error
}

// Bridge relays messages between one Telegram chat and the agent's
// input queue, and delivers agent replies back to that chat.
type Bridge struct {
	bot          api
	chatID       int64
	flushOnStart bool
	pollTimeout  time.Duration
	maxLen       int

	input  *bus.Queue
	output *bus.Queue
	log    *slog.Logger

	lastUpdateID int64
	failures     int
	stale        staleTracker

	// Injectable for tests.
	sleep func(context.Context, time.Duration)
	now   func() time.Time
}

// New connects to Telegram with the configured token. The bridge only
// talks to cfg.ChatID; a zero ChatID means no chat is authorized and
// every incoming message is dropped.
func New(cfg config.TelegramConfig, backend llm.Backend, maxMessageLen int, input, output *bus.Queue, log *slog.Logger) (*Bridge, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram: no bot token configured")
	}
	// The HTTP timeout must exceed the long-poll timeout or every
	// quiet poll reads as a failure.
	pollTimeout := PollTimeout(backend)
	client := httpkit.NewClient(httpkit.WithTimeout(pollTimeout + 15*time.Second))
	bot, err := telego.NewBot(cfg.Token, telego.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return newBridge(bot, cfg, pollTimeout, maxMessageLen, input, output, log), nil
}

func newBridge(bot api, cfg config.TelegramConfig, pollTimeout time.Duration, maxMessageLen int, input, output *bus.Queue, log *slog.Logger) *Bridge {
	return &Bridge{
		bot:          bot,
		chatID:       cfg.ChatID,
		flushOnStart: cfg.FlushOnStart == nil || *cfg.FlushOnStart,
		pollTimeout:  pollTimeout,
		maxLen:       maxMessageLen,
		input:        input,
		output:       output,
		log:          log.With("component", "telegram"),
		sleep:        sleepCtx,
		now:          time.Now,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Run polls for updates until the context is cancelled. Call
// RunSender in its own goroutine to deliver replies.
func (b *Bridge) Run(ctx context.Context) {
	if b.flushOnStart {
		b.flushBacklog(ctx)
	}
	b.log.Info("telegram bridge started", "chat_id", b.chatID, "poll_timeout", b.pollTimeout)
	for ctx.Err() == nil {
		if d := BackoffDelay(b.failures); d > 0 {
			b.log.Warn("telegram poll backing off", "failures", b.failures, "delay", d)
			b.sleep(ctx, d)
			if ctx.Err() != nil {
				return
			}
		}
		updates, err := b.bot.GetUpdates(ctx, &telego.GetUpdatesParams{
			Offset:  int(b.lastUpdateID + 1),
			Limit:   1,
			Timeout: int(b.pollTimeout / time.Second),
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.failures++
			b.log.Warn("telegram poll failed", "error", err, "failures", b.failures)
			continue
		}
		b.failures = 0
		fresh := b.handleUpdates(ctx, updates)
		// Only polls that returned something count toward the
		// stale streak; empty long polls are normal idle.
		if len(updates) > 0 {
			b.observeStaleness(ctx, fresh)
		}
	}
}

// flushBacklog discards messages queued while the agent was down so a
// restart does not replay stale conversation. Asking for offset -1
// returns only the newest update, which becomes the high-water mark.
func (b *Bridge) flushBacklog(ctx context.Context) {
	updates, err := b.bot.GetUpdates(ctx, &telego.GetUpdatesParams{
		Offset: -1,
		Limit:  1,
	})
	if err != nil {
		b.log.Warn("telegram backlog flush failed", "error", err)
		return
	}
	if len(updates) > 0 {
		b.lastUpdateID = int64(updates[len(updates)-1].UpdateID)
		b.log.Info("telegram backlog flushed", "last_update_id", b.lastUpdateID)
	}
}

// handleUpdates processes one poll's worth of updates and reports
// whether any of them were new.
func (b *Bridge) handleUpdates(ctx context.Context, updates []telego.Update) (fresh bool) {
	for _, u := range updates {
		id := int64(u.UpdateID)
		if id <= b.lastUpdateID {
			continue
		}
		fresh = true
		b.lastUpdateID = id
		if u.Message == nil || u.Message.Text == "" {
			continue
		}
		chatID := u.Message.Chat.ID
		if b.chatID == 0 {
			b.log.Warn("telegram message ignored, no authorized chat", "from_chat", chatID)
			continue
		}
		if chatID != b.chatID {
			b.log.Warn("telegram message from unauthorized chat", "from_chat", chatID)
			continue
		}
		text := textutil.Truncate(u.Message.Text, b.maxLen)
		if !b.input.TrySend(bus.Message{Text: text, Source: bus.SourceBridge, ReplyTo: chatID}) {
			b.log.Warn("telegram message dropped, input queue full")
			continue
		}
		// Best effort; the reply arrives either way.
		if err := b.bot.SendChatAction(ctx, tu.ChatAction(tu.ID(chatID), telego.ChatActionTyping)); err != nil {
			b.log.Debug("typing indicator failed", "error", err)
		}
	}
	return fresh
}

// observeStaleness tracks polls that returned only already-seen
// updates and resyncs the offset when the streak persists.
func (b *Bridge) observeStaleness(ctx context.Context, fresh bool) {
	logStreak, resync := b.stale.observe(fresh, b.now())
	if logStreak {
		b.log.Warn("telegram polls returning stale updates", "last_update_id", b.lastUpdateID)
	}
	if resync {
		b.log.Warn("telegram offset resync", "last_update_id", b.lastUpdateID)
		b.flushBacklog(ctx)
	}
}

// RunSender drains the output queue and delivers each reply to its
// chat. It exits when the context is cancelled.
func (b *Bridge) RunSender(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.output.C():
			chatID := msg.ReplyTo
			if chatID == 0 {
				chatID = b.chatID
			}
			if chatID == 0 {
				b.log.Warn("telegram reply dropped, no destination chat")
				continue
			}
			if _, err := b.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), msg.Text)); err != nil {
				b.log.Warn("telegram send failed", "error", err, "chat_id", chatID)
			}
		}
	}
}
