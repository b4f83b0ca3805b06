package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/nutype/nutype-bot/internal/bot"
	"github.com/nutype/nutype-bot/internal/domain/feedback"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second

	// defaultSendTimeout bounds each reply. Handlers are detached from
	// the polling context and Run waits for them.
	defaultSendTimeout = 30 * time.Second
)

// pollBackoff doubles from minBackoff up to maxBackoff.
func pollBackoff() retry.Backoff {
	return retry.WithCappedDuration(maxBackoff, retry.NewExponential(minBackoff))
}

// Handler processes inbound chat traffic.
type Handler interface {
	HandleCommand(ctx context.Context, cmd bot.Command, out bot.Responder) error
	HandleMessage(ctx context.Context, msg bot.Message, out bot.Responder) error
}

// Sender delivers outbound messages.
type Sender interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
}

// Source yields inbound updates.
type Source interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Poller long-polls for updates and handles each in its own goroutine.
type Poller struct {
	source  Source
	sender  Sender
	handler Handler
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup

	sendTimeout time.Duration
}

// NewPoller creates a poller. client usually serves as both source and sender.
func NewPoller(client *Client, handler Handler, pollTimeout time.Duration, logger *slog.Logger) *Poller {
	return newPoller(client, client, handler, pollTimeout, logger)
}

func newPoller(source Source, sender Sender, handler Handler, pollTimeout time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Poller{
		source:  source,
		sender:  sender,
		handler: handler,
		timeout: pollTimeout,
		logger:  logger,

		sendTimeout: defaultSendTimeout,
	}
}

// Run polls until ctx is done, then waits for in-flight updates.
func (p *Poller) Run(ctx context.Context) error {
	defer p.wg.Wait()

	p.logger.Info("telegram polling started", "poll_timeout", p.timeout)

	var (
		offset  int64
		backoff = pollBackoff()
	)
	for {
		updates, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if ctx.Err() != nil {
			p.logger.Info("telegram polling stopped")
			return nil
		}
		if err != nil {
			wait, _ := backoff.Next()
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				wait = apiErr.RetryAfter
			}
			p.logger.Warn("polling telegram", "error", err, "retry_in", wait)
			if !sleep(ctx, wait) {
				return nil
			}
			continue
		}
		backoff = pollBackoff()

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			p.wg.Add(1)
			go p.dispatch(context.WithoutCancel(ctx), u)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, u Update) {
	defer p.wg.Done()

	logger := p.logger.With("request_id", uuid.NewString(), "update_id", u.UpdateID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("update handler panicked", "panic", fmt.Sprint(r))
		}
	}()

	msg := u.Message
	if msg == nil || msg.From == nil || msg.From.IsBot || msg.Text == "" {
		return
	}

	sender := feedback.AuthorFromInt(msg.From.ID, msg.From.Username, msg.From.FirstName)
	out := &chatResponder{sender: p.sender, chatID: msg.Chat.ID, messageID: msg.MessageID, timeout: p.sendTimeout}

	var err error
	if name, args, ok := ParseCommand(msg.Text); ok {
		logger.Debug("handling command", "command", name, "chat_id", msg.Chat.ID)
		err = p.handler.HandleCommand(ctx, bot.Command{Name: name, Args: args, Sender: sender}, out)
	} else {
		err = p.handler.HandleMessage(ctx, bot.Message{Sender: sender, Text: msg.Text}, out)
	}
	if err != nil {
		logger.Error("sending reply", "chat_id", msg.Chat.ID, "error", err)
	}
}

type chatResponder struct {
	sender    Sender
	chatID    int64
	messageID int64
	timeout   time.Duration
}

func (r *chatResponder) Respond(ctx context.Context, reply bot.Reply) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	params := SendMessageParams{ChatID: r.chatID, Text: reply.Text}
	if reply.Quote {
		params.ReplyToMessageID = r.messageID
	}
	return r.sender.SendMessage(ctx, params)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
