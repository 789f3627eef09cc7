// Package telegram connects the conversation controller to the Telegram Bot
// API using long polling.
package telegram

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/pizza-nz/lunch-bot/internal/bot"
)

// API is the subset of *tgbotapi.BotAPI the poller uses
type API interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler processes one conversation event
type Handler interface {
	Handle(ctx context.Context, u bot.Update) bot.Response
}

// Options tunes the poller
type Options struct {
	PollTimeout int           // Long polling timeout in seconds
	RetryDelay  time.Duration // Pause after a failed poll
	IdleTimeout time.Duration // Chat workers exit after this long without updates
	QueueSize   int           // Pending updates per chat
}

func (o Options) withDefaults() Options {
	if o.PollTimeout <= 0 {
		o.PollTimeout = 30
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 3 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 5 * time.Minute
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 16
	}
	return o
}

// Poller fetches updates and hands them to per-chat workers, so events of
// one chat are handled in order while different chats run concurrently.
type Poller struct {
	api     API
	handler Handler
	opts    Options
	logger  *logrus.Logger

	mu      sync.Mutex
	workers map[int64]chan tgbotapi.Update
	wg      sync.WaitGroup
}

// NewPoller creates a poller
func NewPoller(api API, handler Handler, opts Options, logger *logrus.Logger) *Poller {
	return &Poller{
		api:     api,
		handler: handler,
		opts:    opts.withDefaults(),
		logger:  logger,
		workers: make(map[int64]chan tgbotapi.Update),
	}
}

type pollResult struct {
	updates []tgbotapi.Update
	err     error
}

// Run polls until ctx is cancelled. It returns ErrInstanceConflict when
// another process polls with the same token.
func (p *Poller) Run(ctx context.Context) error {
	defer p.wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if _, err := p.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		if isConflict(err) {
			return ErrInstanceConflict
		}
		p.logger.Warnf("Failed to delete webhook: %v", err)
	}

	p.logger.Infof("Polling for updates (timeout %ds)", p.opts.PollTimeout)

	offset := 0
	for {
		results := make(chan pollResult, 1)
		go func(offset int) {
			updates, err := p.api.GetUpdates(tgbotapi.UpdateConfig{
				Offset:  offset,
				Timeout: p.opts.PollTimeout,
			})
			results <- pollResult{updates: updates, err: err}
		}(offset)

		var res pollResult
		select {
		case <-ctx.Done():
			p.logger.Info("Polling stopped")
			return nil
		case res = <-results:
		}

		if res.err != nil {
			if isConflict(res.err) {
				return ErrInstanceConflict
			}
			p.logger.Warnf("Failed to get updates: %v", res.err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.opts.RetryDelay):
			}
			continue
		}

		for _, u := range res.updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			p.dispatch(ctx, u)
		}
	}
}

// dispatch queues u on its chat worker, starting one if needed
func (p *Poller) dispatch(ctx context.Context, u tgbotapi.Update) {
	chatID := chatOf(u)

	p.mu.Lock()
	queue, ok := p.workers[chatID]
	if !ok {
		queue = make(chan tgbotapi.Update, p.opts.QueueSize)
		p.workers[chatID] = queue
		p.wg.Add(1)
		go p.work(ctx, chatID, queue)
	}
	select {
	case queue <- u:
		p.mu.Unlock()
		return
	default:
	}
	p.mu.Unlock()

	// The queue is full, so the worker cannot retire before draining it.
	select {
	case queue <- u:
	case <-ctx.Done():
	}
}

func (p *Poller) work(ctx context.Context, chatID int64, queue chan tgbotapi.Update) {
	defer p.wg.Done()

	idle := time.NewTimer(p.opts.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case u := <-queue:
			p.process(ctx, u)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(p.opts.IdleTimeout)
		case <-idle.C:
			p.mu.Lock()
			if len(queue) == 0 {
				delete(p.workers, chatID)
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
			idle.Reset(p.opts.IdleTimeout)
		}
	}
}

func chatOf(u tgbotapi.Update) int64 {
	switch {
	case u.Message != nil && u.Message.Chat != nil:
		return u.Message.Chat.ID
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil && u.CallbackQuery.Message.Chat != nil:
		return u.CallbackQuery.Message.Chat.ID
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		return u.CallbackQuery.From.ID
	}
	return 0
}

func (p *Poller) process(ctx context.Context, u tgbotapi.Update) {
	upd, ok := toUpdate(u)
	if !ok {
		if u.CallbackQuery != nil {
			p.answer(u.CallbackQuery.ID, bot.Response{})
		}
		p.logger.Tracef("Ignoring update %d", u.UpdateID)
		return
	}

	resp := p.handler.Handle(ctx, upd)

	if u.CallbackQuery != nil {
		p.answer(u.CallbackQuery.ID, resp)
	}
	if resp.Screen == nil {
		return
	}

	var msg *tgbotapi.Message
	if u.CallbackQuery != nil {
		msg = u.CallbackQuery.Message
	}
	if resp.Edit && msg != nil {
		p.edit(upd.ChatID, msg.MessageID, upd.Current, resp.Screen)
		return
	}
	p.send(upd.ChatID, resp.Screen)
}

// answer acknowledges a callback so the client stops its spinner
func (p *Poller) answer(queryID string, resp bot.Response) {
	cfg := tgbotapi.NewCallback(queryID, resp.Answer)
	if resp.Alert {
		cfg = tgbotapi.NewCallbackWithAlert(queryID, resp.Answer)
	}
	if _, err := p.api.Request(cfg); err != nil {
		p.logger.Debugf("Failed to answer callback %s: %v", queryID, err)
	}
}

func (p *Poller) edit(chatID int64, messageID int, current, screen *bot.Screen) {
	if current != nil && current.Equal(screen) {
		p.logger.Debugf("Message %d already shows this screen", messageID)
		return
	}

	var cfg tgbotapi.EditMessageTextConfig
	if markup := toMarkup(screen.Keyboard); markup != nil {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, screen.Text, *markup)
	} else {
		cfg = tgbotapi.NewEditMessageText(chatID, messageID, screen.Text)
	}

	_, err := p.api.Send(cfg)
	switch {
	case err == nil:
	case isNotModified(err):
		p.logger.Debugf("Message %d not modified", messageID)
	case isRateLimited(err):
		p.logger.Warnf("Rate limited while editing message %d: %v", messageID, err)
	case isEditGone(err):
		p.logger.Debugf("Message %d cannot be edited, sending a new one", messageID)
		p.send(chatID, screen)
	default:
		p.logger.Errorf("Failed to edit message %d: %v", messageID, err)
		p.send(chatID, screen)
	}
}

func (p *Poller) send(chatID int64, screen *bot.Screen) {
	msg := tgbotapi.NewMessage(chatID, screen.Text)
	if markup := toMarkup(screen.Keyboard); markup != nil {
		msg.ReplyMarkup = *markup
	}

	if _, err := p.api.Send(msg); err != nil {
		if isRateLimited(err) {
			p.logger.Warnf("Rate limited while sending to chat %d: %v", chatID, err)
			return
		}
		if _, description, ok := apiError(err); ok {
			p.logger.Errorf("Telegram rejected message to chat %d: %s", chatID, description)
			return
		}
		p.logger.Errorf("Failed to send message to chat %d: %v", chatID, err)
	}
}
