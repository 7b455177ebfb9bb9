// Package bot implements the organizer's Telegram bot.
//
// Admins (chat ids from config) receive new-registration notices, forwarded
// error logs and a periodic guest-list summary, and can moderate from the chat:
//
//	/stats            totals per status and admitted count
//	/pending          pending requests with their ids
//	/approve <id>     approve and send the admission email
//	/reject <id>      reject a pending request
package bot

import (
	"context"
	"fmt"
	"guestlist/entity"
	"guestlist/lib/sl"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/go-co-op/gocron/v2"
)

// Core is the part of the application the bot drives.
type Core interface {
	ListGuests(ctx context.Context) ([]*entity.Guest, error)
	GuestStats(ctx context.Context) (entity.GuestStats, error)
	ApproveGuest(ctx context.Context, id string) (*entity.Guest, bool, error)
	RejectGuest(ctx context.Context, id string) error
}

type BotConfig struct {
	AdminIds []int64
	// SummaryInterval enables the periodic summary when positive.
	SummaryInterval time.Duration
}

type TgBot struct {
	log       *slog.Logger
	api       *tgbotapi.Bot
	core      Core
	updater   *ext.Updater
	scheduler gocron.Scheduler
	config    BotConfig

	// mu guards the lifecycle: Start and Stop run on different goroutines.
	mu      sync.Mutex
	polling bool
	stopped bool
}

// NewTgBot validates the token against the Telegram API. The logger should not
// forward records back to Telegram.
func NewTgBot(apiKey string, log *slog.Logger, cfg BotConfig) (*TgBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	return newTgBot(api, log, cfg), nil
}

func newTgBot(api *tgbotapi.Bot, log *slog.Logger, cfg BotConfig) *TgBot {
	tgBot := &TgBot{
		log:    log.With(sl.Module("tgbot")),
		api:    api,
		config: cfg,
	}

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			tgBot.log.Warn("handling update", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	dispatcher.AddHandler(handlers.NewCommand("start", tgBot.help))
	dispatcher.AddHandler(handlers.NewCommand("help", tgBot.help))
	dispatcher.AddHandler(handlers.NewCommand("stats", tgBot.stats))
	dispatcher.AddHandler(handlers.NewCommand("pending", tgBot.pending))
	dispatcher.AddHandler(handlers.NewCommand("approve", tgBot.approve))
	dispatcher.AddHandler(handlers.NewCommand("reject", tgBot.reject))
	tgBot.updater = ext.NewUpdater(dispatcher, nil)

	return tgBot
}

func (t *TgBot) SetCore(core Core) {
	t.core = core
}

// Start begins polling and blocks until Stop. It returns at once when Stop
// was called first.
func (t *TgBot) Start() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	if t.config.SummaryInterval > 0 {
		if err := t.startSummary(t.config.SummaryInterval); err != nil {
			t.log.Error("summary scheduler", sl.Err(err))
		}
	}

	t.setCommands()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		t.mu.Unlock()
		return fmt.Errorf("failed to start polling: %w", err)
	}
	t.polling = true
	t.mu.Unlock()
	t.log.With(slog.Int("admins", len(t.config.AdminIds))).Info("telegram bot started")

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true

	if t.scheduler != nil {
		_ = t.scheduler.Shutdown()
	}
	if t.polling {
		t.log.Info("stopping telegram bot")
		_ = t.updater.Stop()
	}
}

// SendMessageWithLevel sends a preformatted MarkdownV2 message to every admin.
func (t *TgBot) SendMessageWithLevel(msg string, _ slog.Level) {
	t.notifyAdmins(msg)
}

// Announce sends a plain text notice to every admin.
func (t *TgBot) Announce(topic, msg string) {
	t.notifyAdmins(fmt.Sprintf("*%s*\n%s", Sanitize(topic), Sanitize(msg)))
}

func (t *TgBot) notifyAdmins(msg string) {
	for _, id := range t.config.AdminIds {
		t.plainResponse(id, msg)
	}
}

func (t *TgBot) isAdmin(chatId int64) bool {
	for _, id := range t.config.AdminIds {
		if id == chatId {
			return true
		}
	}
	return false
}
