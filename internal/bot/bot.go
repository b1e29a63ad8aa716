package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Houeta/chrono-dash/internal/models"
	"github.com/Houeta/chrono-dash/internal/repository/sqlite"
	"gopkg.in/telebot.v4"
)

// handlerTimeout bounds the storage work done inside a command handler.
const handlerTimeout = 5 * time.Second

// Bot contains the bot API instance and other information.
type Bot struct {
	bot  API
	log  *slog.Logger
	repo sqlite.SubscriptionRepository
}

// NewBot connects to Telegram and registers the command handlers.
func NewBot(log *slog.Logger, token string, poller time.Duration, repo sqlite.SubscriptionRepository) (*Bot, error) {
	tgBot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on acount", "account", tgBot.Me.Username)

	botInstance := &Bot{bot: tgBot, log: log, repo: repo}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/stop", b.stopHandler)
}

// NotifyChange sends a short summary of change to every subscribed chat.
// A chat that cannot be reached is logged and skipped.
func (b *Bot) NotifyChange(ctx context.Context, watcher *models.Watcher, change *models.Change) error {
	const opn = "bot.NotifyChange"

	chats, err := b.repo.GetSubscribedChats(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to load subscribers: %w", opn, err)
	}

	text := FormatChange(watcher, change)
	for _, id := range chats {
		if _, err = b.bot.Send(telebot.ChatID(id), text); err != nil {
			b.log.WarnContext(ctx, "Failed to notify chat", "op", opn, "chat_id", id, "error", err)
		}
	}

	return nil
}

// FormatChange renders the notification text.
func FormatChange(watcher *models.Watcher, change *models.Change) string {
	var sb strings.Builder

	title := watcher.Title
	if title == "" {
		title = watcher.URL
	}
	sb.WriteString("Change detected: " + title + "\n")
	sb.WriteString(watcher.URL + "\n")

	if change.OldValue != "" || change.NewValue != "" {
		sb.WriteString(change.OldValue + " -> " + change.NewValue + "\n")
	}
	if change.DiffURL != "" {
		sb.WriteString("Diff: " + change.DiffURL + "\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
