package bot

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v4"
)

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	b.log.Info("User started the bot", "username", ctx.Sender().Username)

	opCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	created, err := b.repo.SubscribeChat(opCtx, ctx.Chat().ID)
	if err != nil {
		return fmt.Errorf("failed to subscribe chat: %w", err)
	}

	reply := "Subscribed. You will get a message for every detected change."
	if !created {
		reply = "You are already subscribed."
	}

	if err = ctx.Send(reply); err != nil {
		return fmt.Errorf("failed to send greeting message: %w", err)
	}

	return nil
}

// stopHandler process command /stop.
func (b *Bot) stopHandler(ctx telebot.Context) error {
	opCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	removed, err := b.repo.UnsubscribeChat(opCtx, ctx.Chat().ID)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe chat: %w", err)
	}

	reply := "Unsubscribed."
	if !removed {
		reply = "You were not subscribed."
	}

	if err = ctx.Send(reply); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}

	return nil
}
