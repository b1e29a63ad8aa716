package sqlite

import (
	"context"
	"fmt"
)

// SubscribeChat registers a chat for change notifications.
// It reports false when the chat was already subscribed.
func (r *Repository) SubscribeChat(ctx context.Context, chatID int64) (bool, error) {
	const opn = "repository.sqlite.SubscribeChat"

	added, err := r.execAffected(ctx, "INSERT OR IGNORE INTO subscriptions (chat_id) VALUES (?)", chatID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", opn, err)
	}

	return added > 0, nil
}

// UnsubscribeChat removes a chat. It reports false when the chat was not subscribed.
func (r *Repository) UnsubscribeChat(ctx context.Context, chatID int64) (bool, error) {
	const opn = "repository.sqlite.UnsubscribeChat"

	removed, err := r.execAffected(ctx, "DELETE FROM subscriptions WHERE chat_id = ?", chatID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", opn, err)
	}

	return removed > 0, nil
}

// GetSubscribedChats lists the chats that receive change notifications, lowest id first.
func (r *Repository) GetSubscribedChats(ctx context.Context) ([]int64, error) {
	const opn = "repository.sqlite.GetSubscribedChats"

	rows, err := r.db.QueryContext(ctx, "SELECT chat_id FROM subscriptions ORDER BY chat_id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	defer rows.Close()

	chats := make([]int64, 0)
	for rows.Next() {
		var chatID int64
		if err = rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("%s: failed to scan chat_id: %w", opn, err)
		}
		chats = append(chats, chatID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return chats, nil
}
