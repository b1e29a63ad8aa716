package bot

import "gopkg.in/telebot.v4"

// API is the part of *telebot.Bot the dashboard bot uses; tests replace it with a mock.
type API interface {
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
	// Start blocks while polling for updates.
	Start()
	Stop()
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}
