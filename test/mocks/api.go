package mocks

import (
	"github.com/stretchr/testify/mock"
	"gopkg.in/telebot.v4"
)

// API is a mock of bot.API.
type API struct {
	mock.Mock
}

// NewAPI creates a mock that asserts its expectations on cleanup.
func NewAPI(t testingT) *API {
	m := &API{}
	register(&m.Mock, t)

	return m
}

func (m *API) Handle(endpoint interface{}, h telebot.HandlerFunc, _ ...telebot.MiddlewareFunc) {
	m.Called(endpoint, h)
}

func (m *API) Start() {
	m.Called()
}

func (m *API) Stop() {
	m.Called()
}

func (m *API) Send(to telebot.Recipient, what interface{}, _ ...interface{}) (*telebot.Message, error) {
	ret := m.Called(to, what)

	var msg *telebot.Message
	if v := ret.Get(0); v != nil {
		msg = v.(*telebot.Message)
	}

	return msg, ret.Error(1)
}
