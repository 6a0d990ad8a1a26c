package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v3"
	"pgregory.net/rapid"

	"harvester-bot/internal/config"
)

// fakeContext implements the parts of tele.Context the middleware touches.
type fakeContext struct {
	tele.Context
	chat   *tele.Chat
	sender *tele.User
	text   string
}

func (c *fakeContext) Chat() *tele.Chat   { return c.chat }
func (c *fakeContext) Sender() *tele.User { return c.sender }
func (c *fakeContext) Text() string       { return c.text }

func runChain(mw tele.MiddlewareFunc, c tele.Context) (called bool, err error) {
	h := mw(func(tele.Context) error {
		called = true
		return nil
	})
	err = h(c)
	return called, err
}

// For any chat id, the handler runs if and only if the id is the configured chat.
func TestChatScopeMiddlewareProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		target := -rapid.Int64Range(1, 1_000_000_000_000).Draw(t, "target")
		chatID := rapid.OneOf(
			rapid.Just(target),
			rapid.Int64Range(-1_000_000_000_000, 1_000_000_000_000),
		).Draw(t, "chatID")

		cfg := &config.Config{Bot: config.BotConfig{ChatID: target}}
		c := &fakeContext{chat: &tele.Chat{ID: chatID, Type: tele.ChatSuperGroup}, sender: &tele.User{ID: 7}}

		called, err := runChain(ChatScopeMiddleware(cfg), c)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if called != (chatID == target) {
			t.Fatalf("chat %d with target %d: called=%v", chatID, target, called)
		}
	})
}

func TestChatScopeMiddleware_DropsUpdatesWithoutChat(t *testing.T) {
	cfg := &config.Config{Bot: config.BotConfig{ChatID: -100}}
	called, err := runChain(ChatScopeMiddleware(cfg), &fakeContext{})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestChatScopeMiddleware_DropsPrivateChats(t *testing.T) {
	cfg := &config.Config{Bot: config.BotConfig{ChatID: -100}}
	c := &fakeContext{chat: &tele.Chat{ID: 55, Type: tele.ChatPrivate}, sender: &tele.User{ID: 55}}
	called, err := runChain(ChatScopeMiddleware(cfg), c)
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware()(func(tele.Context) error {
		panic("boom")
	})
	var err error
	assert.NotPanics(t, func() { err = h(&fakeContext{}) })
	assert.NoError(t, err)

	want := errors.New("handler failed")
	h = RecoveryMiddleware()(func(tele.Context) error { return want })
	assert.ErrorIs(t, h(&fakeContext{}), want)
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	c := &fakeContext{chat: &tele.Chat{ID: -1}, sender: &tele.User{ID: 2, Username: "x"}, text: "/roll"}
	called, err := runChain(LoggingMiddleware(), c)
	assert.NoError(t, err)
	assert.True(t, called)
}
