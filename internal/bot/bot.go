// Package bot connects the session coordinator to Telegram.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"harvester-bot/internal/config"
	"harvester-bot/internal/handler"
	"harvester-bot/internal/model"
)

// Commands is the command menu published with SetCommands.
var Commands = []tele.Command{
	{Text: "rpdao_trivia", Description: "Start the Trivia (admins)"},
	{Text: "rpdao_trivia_off", Description: "Stop the Trivia (admins)"},
	{Text: "start_roll", Description: "Start a /roll round (admins)"},
	{Text: "stop_roll", Description: "Stop the round and tournament (admins)"},
	{Text: "roll", Description: "Roll a number from 0 to 100"},
	{Text: "reroll_on", Description: "Enable /reroll duels (admins)"},
	{Text: "reroll_off", Description: "Disable /reroll duels (admins)"},
	{Text: "reroll", Description: "Play rock-paper-scissors"},
	{Text: "score", Description: "Show the leaderboard"},
	{Text: "price", Description: "Show the current BTC price"},
	{Text: "gm", Description: "Good morning card"},
	{Text: "gn", Description: "Good night card"},
}

// Bot wraps the telebot instance.
type Bot struct {
	bot   *tele.Bot
	cfg   *config.Config
	coord *handler.Coordinator
	ctx   context.Context
}

// settings builds the client options. Updates are handled one at a time in
// arrival order.
func settings(cfg *config.Config) tele.Settings {
	return tele.Settings{
		Token:       cfg.Bot.Token,
		Poller:      &tele.LongPoller{Timeout: cfg.Bot.PollTimeout},
		Client:      &http.Client{Timeout: cfg.Bot.RequestTimeout + cfg.Bot.PollTimeout},
		Synchronous: true,
		OnError: func(err error, c tele.Context) {
			ev := log.Error().Err(err)
			if c != nil && c.Chat() != nil {
				ev = ev.Int64("chat_id", c.Chat().ID)
			}
			ev.Msg("Telegram handler error")
		},
	}
}

// New creates the Telegram client. Handlers are attached by Register.
func New(cfg *config.Config) (*Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := settings(cfg)
	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{bot: teleBot, cfg: cfg, ctx: context.Background()}
	b.registerMiddleware()
	return b, nil
}

// Gateway returns the messaging gateway backed by this bot.
func (b *Bot) Gateway() *Gateway {
	return NewGateway(b.bot)
}

// Register attaches coord to every command and message endpoint.
func (b *Bot) Register(coord *handler.Coordinator) {
	b.coord = coord
	b.registerHandlers()
}

func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(ChatScopeMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

func (b *Bot) registerHandlers() {
	// Trivia
	b.bot.Handle("/rpdao_trivia", b.on(b.coord.HandleStartTrivia))
	b.bot.Handle("/rpdao_trivia_off", b.on(b.coord.HandleStopTrivia))

	// Roll and duels
	b.bot.Handle("/start_roll", b.on(b.coord.HandleStartRoll))
	b.bot.Handle("/stop_roll", b.on(b.coord.HandleStopRoll))
	b.bot.Handle("/roll", b.on(b.coord.HandleRoll))
	b.bot.Handle("/reroll_on", b.on(b.coord.HandleRerollOn))
	b.bot.Handle("/reroll_off", b.on(b.coord.HandleRerollOff))
	b.bot.Handle("/reroll", b.on(b.coord.HandleReroll))

	// Leaderboard
	b.bot.Handle("/score", b.on(b.coord.HandleScore))

	// Cards
	b.bot.Handle("/price", b.on(b.coord.HandlePrice))
	b.bot.Handle("/gm", b.on(b.coord.HandleGoodMorning))
	b.bot.Handle("/gn", b.on(b.coord.HandleGoodNight))

	// Guesses and relay
	b.bot.Handle(tele.OnText, b.on(b.coord.HandleText))
	b.bot.Handle(tele.OnPhoto, b.on(b.coord.HandlePhoto))

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// on adapts a coordinator method to a telebot handler.
func (b *Bot) on(fn func(context.Context, handler.Event)) tele.HandlerFunc {
	return func(c tele.Context) error {
		m := c.Message()
		if m == nil {
			return nil
		}
		fn(b.ctx, EventFromMessage(m))
		return nil
	}
}

// handleCallback routes inline button presses.
func (b *Bot) handleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	defer func() {
		if err := c.Respond(); err != nil {
			log.Debug().Err(err).Msg("Failed to answer callback")
		}
	}()

	// Telebot v3 may add a \f prefix to callback data
	data := strings.TrimPrefix(cb.Data, "\f")
	if !strings.HasPrefix(data, handler.ScoreCallbackPrefix) || cb.Message == nil || cb.Message.Chat == nil {
		log.Debug().Str("data", data).Msg("Ignoring unknown callback")
		return nil
	}
	b.coord.HandleScoreCallback(b.ctx, cb.Message.Chat.ID, cb.Message.ID, data)
	return nil
}

// EventFromMessage converts a Telegram message to a coordinator event.
func EventFromMessage(m *tele.Message) handler.Event {
	ev := handler.Event{
		MessageID: m.ID,
		Sender:    senderOf(m),
		Text:      m.Text,
		Payload:   m.Payload,
		Date:      m.Time(),
		Caption:   m.Caption,
	}
	if m.Chat != nil {
		ev.ChatID = m.Chat.ID
	}
	if m.Photo != nil {
		ev.PhotoFileID = m.Photo.FileID
	}
	if r := m.ReplyTo; r != nil {
		q := &handler.Quoted{Text: r.Text}
		if q.Text == "" {
			q.Text = r.Caption
		}
		if r.Sender != nil {
			q.Author = strings.TrimSpace(r.Sender.FirstName)
		}
		ev.ReplyTo = q
	}
	return ev
}

// senderOf returns the message author. Posts on behalf of a channel or an
// anonymous admin are treated like bots.
func senderOf(m *tele.Message) model.Player {
	if m.SenderChat != nil {
		return model.Player{ID: m.SenderChat.ID, DisplayName: m.SenderChat.Title, Handle: m.SenderChat.Username, IsBot: true}
	}
	if m.Sender == nil {
		return model.Player{}
	}
	return playerOf(m.Sender)
}

// SetCommands publishes the command menu.
func (b *Bot) SetCommands() error {
	if err := b.bot.SetCommands(Commands); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	log.Info().Int("count", len(Commands)).Msg("Bot commands published")
	return nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if b.coord == nil {
		return fmt.Errorf("bot has no coordinator registered")
	}
	b.ctx = ctx

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info().Int64("chat_id", b.cfg.Bot.ChatID).Msg("Starting bot...")
		b.bot.Start()
	}()

	<-ctx.Done()
	log.Info().Msg("Stopping bot...")
	go b.bot.Stop()
	select {
	case <-done:
	case <-time.After(b.cfg.Bot.PollTimeout + 5*time.Second):
		log.Warn().Msg("Timed out waiting for poller to stop")
	}
	return nil
}
