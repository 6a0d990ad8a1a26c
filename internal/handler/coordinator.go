package handler

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"harvester-bot/internal/game"
	"harvester-bot/internal/game/duel"
	"harvester-bot/internal/game/roll"
	"harvester-bot/internal/game/trivia"
	"harvester-bot/internal/pkg/scheduler"
	"harvester-bot/internal/service"
)

// TTLs are the lifetimes of messages the coordinator sends or cleans up.
type TTLs struct {
	Command       time.Duration
	Warning       time.Duration
	TriviaWarning time.Duration
	Waiting       time.Duration
	RollResult    time.Duration
	Leaderboard   time.Duration
}

// DefaultTTLs returns the stock lifetimes.
func DefaultTTLs() TTLs {
	return TTLs{
		Command:       5 * time.Second,
		Warning:       30 * time.Second,
		TriviaWarning: 10 * time.Second,
		Waiting:       60 * time.Second,
		RollResult:    150 * time.Second,
		Leaderboard:   300 * time.Second,
	}
}

// Media holds the backgrounds of the picture cards.
type Media struct {
	PriceBackground string
	Morning         string
	Night           string
}

// Dependencies are the collaborators of the coordinator. Relay, Prices and Cards
// may be nil, which disables the matching feature.
type Dependencies struct {
	ChatID    int64
	Gateway   Gateway
	Notifier  *ChatNotifier
	Scheduler scheduler.Scheduler
	Trivia    *trivia.Engine
	Roll      *roll.Engine
	Duel      *duel.Engine
	Ranking   *service.RankingService
	Relay     Relay
	Prices    PriceSource
	Cards     CardRenderer
	Media     Media
	TTLs      TTLs
	// RecentWindow drops relayed messages older than this. Zero disables the check.
	RecentWindow time.Duration
	Rand         game.Rand
}

// Coordinator owns no game state; it enforces chat scope and privileges, renders
// user errors and hands everything else to the engines.
type Coordinator struct {
	chatID   int64
	gw       Gateway
	notifier *ChatNotifier
	trivia   *trivia.Engine
	roll     *roll.Engine
	duel     *duel.Engine
	ranking  *service.RankingService
	relay    Relay
	prices   PriceSource
	cards    CardRenderer
	media    Media
	ttl      TTLs
	recent   time.Duration
	rng      game.Rand
	now      func() time.Time
}

// New creates a coordinator.
func New(deps Dependencies) *Coordinator {
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NewChatNotifier(deps.Gateway, deps.Scheduler, deps.ChatID)
	}
	return &Coordinator{
		chatID:   deps.ChatID,
		gw:       deps.Gateway,
		notifier: notifier,
		trivia:   deps.Trivia,
		roll:     deps.Roll,
		duel:     deps.Duel,
		ranking:  deps.Ranking,
		relay:    deps.Relay,
		prices:   deps.Prices,
		cards:    deps.Cards,
		media:    deps.Media,
		ttl:      deps.TTLs,
		recent:   deps.RecentWindow,
		rng:      rng,
		now:      time.Now,
	}
}

// ChatID returns the community chat the coordinator serves.
func (c *Coordinator) ChatID() int64 {
	return c.chatID
}

// inScope reports whether ev belongs to the community chat.
func (c *Coordinator) inScope(ev Event) bool {
	if ev.ChatID != c.chatID {
		log.Debug().Int64("chat_id", ev.ChatID).Msg("Ignoring event from foreign chat")
		return false
	}
	return true
}

// command runs fn for a slash command. The command message is deleted after the
// command TTL even when fn panics.
func (c *Coordinator) command(ctx context.Context, name string, ev Event, fn func(context.Context, Event)) {
	if !c.inScope(ev) {
		return
	}
	defer c.notifier.DeleteAfter(ev.ChatID, ev.MessageID, c.ttl.Command)
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("command", name).
				Int64("user_id", ev.Sender.ID).
				Msg("Recovered from panic in command")
		}
	}()

	log.Info().Str("command", name).Int64("user_id", ev.Sender.ID).Str("user", ev.Sender.Name()).Msg("Command received")
	fn(ctx, ev)
}

// reply answers ev and deletes the answer after ttl (ttl <= 0 keeps it).
func (c *Coordinator) reply(ctx context.Context, ev Event, text string, ttl time.Duration) {
	c.send(ctx, ev.ChatID, text, SendOptions{ReplyTo: ev.MessageID}, ttl)
}

// send posts text to chatID and deletes it after ttl.
func (c *Coordinator) send(ctx context.Context, chatID int64, text string, opts SendOptions, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	id, err := c.gw.Send(ctx, chatID, text, opts)
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
		return
	}
	c.notifier.DeleteAfter(chatID, id, ttl)
}

// requireAdmin checks the sender's privilege on every call. Lookup failures deny.
func (c *Coordinator) requireAdmin(ctx context.Context, ev Event, denial string, ttl time.Duration) bool {
	lookupCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	priv, err := c.gw.Privilege(lookupCtx, ev.ChatID, ev.Sender.ID)
	cancel()
	if err != nil {
		log.Warn().Err(err).Int64("user_id", ev.Sender.ID).Msg("Privilege lookup failed")
		c.reply(ctx, ev, msgVerifyFailed, ttl)
		return false
	}
	if !priv.IsAdmin() {
		log.Info().Int64("user_id", ev.Sender.ID).Str("privilege", priv.String()).Msg("Admin command denied")
		c.reply(ctx, ev, denial, ttl)
		return false
	}
	return true
}

// isRecent reports whether ev is fresh enough to process.
func (c *Coordinator) isRecent(ev Event) bool {
	if c.recent <= 0 || ev.Date.IsZero() {
		return true
	}
	return c.now().Sub(ev.Date) < c.recent
}
