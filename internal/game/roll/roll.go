// Package roll implements the fixed-window number roll contest. A tie for the
// highest roll is handed to the duel bracket instead of being paid out.
package roll

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"harvester-bot/internal/game"
	"harvester-bot/internal/game/duel"
	"harvester-bot/internal/model"
	"harvester-bot/internal/pkg/scheduler"
)

// Config holds the contest window, roll range and reward.
type Config struct {
	Duration time.Duration
	Min      int
	Max      int
	Reward   int64
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{Duration: 120 * time.Second, Min: 0, Max: 100, Reward: 1}
}

// Bracket receives tied players when a round expires. Roll and duel sessions
// exclude each other; both checks run under the roll lock.
type Bracket interface {
	SeedTournament(players []model.Player) (duel.Pairing, error)
	EnableFreeMode() error
	Status() duel.Status
	Reset()
}

// Errors returned when roll and duel sessions would overlap.
var (
	ErrRoundInProgress = errors.New("roll round in progress")
	ErrFreeDuelsOn     = errors.New("free duels enabled")
)

// callbackTimeout bounds the work of one expiry callback.
const callbackTimeout = 30 * time.Second

// Entry is one recorded roll.
type Entry struct {
	Player model.Player
	Value  int
}

// Dependencies are the collaborators of the engine. Rand may be nil.
type Dependencies struct {
	Bracket   Bracket
	Ledger    game.ScoreLedger
	Notifier  game.Notifier
	Scheduler scheduler.Scheduler
	Rand      game.Rand
}

// Engine is the roll contest state machine. The engine lock is held while seeding
// or resetting the bracket, so lock order is always roll then duel.
type Engine struct {
	cfg      Config
	bracket  Bracket
	ledger   game.ScoreLedger
	notifier game.Notifier
	sched    scheduler.Scheduler
	rng      game.Rand

	mu      sync.Mutex
	active  bool
	gen     uint64
	roundID string
	task    scheduler.Task
	entries []Entry
	seen    map[int64]struct{}
}

// New creates a roll engine.
func New(cfg Config, deps Dependencies) *Engine {
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Engine{
		cfg:      cfg,
		bracket:  deps.Bracket,
		ledger:   deps.Ledger,
		notifier: deps.Notifier,
		sched:    deps.Scheduler,
		rng:      rng,
	}
}

// StartRound opens a round and schedules its expiry. It fails with
// duel.ErrBracketActive while a tie-break tournament is pending and with
// ErrFreeDuelsOn while free duels are enabled.
func (e *Engine) StartRound(ctx context.Context) error {
	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		return game.ErrAlreadyActive
	}
	switch e.bracket.Status().Mode {
	case duel.ModeTournament:
		e.mu.Unlock()
		return duel.ErrBracketActive
	case duel.ModeFree:
		e.mu.Unlock()
		return ErrFreeDuelsOn
	}
	e.active = true
	e.entries = nil
	e.seen = make(map[int64]struct{})
	e.gen++
	e.roundID = uuid.NewString()
	gen, roundID := e.gen, e.roundID
	if e.task != nil {
		e.task.Cancel()
	}
	e.task = e.sched.After(e.cfg.Duration, func() { e.expireRound(gen) })
	e.mu.Unlock()

	log.Info().Str("round_id", roundID).Dur("duration", e.cfg.Duration).Msg("Roll round started")
	e.notifier.Announce(ctx, game.Message{Text: FormatStart(e.cfg.Duration)})
	return nil
}

// EnableFreeDuels turns on free duels unless a round is running or a tournament
// is pending.
func (e *Engine) EnableFreeDuels() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active {
		return ErrRoundInProgress
	}
	return e.bracket.EnableFreeMode()
}

// SubmitRoll records one roll for player and returns the drawn value.
func (e *Engine) SubmitRoll(_ context.Context, player model.Player) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return 0, game.ErrRoundNotActive
	}
	if _, dup := e.seen[player.ID]; dup {
		return 0, game.ErrDuplicateSubmission
	}

	value := e.cfg.Min + e.rng.IntN(e.cfg.Max-e.cfg.Min+1)
	e.seen[player.ID] = struct{}{}
	e.entries = append(e.entries, Entry{Player: player, Value: value})

	log.Info().Str("round_id", e.roundID).Int64("user_id", player.ID).Int("value", value).Msg("Roll recorded")
	return value, nil
}

// ForceStop ends the round and clears any tournament bracket. It reports whether a
// round was running.
func (e *Engine) ForceStop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasActive := e.active
	e.active = false
	e.entries = nil
	e.seen = nil
	e.gen++
	if e.task != nil {
		e.task.Cancel()
		e.task = nil
	}
	e.bracket.Reset()

	log.Info().Str("round_id", e.roundID).Bool("was_active", wasActive).Msg("Roll round force-stopped")
	return wasActive
}

// Active reports whether a round is accepting rolls.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Entries returns the rolls of the current round in arrival order.
func (e *Engine) Entries() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Entry(nil), e.entries...)
}

func (e *Engine) expireRound(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
	defer cancel()

	e.mu.Lock()
	if gen != e.gen || !e.active {
		e.mu.Unlock()
		log.Debug().Uint64("generation", gen).Msg("Stale roll expiry ignored")
		return
	}

	roundID := e.roundID
	result := Tally(e.entries)
	e.active = false
	e.entries = nil
	e.seen = nil
	e.task = nil

	var (
		text    string
		winner  *model.Player
		seedErr error
	)
	switch len(result.Leaders) {
	case 0:
		text = FormatNoParticipants()
	case 1:
		winner = &result.Leaders[0].Player
		text = FormatWinner(*winner, result.Max)
	default:
		players := make([]model.Player, len(result.Leaders))
		for i, l := range result.Leaders {
			players[i] = l.Player
		}
		var pair duel.Pairing
		pair, seedErr = e.bracket.SeedTournament(players)
		text = FormatTie(players, result.Max, pair)
	}
	e.mu.Unlock()

	if seedErr != nil {
		log.Error().Err(seedErr).Str("round_id", roundID).Msg("Failed to seed tie-break bracket")
		return
	}

	if winner != nil {
		if _, err := game.Credit(ctx, e.ledger, winner.ID, e.cfg.Reward); err != nil {
			log.Error().Err(err).Int64("user_id", winner.ID).Msg("Failed to credit roll reward")
		}
	}
	log.Info().
		Str("round_id", roundID).
		Int("max", result.Max).
		Int("leaders", len(result.Leaders)).
		Msg("Roll round expired")
	e.notifier.Announce(ctx, game.Message{Text: text})
}

// Result is the tally of a round.
type Result struct {
	Max     int
	Leaders []Entry
}

// Tally finds the highest value and every entry holding it, in arrival order.
func Tally(entries []Entry) Result {
	var res Result
	for i, en := range entries {
		switch {
		case i == 0 || en.Value > res.Max:
			res.Max = en.Value
			res.Leaders = []Entry{en}
		case en.Value == res.Max:
			res.Leaders = append(res.Leaders, en)
		}
	}
	return res
}
