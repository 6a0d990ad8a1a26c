// Package duel implements the rock-paper-scissors duel bracket used to break roll
// ties (tournament mode) and for ad-hoc duels (free mode).
package duel

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"harvester-bot/internal/game"
	"harvester-bot/internal/model"
)

// Errors returned by the duel engine.
var (
	ErrRerollDisabled   = fmt.Errorf("reroll disabled: %w", game.ErrNotPermitted)
	ErrNotDuelist       = fmt.Errorf("not in the current duel: %w", game.ErrNotPermitted)
	ErrAlreadyPlayed    = errors.New("move already submitted for this duel")
	ErrNotEnoughPlayers = errors.New("a bracket needs at least two players")
	ErrBracketActive    = errors.New("tournament bracket in progress")
)

// Mode is the bracket mode.
type Mode int

// Modes.
const (
	ModeOff Mode = iota
	ModeTournament
	ModeFree
)

func (m Mode) String() string {
	switch m {
	case ModeTournament:
		return "tournament"
	case ModeFree:
		return "free"
	default:
		return "off"
	}
}

// DrawPolicy decides what a drawn tournament duel does to the bracket.
type DrawPolicy string

// Draw policies.
const (
	// DrawRematch keeps the same pair for an immediate rematch.
	DrawRematch DrawPolicy = "rematch"
	// DrawRequeue sends the pair to the back of the queue and lets the next two
	// queued players duel. With nobody queued it behaves like DrawRematch.
	DrawRequeue DrawPolicy = "requeue"
)

// ParseDrawPolicy parses a configured policy name. Empty means DrawRematch.
func ParseDrawPolicy(s string) (DrawPolicy, error) {
	switch DrawPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DrawRematch:
		return DrawRematch, nil
	case DrawRequeue:
		return DrawRequeue, nil
	default:
		return "", fmt.Errorf("unknown draw policy %q", s)
	}
}

// Pairing is the pair of players allowed to submit moves in the current duel.
type Pairing struct {
	First  model.Player
	Second model.Player
}

// Contains reports whether userID is one of the pair.
func (p Pairing) Contains(userID int64) bool {
	return p.First.ID == userID || p.Second.ID == userID
}

// state is the duel state: waitingForFirstMove, waitingForSecondMove or resolved.
type state interface{ isState() }

type waitingForFirstMove struct{}

type waitingForSecondMove struct {
	first model.Player
	move  Move
}

type resolved struct{}

func (waitingForFirstMove) isState()  {}
func (waitingForSecondMove) isState() {}
func (resolved) isState()             {}

// OutcomeKind classifies the result of SubmitMove.
type OutcomeKind int

// Outcome kinds.
const (
	OutcomeWaiting OutcomeKind = iota
	OutcomeDraw
	OutcomeWin
)

// Side is one player's move in a resolved duel.
type Side struct {
	Player model.Player
	Move   Move
}

// Outcome is the result of a move submission.
type Outcome struct {
	Kind OutcomeKind
	Mode Mode
	// Move is the submitter's move.
	Move Move
	// First and Second are set once the duel resolves, in submission order.
	First  Side
	Second Side
	Winner *model.Player
	// Next is the pair for the following duel, if any.
	Next     *Pairing
	Champion bool
}

// Status is a snapshot of the bracket.
type Status struct {
	Mode    Mode
	Pair    *Pairing
	Queue   []model.Player
	Waiting *model.Player
}

// Config holds duel rewards and policies.
type Config struct {
	Reward     int64
	DrawPolicy DrawPolicy
	DrawTTL    time.Duration
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{Reward: 1, DrawPolicy: DrawRematch, DrawTTL: 60 * time.Second}
}

// Engine is the duel bracket. Its lock may be taken while the roll engine holds
// its own lock; the duel engine never calls back into the roll engine.
type Engine struct {
	cfg      Config
	ledger   game.ScoreLedger
	notifier game.Notifier
	rng      game.Rand

	mu    sync.Mutex
	mode  Mode
	pair  *Pairing
	queue []model.Player
	state state
}

// New creates a duel engine. rng may be nil.
func New(cfg Config, ledger game.ScoreLedger, notifier game.Notifier, rng game.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.DrawPolicy == "" {
		cfg.DrawPolicy = DrawRematch
	}
	return &Engine{
		cfg:      cfg,
		ledger:   ledger,
		notifier: notifier,
		rng:      rng,
		state:    waitingForFirstMove{},
	}
}

// SeedTournament starts tournament mode. The first two players duel first; the
// rest wait in order.
func (e *Engine) SeedTournament(players []model.Player) (Pairing, error) {
	if len(players) < 2 {
		return Pairing{}, ErrNotEnoughPlayers
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.mode = ModeTournament
	e.pair = &Pairing{First: players[0], Second: players[1]}
	e.queue = append([]model.Player(nil), players[2:]...)
	e.state = waitingForFirstMove{}

	log.Info().
		Int64("first_id", players[0].ID).
		Int64("second_id", players[1].ID).
		Int("queued", len(e.queue)).
		Msg("Duel tournament seeded")
	return *e.pair, nil
}

// EnableFreeMode lets any two players duel until one decisive result.
func (e *Engine) EnableFreeMode() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode == ModeTournament {
		return ErrBracketActive
	}
	e.mode = ModeFree
	e.pair = nil
	e.queue = nil
	e.state = waitingForFirstMove{}
	return nil
}

// Disable turns reroll off and drops any bracket. It reports whether reroll was on.
func (e *Engine) Disable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasOn := e.mode != ModeOff
	e.mode = ModeOff
	e.pair = nil
	e.queue = nil
	e.state = waitingForFirstMove{}
	return wasOn
}

// Reset clears all bracket state.
func (e *Engine) Reset() {
	e.Disable()
}

// Status returns a snapshot of the bracket.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{Mode: e.mode, Queue: append([]model.Player(nil), e.queue...)}
	if e.pair != nil {
		p := *e.pair
		st.Pair = &p
	}
	if w, ok := e.state.(waitingForSecondMove); ok {
		first := w.first
		st.Waiting = &first
	}
	return st
}

// SubmitMove draws a move for player. The first submission of a duel waits for the
// opponent; the second resolves the duel.
func (e *Engine) SubmitMove(ctx context.Context, player model.Player) (*Outcome, error) {
	e.mu.Lock()

	if e.mode == ModeOff {
		e.mu.Unlock()
		return nil, ErrRerollDisabled
	}
	if e.pair != nil && !e.pair.Contains(player.ID) {
		e.mu.Unlock()
		return nil, ErrNotDuelist
	}

	waiting, ok := e.state.(waitingForSecondMove)
	if !ok {
		move := e.throwLocked()
		e.state = waitingForSecondMove{first: player, move: move}
		mode := e.mode
		e.mu.Unlock()

		log.Info().Int64("user_id", player.ID).Str("move", move.String()).Str("mode", mode.String()).Msg("Duel move submitted")
		return &Outcome{Kind: OutcomeWaiting, Mode: mode, Move: move}, nil
	}
	if waiting.first.ID == player.ID {
		e.mu.Unlock()
		return nil, ErrAlreadyPlayed
	}

	move := e.throwLocked()
	out := &Outcome{
		Mode:   e.mode,
		Move:   move,
		First:  Side{Player: waiting.first, Move: waiting.move},
		Second: Side{Player: player, Move: move},
	}

	switch Resolve(out.First.Move, out.Second.Move) {
	case 0:
		e.applyDrawLocked(out)
		e.mu.Unlock()

		log.Info().Int64("first_id", out.First.Player.ID).Int64("second_id", out.Second.Player.ID).Msg("Duel draw")
		e.notifier.Announce(ctx, game.Message{Text: FormatDraw(out), TTL: e.cfg.DrawTTL})
		return out, nil
	case 1:
		out.Winner = &out.First.Player
	default:
		out.Winner = &out.Second.Player
	}

	out.Kind = OutcomeWin
	e.advanceLocked(out)
	e.mu.Unlock()

	if _, err := game.Credit(ctx, e.ledger, out.Winner.ID, e.cfg.Reward); err != nil {
		log.Error().Err(err).Int64("user_id", out.Winner.ID).Msg("Failed to credit duel reward")
	}
	log.Info().
		Int64("winner_id", out.Winner.ID).
		Str("mode", out.Mode.String()).
		Bool("champion", out.Champion).
		Msg("Duel resolved")
	e.notifier.Announce(ctx, game.Message{Text: FormatResult(out)})
	return out, nil
}

func (e *Engine) throwLocked() Move {
	return Moves[e.rng.IntN(len(Moves))]
}

// applyDrawLocked applies a drawn duel to the bracket.
func (e *Engine) applyDrawLocked(out *Outcome) {
	out.Kind = OutcomeDraw
	e.state = waitingForFirstMove{}

	switch e.mode {
	case ModeTournament:
		if e.cfg.DrawPolicy == DrawRequeue && len(e.queue) > 0 {
			e.queue = append(e.queue, e.pair.First, e.pair.Second)
			e.pair = &Pairing{First: e.queue[0], Second: e.queue[1]}
			e.queue = e.queue[2:]
		}
	case ModeFree:
		e.pair = &Pairing{First: out.First.Player, Second: out.Second.Player}
	}

	next := *e.pair
	out.Next = &next
}

// advanceLocked moves the bracket on after a decisive duel.
func (e *Engine) advanceLocked(out *Outcome) {
	if e.mode == ModeTournament && len(e.queue) > 0 {
		next := Pairing{First: *out.Winner, Second: e.queue[0]}
		e.queue = e.queue[1:]
		e.pair = &next
		e.state = waitingForFirstMove{}
		out.Next = &next
		return
	}

	out.Champion = e.mode == ModeTournament
	e.mode = ModeOff
	e.pair = nil
	e.queue = nil
	e.state = resolved{}
}
