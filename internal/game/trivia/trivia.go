// Package trivia implements the word-guessing trivia engine.
//
// A session runs until stopped: each question is revealed one position per hint
// tick until someone guesses the answer or the answer is fully shown, after which
// the next question is scheduled.
package trivia

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"harvester-bot/internal/game"
	"harvester-bot/internal/model"
	"harvester-bot/internal/pkg/scheduler"
)

// callbackTimeout bounds the work of one timer callback.
const callbackTimeout = 30 * time.Second

// HiddenRune marks a position of the mask that has not been revealed.
const HiddenRune = '-'

// Config holds trivia timings and reward.
type Config struct {
	GraceDelay   time.Duration // before the first question
	HintInterval time.Duration
	WinDelay     time.Duration // before the next question after a correct guess
	TimeoutDelay time.Duration // before the next question after a fully revealed answer
	Reward       int64

	QuestionTTL time.Duration
	HintTTL     time.Duration
	NoticeTTL   time.Duration
}

// DefaultConfig returns the stock timings.
func DefaultConfig() Config {
	return Config{
		GraceDelay:   60 * time.Second,
		HintInterval: 15 * time.Second,
		WinDelay:     15 * time.Second,
		TimeoutDelay: 30 * time.Second,
		Reward:       5,
		QuestionTTL:  180 * time.Second,
		HintTTL:      20 * time.Second,
		NoticeTTL:    30 * time.Second,
	}
}

// Dependencies are the collaborators of the engine. Rand may be nil.
type Dependencies struct {
	Questions []Question
	Ledger    game.ScoreLedger
	Notifier  game.Notifier
	Scheduler scheduler.Scheduler
	Rand      game.Rand
}

// Win describes a correct guess.
type Win struct {
	Player model.Player
	Answer string
	Reward int64
	Total  int64
}

// Engine is the trivia state machine. All state is guarded by mu; every scheduled
// callback carries the generation it was scheduled under and no-ops on mismatch.
type Engine struct {
	cfg       Config
	questions []Question
	ledger    game.ScoreLedger
	notifier  game.Notifier
	sched     scheduler.Scheduler
	rng       game.Rand

	mu      sync.Mutex
	running bool
	active  bool
	gen     uint64
	task    scheduler.Task
	current *Question
	answer  []rune
	mask    []rune
	hidden  []int
}

// New creates a trivia engine.
func New(cfg Config, deps Dependencies) *Engine {
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Engine{
		cfg:       cfg,
		questions: deps.Questions,
		ledger:    deps.Ledger,
		notifier:  deps.Notifier,
		sched:     deps.Scheduler,
		rng:       rng,
	}
}

// Start opens a session and schedules the first question after the grace delay.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return game.ErrAlreadyActive
	}
	e.running = true
	e.active = false
	e.gen++
	gen := e.gen
	e.scheduleLocked(e.cfg.GraceDelay, func() { e.postNextQuestion(gen) })
	e.mu.Unlock()

	log.Info().Uint64("generation", gen).Int("questions", len(e.questions)).Msg("Trivia session started")
	e.notifier.Announce(ctx, game.Message{Text: FormatStart(e.cfg.GraceDelay)})
	return nil
}

// Stop ends the session and cancels any pending timer. It reports whether a
// session was running. Calling Stop on an idle engine is a no-op.
func (e *Engine) Stop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasRunning := e.running
	e.running = false
	e.clearQuestionLocked()
	e.gen++
	if e.task != nil {
		e.task.Cancel()
		e.task = nil
	}
	if wasRunning {
		log.Info().Msg("Trivia session stopped")
	}
	return wasRunning
}

// Running reports whether a session exists, whether or not a question is open.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Active reports whether a question is open for guesses.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Mask returns the current reveal mask and whether a question is open.
func (e *Engine) Mask() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return "", false
	}
	return string(e.mask), true
}

// SubmitGuess checks text against the open question. On a match the question is
// closed before anything else happens, so only one guess can win.
func (e *Engine) SubmitGuess(ctx context.Context, player model.Player, text string) (*Win, bool) {
	e.mu.Lock()
	if !e.active || e.current == nil || !Matches(text, e.current.Answer) {
		e.mu.Unlock()
		return nil, false
	}

	win := &Win{Player: player, Answer: e.current.Answer, Reward: e.cfg.Reward}
	e.clearQuestionLocked()
	e.gen++
	gen := e.gen
	e.scheduleLocked(e.cfg.WinDelay, func() { e.postNextQuestion(gen) })
	e.mu.Unlock()

	total, err := game.Credit(ctx, e.ledger, player.ID, win.Reward)
	if err != nil {
		log.Error().Err(err).Int64("user_id", player.ID).Msg("Failed to credit trivia reward")
	}
	win.Total = total

	log.Info().
		Int64("user_id", player.ID).
		Str("answer", win.Answer).
		Int64("reward", win.Reward).
		Msg("Trivia answered")
	e.notifier.Announce(ctx, game.Message{Text: FormatWin(player, win.Answer, win.Reward)})
	return win, true
}

func (e *Engine) postNextQuestion(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
	defer cancel()

	e.mu.Lock()
	if gen != e.gen || !e.running {
		e.mu.Unlock()
		log.Debug().Uint64("generation", gen).Msg("Stale trivia question timer ignored")
		return
	}

	if len(e.questions) == 0 {
		e.running = false
		e.clearQuestionLocked()
		e.gen++
		e.task = nil
		e.mu.Unlock()

		log.Warn().Msg("Trivia question pool is empty")
		e.notifier.Announce(ctx, game.Message{Text: FormatEmptyPool(), TTL: e.cfg.NoticeTTL})
		return
	}

	q := e.questions[e.rng.IntN(len(e.questions))]
	e.current = &q
	e.answer = []rune(q.Answer)
	e.mask = make([]rune, len(e.answer))
	e.hidden = make([]int, len(e.answer))
	for i := range e.answer {
		e.mask[i] = HiddenRune
		e.hidden[i] = i
	}
	e.active = true
	e.gen++
	next := e.gen
	text := FormatQuestion(q.Text, string(e.mask))
	e.scheduleLocked(e.cfg.HintInterval, func() { e.revealHint(next) })
	e.mu.Unlock()

	log.Info().Uint64("generation", next).Str("question", q.Text).Msg("Trivia question posted")
	e.notifier.Announce(ctx, game.Message{Text: text, TTL: e.cfg.QuestionTTL})
}

func (e *Engine) revealHint(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
	defer cancel()

	e.mu.Lock()
	if gen != e.gen || !e.active || len(e.hidden) == 0 {
		e.mu.Unlock()
		log.Debug().Uint64("generation", gen).Msg("Stale trivia hint timer ignored")
		return
	}

	idx := e.rng.IntN(len(e.hidden))
	pos := e.hidden[idx]
	e.hidden = append(e.hidden[:idx], e.hidden[idx+1:]...)
	e.mask[pos] = e.answer[pos]

	msgs := []game.Message{{Text: FormatHint(string(e.mask)), TTL: e.cfg.HintTTL}}
	if len(e.hidden) > 0 {
		e.scheduleLocked(e.cfg.HintInterval, func() { e.revealHint(gen) })
	} else {
		answer := e.current.Answer
		e.clearQuestionLocked()
		e.gen++
		next := e.gen
		e.scheduleLocked(e.cfg.TimeoutDelay, func() { e.postNextQuestion(next) })
		msgs = append(msgs, game.Message{Text: FormatUnsolved(answer)})
		log.Info().Str("answer", answer).Msg("Trivia question unsolved")
	}
	e.mu.Unlock()

	for _, msg := range msgs {
		e.notifier.Announce(ctx, msg)
	}
}

// scheduleLocked replaces the pending task. Caller must hold mu.
func (e *Engine) scheduleLocked(d time.Duration, fn func()) {
	if e.task != nil {
		e.task.Cancel()
	}
	e.task = e.sched.After(d, fn)
}

func (e *Engine) clearQuestionLocked() {
	e.active = false
	e.current = nil
	e.answer = nil
	e.mask = nil
	e.hidden = nil
}

// Normalize folds surrounding and repeated whitespace so answers compare by content.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Matches reports whether guess equals answer ignoring case and whitespace runs.
func Matches(guess, answer string) bool {
	g, a := Normalize(guess), Normalize(answer)
	return a != "" && strings.EqualFold(g, a)
}
