package duel

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"harvester-bot/internal/game"
	"harvester-bot/internal/game/gametest"
	"harvester-bot/internal/model"
)

var (
	u1 = model.Player{ID: 1, DisplayName: "One", Handle: "one"}
	u2 = model.Player{ID: 2, DisplayName: "Two"}
	u3 = model.Player{ID: 3, DisplayName: "Three"}
	u4 = model.Player{ID: 4, DisplayName: "Four"}
)

// moves returns rand values that make the engine throw the given moves in order.
func moves(ms ...Move) *gametest.Rand {
	values := make([]int, len(ms))
	for i, m := range ms {
		values[i] = int(m)
	}
	return gametest.NewRand(values...)
}

func newEngine(cfg Config, rng game.Rand) (*Engine, *gametest.Ledger, *gametest.Notifier) {
	ledger := gametest.NewLedger()
	notifier := &gametest.Notifier{}
	return New(cfg, ledger, notifier, rng), ledger, notifier
}

func TestResolve(t *testing.T) {
	tests := []struct {
		a, b Move
		want int
	}{
		{Rock, Scissors, 1},
		{Scissors, Paper, 1},
		{Paper, Rock, 1},
		{Scissors, Rock, -1},
		{Paper, Scissors, -1},
		{Rock, Paper, -1},
		{Rock, Rock, 0},
		{Paper, Paper, 0},
		{Scissors, Scissors, 0},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+"_vs_"+tt.b.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.a, tt.b))
		})
	}
}

// TestResolutionIsSymmetricProperty checks that submission order never changes the winner.
// *For any* two moves, resolving (A, B) and (B, A) name the same player the winner.
func TestResolutionIsSymmetricProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.SampledFrom(Moves[:]).Draw(t, "a")
		b := rapid.SampledFrom(Moves[:]).Draw(t, "b")

		if Resolve(a, b) != -Resolve(b, a) {
			t.Fatalf("Resolve(%v,%v)=%d but Resolve(%v,%v)=%d", a, b, Resolve(a, b), b, a, Resolve(b, a))
		}

		ctx := context.Background()
		forward, _, _ := newEngine(DefaultConfig(), moves(a, b))
		reverse, _, _ := newEngine(DefaultConfig(), moves(b, a))
		_ = forward.EnableFreeMode()
		_ = reverse.EnableFreeMode()

		_, _ = forward.SubmitMove(ctx, u1)
		fwd, _ := forward.SubmitMove(ctx, u2)
		_, _ = reverse.SubmitMove(ctx, u2)
		rev, _ := reverse.SubmitMove(ctx, u1)

		if fwd.Kind != rev.Kind {
			t.Fatalf("kinds differ: %v vs %v", fwd.Kind, rev.Kind)
		}
		if fwd.Kind == OutcomeWin && fwd.Winner.ID != rev.Winner.ID {
			t.Fatalf("winner depends on order: %d vs %d", fwd.Winner.ID, rev.Winner.ID)
		}
	})
}

func TestRockBeatsScissorsEitherOrder(t *testing.T) {
	ctx := context.Background()

	e, _, _ := newEngine(DefaultConfig(), moves(Rock, Scissors))
	require.NoError(t, e.EnableFreeMode())
	_, err := e.SubmitMove(ctx, u1)
	require.NoError(t, err)
	out, err := e.SubmitMove(ctx, u2)
	require.NoError(t, err)
	assert.Equal(t, u1.ID, out.Winner.ID)

	e, _, _ = newEngine(DefaultConfig(), moves(Scissors, Rock))
	require.NoError(t, e.EnableFreeMode())
	_, err = e.SubmitMove(ctx, u2)
	require.NoError(t, err)
	out, err = e.SubmitMove(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, u1.ID, out.Winner.ID)
}

func TestSubmitMove_Disabled(t *testing.T) {
	e, _, _ := newEngine(DefaultConfig(), nil)

	_, err := e.SubmitMove(context.Background(), u1)
	assert.ErrorIs(t, err, ErrRerollDisabled)
	assert.ErrorIs(t, err, game.ErrNotPermitted)
}

func TestSubmitMove_AlreadyPlayed(t *testing.T) {
	e, ledger, _ := newEngine(DefaultConfig(), moves(Rock, Paper))
	require.NoError(t, e.EnableFreeMode())
	ctx := context.Background()

	out, err := e.SubmitMove(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeWaiting, out.Kind)

	_, err = e.SubmitMove(ctx, u1)
	assert.ErrorIs(t, err, ErrAlreadyPlayed)

	st := e.Status()
	require.NotNil(t, st.Waiting)
	assert.Equal(t, u1.ID, st.Waiting.ID)
	assert.Empty(t, ledger.Calls())
}

func TestTournament_RejectsOutsiders(t *testing.T) {
	e, _, _ := newEngine(DefaultConfig(), nil)
	_, err := e.SeedTournament([]model.Player{u1, u2, u3})
	require.NoError(t, err)

	_, err = e.SubmitMove(context.Background(), u3)
	assert.ErrorIs(t, err, ErrNotDuelist)
	assert.ErrorIs(t, err, game.ErrNotPermitted)
}

func TestSeedTournament_NeedsTwo(t *testing.T) {
	e, _, _ := newEngine(DefaultConfig(), nil)
	_, err := e.SeedTournament([]model.Player{u1})
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
	assert.Equal(t, ModeOff, e.Status().Mode)
}

func TestTournament_AdvancesToChampion(t *testing.T) {
	// u1 rock beats u2 scissors; u1 paper loses to u3 scissors.
	e, ledger, notifier := newEngine(DefaultConfig(), moves(Rock, Scissors, Paper, Scissors))
	ctx := context.Background()

	pair, err := e.SeedTournament([]model.Player{u1, u2, u3})
	require.NoError(t, err)
	assert.Equal(t, Pairing{First: u1, Second: u2}, pair)

	_, err = e.SubmitMove(ctx, u1)
	require.NoError(t, err)
	out, err := e.SubmitMove(ctx, u2)
	require.NoError(t, err)
	assert.Equal(t, OutcomeWin, out.Kind)
	assert.Equal(t, u1.ID, out.Winner.ID)
	require.NotNil(t, out.Next)
	assert.Equal(t, Pairing{First: u1, Second: u3}, *out.Next)
	assert.False(t, out.Champion)

	_, err = e.SubmitMove(ctx, u2)
	assert.ErrorIs(t, err, ErrNotDuelist, "eliminated player cannot play")

	_, err = e.SubmitMove(ctx, u1)
	require.NoError(t, err)
	out, err = e.SubmitMove(ctx, u3)
	require.NoError(t, err)
	assert.Equal(t, u3.ID, out.Winner.ID)
	assert.True(t, out.Champion)
	assert.Nil(t, out.Next)
	assert.Equal(t, ModeOff, e.Status().Mode)

	assert.Equal(t, int64(1), ledger.Score(u1.ID))
	assert.Equal(t, int64(1), ledger.Score(u3.ID))
	last, _ := notifier.Last()
	assert.Contains(t, last.Text, "Grand Champion: Three")
}

func TestTournament_DrawRematchKeepsPair(t *testing.T) {
	e, ledger, notifier := newEngine(DefaultConfig(), moves(Rock, Rock))
	ctx := context.Background()
	_, err := e.SeedTournament([]model.Player{u1, u2, u3})
	require.NoError(t, err)

	_, _ = e.SubmitMove(ctx, u1)
	out, err := e.SubmitMove(ctx, u2)
	require.NoError(t, err)

	assert.Equal(t, OutcomeDraw, out.Kind)
	assert.Equal(t, Pairing{First: u1, Second: u2}, *out.Next)
	st := e.Status()
	assert.Equal(t, ModeTournament, st.Mode)
	assert.Equal(t, []model.Player{u3}, st.Queue)
	assert.Nil(t, st.Waiting)
	assert.Empty(t, ledger.Calls())

	last, _ := notifier.Last()
	assert.Equal(t, DefaultConfig().DrawTTL, last.TTL)
	assert.Contains(t, last.Text, "draw")
}

func TestTournament_DrawRequeue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DrawPolicy = DrawRequeue
	e, _, _ := newEngine(cfg, moves(Paper, Paper))
	ctx := context.Background()
	_, err := e.SeedTournament([]model.Player{u1, u2, u3, u4})
	require.NoError(t, err)

	_, _ = e.SubmitMove(ctx, u1)
	out, err := e.SubmitMove(ctx, u2)
	require.NoError(t, err)

	assert.Equal(t, Pairing{First: u3, Second: u4}, *out.Next)
	assert.Equal(t, []model.Player{u1, u2}, e.Status().Queue)

	_, err = e.SubmitMove(ctx, u1)
	assert.ErrorIs(t, err, ErrNotDuelist)
}

func TestTournament_DrawRequeueWithEmptyQueueRematches(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DrawPolicy = DrawRequeue
	e, _, _ := newEngine(cfg, moves(Scissors, Scissors))
	ctx := context.Background()
	_, err := e.SeedTournament([]model.Player{u1, u2})
	require.NoError(t, err)

	_, _ = e.SubmitMove(ctx, u1)
	out, err := e.SubmitMove(ctx, u2)
	require.NoError(t, err)
	assert.Equal(t, Pairing{First: u1, Second: u2}, *out.Next)
}

func TestFreeMode_DrawLocksPairThenDecisiveDisables(t *testing.T) {
	e, ledger, _ := newEngine(DefaultConfig(), moves(Rock, Rock, Paper, Rock))
	ctx := context.Background()
	require.NoError(t, e.EnableFreeMode())

	_, _ = e.SubmitMove(ctx, u1)
	out, err := e.SubmitMove(ctx, u2)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDraw, out.Kind)

	_, err = e.SubmitMove(ctx, u3)
	assert.ErrorIs(t, err, ErrNotDuelist, "rematch is reserved for the drawn pair")

	_, err = e.SubmitMove(ctx, u2)
	require.NoError(t, err)
	out, err = e.SubmitMove(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeWin, out.Kind)
	assert.Equal(t, u2.ID, out.Winner.ID)
	assert.False(t, out.Champion)

	assert.Equal(t, ModeOff, e.Status().Mode)
	_, err = e.SubmitMove(ctx, u1)
	assert.ErrorIs(t, err, ErrRerollDisabled)
	assert.Equal(t, int64(1), ledger.Score(u2.ID))
}

func TestEnableFreeMode_RejectedDuringTournament(t *testing.T) {
	e, _, _ := newEngine(DefaultConfig(), nil)
	_, err := e.SeedTournament([]model.Player{u1, u2})
	require.NoError(t, err)

	assert.ErrorIs(t, e.EnableFreeMode(), ErrBracketActive)
	assert.True(t, e.Disable())
	assert.False(t, e.Disable())
	assert.NoError(t, e.EnableFreeMode())
}

func TestParseDrawPolicy(t *testing.T) {
	p, err := ParseDrawPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DrawRematch, p)

	p, err = ParseDrawPolicy(" Requeue ")
	require.NoError(t, err)
	assert.Equal(t, DrawRequeue, p)

	_, err = ParseDrawPolicy("coinflip")
	assert.Error(t, err)
}

// TestBracketEliminatesToOneChampionProperty checks that a tournament always ends.
// *For any* seeded field of 2..8 players and any decisive throws, after
// len(field)-1 decisive duels exactly one champion remains and every duel
// winner was credited once.
func TestBracketEliminatesToOneChampionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 8).Draw(t, "players")
		field := make([]model.Player, n)
		for i := range field {
			field[i] = model.Player{ID: int64(i + 1), DisplayName: strings.Repeat("p", i+1)}
		}
		firstWins := rapid.SliceOfN(rapid.Bool(), n-1, n-1).Draw(t, "firstWins")

		var throws []Move
		for _, w := range firstWins {
			if w {
				throws = append(throws, Rock, Scissors)
			} else {
				throws = append(throws, Rock, Paper)
			}
		}
		e, ledger, _ := newEngine(DefaultConfig(), moves(throws...))
		ctx := context.Background()

		pair, err := e.SeedTournament(field)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		var last *Outcome
		for i := 0; i < n-1; i++ {
			if _, err := e.SubmitMove(ctx, pair.First); err != nil {
				t.Fatalf("duel %d first move: %v", i, err)
			}
			out, err := e.SubmitMove(ctx, pair.Second)
			if err != nil {
				t.Fatalf("duel %d second move: %v", i, err)
			}
			if out.Kind != OutcomeWin {
				t.Fatalf("duel %d not decisive", i)
			}
			last = out
			if out.Next != nil {
				pair = *out.Next
			}
		}
		if !last.Champion {
			t.Fatal("final duel did not crown a champion")
		}
		if e.Status().Mode != ModeOff {
			t.Fatal("bracket still open after the champion")
		}
		if got := len(ledger.Calls()); got != n-1 {
			t.Fatalf("expected %d credits, got %d", n-1, got)
		}
	})
}
