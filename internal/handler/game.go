package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"harvester-bot/internal/game"
	"harvester-bot/internal/game/duel"
	"harvester-bot/internal/game/roll"
)

// HandleStartTrivia handles /rpdao_trivia (admin).
func (c *Coordinator) HandleStartTrivia(ctx context.Context, ev Event) {
	c.command(ctx, "rpdao_trivia", ev, func(ctx context.Context, ev Event) {
		if !c.requireAdmin(ctx, ev, msgTriviaStartDenied, c.ttl.TriviaWarning) {
			return
		}
		if err := c.trivia.Start(ctx); err != nil {
			if errors.Is(err, game.ErrAlreadyActive) {
				c.reply(ctx, ev, msgTriviaRunning, c.ttl.TriviaWarning)
				return
			}
			log.Error().Err(err).Msg("Failed to start trivia")
		}
	})
}

// HandleStopTrivia handles /rpdao_trivia_off (admin).
func (c *Coordinator) HandleStopTrivia(ctx context.Context, ev Event) {
	c.command(ctx, "rpdao_trivia_off", ev, func(ctx context.Context, ev Event) {
		if !c.requireAdmin(ctx, ev, msgTriviaStopDenied, c.ttl.TriviaWarning) {
			return
		}
		if !c.trivia.Stop() {
			c.reply(ctx, ev, msgTriviaNotRunning, c.ttl.TriviaWarning)
			return
		}
		c.notifier.Announce(ctx, game.Message{Text: msgTriviaStopped})
	})
}

// HandleStartRoll handles /start_roll (admin). A pending tie-break tournament or
// enabled free duels block a new round.
func (c *Coordinator) HandleStartRoll(ctx context.Context, ev Event) {
	c.command(ctx, "start_roll", ev, func(ctx context.Context, ev Event) {
		if !c.requireAdmin(ctx, ev, msgRollStartDenied, c.ttl.Warning) {
			return
		}
		err := c.roll.StartRound(ctx)
		switch {
		case err == nil:
		case errors.Is(err, game.ErrAlreadyActive):
			c.reply(ctx, ev, msgRollRunning, c.ttl.Warning)
		case errors.Is(err, duel.ErrBracketActive):
			c.reply(ctx, ev, msgTournamentPending, c.ttl.Warning)
		case errors.Is(err, roll.ErrFreeDuelsOn):
			c.reply(ctx, ev, msgFreeDuelsOn, c.ttl.Warning)
		default:
			log.Error().Err(err).Msg("Failed to start roll round")
		}
	})
}

// HandleRoll handles /roll.
func (c *Coordinator) HandleRoll(ctx context.Context, ev Event) {
	c.command(ctx, "roll", ev, func(ctx context.Context, ev Event) {
		if ev.Sender.IsBot {
			c.reply(ctx, ev, msgRollBotsForbidden, c.ttl.Warning)
			return
		}
		value, err := c.roll.SubmitRoll(ctx, ev.Sender)
		switch {
		case errors.Is(err, game.ErrRoundNotActive):
			c.reply(ctx, ev, msgRollNotStarted, c.ttl.Warning)
		case errors.Is(err, game.ErrDuplicateSubmission):
			c.reply(ctx, ev, msgRollDuplicate, c.ttl.Warning)
		case err != nil:
			log.Error().Err(err).Int64("user_id", ev.Sender.ID).Msg("Failed to record roll")
		default:
			c.reply(ctx, ev, roll.FormatRoll(ev.Sender, value), c.ttl.RollResult)
		}
	})
}

// HandleStopRoll handles /stop_roll (admin): ends the round and any tournament.
func (c *Coordinator) HandleStopRoll(ctx context.Context, ev Event) {
	c.command(ctx, "stop_roll", ev, func(ctx context.Context, ev Event) {
		if !c.requireAdmin(ctx, ev, msgRollStopDenied, c.ttl.Warning) {
			return
		}
		c.roll.ForceStop()
		c.notifier.Announce(ctx, game.Message{Text: roll.FormatStopped()})
	})
}

// HandleRerollOn handles /reroll_on (admin): enables free duels.
func (c *Coordinator) HandleRerollOn(ctx context.Context, ev Event) {
	c.command(ctx, "reroll_on", ev, func(ctx context.Context, ev Event) {
		if !c.requireAdmin(ctx, ev, msgAdminsOnly, c.ttl.Warning) {
			return
		}
		err := c.roll.EnableFreeDuels()
		switch {
		case errors.Is(err, roll.ErrRoundInProgress):
			c.reply(ctx, ev, msgRoundPending, c.ttl.Warning)
			return
		case errors.Is(err, duel.ErrBracketActive):
			c.reply(ctx, ev, msgTournamentPending, c.ttl.Warning)
			return
		case err != nil:
			log.Error().Err(err).Msg("Failed to enable free duels")
			return
		}
		log.Info().Int64("admin_id", ev.Sender.ID).Msg("Free duels enabled")
		c.reply(ctx, ev, msgRerollEnabled, 0)
	})
}

// HandleRerollOff handles /reroll_off (admin).
func (c *Coordinator) HandleRerollOff(ctx context.Context, ev Event) {
	c.command(ctx, "reroll_off", ev, func(ctx context.Context, ev Event) {
		if !c.requireAdmin(ctx, ev, msgAdminsOnly, c.ttl.Warning) {
			return
		}
		c.duel.Disable()
		log.Info().Int64("admin_id", ev.Sender.ID).Msg("Reroll disabled")
		c.reply(ctx, ev, msgRerollDisabled, 0)
	})
}

// HandleReroll handles /reroll. Draws and results are announced by the duel engine;
// the first mover gets a short-lived waiting reply.
func (c *Coordinator) HandleReroll(ctx context.Context, ev Event) {
	c.command(ctx, "reroll", ev, func(ctx context.Context, ev Event) {
		out, err := c.duel.SubmitMove(ctx, ev.Sender)
		switch {
		case errors.Is(err, duel.ErrRerollDisabled):
			c.reply(ctx, ev, msgRerollUnavailable, c.ttl.Warning)
		case errors.Is(err, duel.ErrNotDuelist):
			c.reply(ctx, ev, msgNotDuelist, c.ttl.Warning)
		case errors.Is(err, duel.ErrAlreadyPlayed):
			c.reply(ctx, ev, msgAlreadyPlayed, c.ttl.Warning)
		case err != nil:
			log.Error().Err(err).Int64("user_id", ev.Sender.ID).Msg("Failed to submit duel move")
		case out.Kind == duel.OutcomeWaiting:
			c.reply(ctx, ev, duel.FormatWaiting(out.Move), c.ttl.Waiting)
		}
	})
}
