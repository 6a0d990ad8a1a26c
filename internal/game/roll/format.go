package roll

import (
	"fmt"
	"strings"
	"time"

	"harvester-bot/internal/game/duel"
	"harvester-bot/internal/model"
)

// FormatStart announces a new round.
func FormatStart(d time.Duration) string {
	return fmt.Sprintf("🎲 The /roll round has started! You have %d minutes to roll.", int(d.Minutes()))
}

// FormatRoll is the reply to a single roll.
func FormatRoll(player model.Player, value int) string {
	return fmt.Sprintf("🎲 %s rolled %d", player.Mention(), value)
}

// FormatNoParticipants announces an empty round.
func FormatNoParticipants() string {
	return "⏱ There were no participants in the /roll round."
}

// FormatWinner announces a single winner.
func FormatWinner(player model.Player, value int) string {
	return fmt.Sprintf("🏆 Round winner: %s with %d!", player.Mention(), value)
}

// FormatTie announces a tie and the first duel of the tie-break bracket.
func FormatTie(players []model.Player, value int, first duel.Pairing) string {
	mentions := make([]string, len(players))
	for i, p := range players {
		mentions[i] = p.Mention()
	}
	return fmt.Sprintf("🤝 Tie between: %s with score %d!\n\n/reroll enabled for tie-breaker.\n\n%s",
		strings.Join(mentions, ", "), value, duel.FormatPairing("First duel", first))
}

// FormatStopped announces a forced stop.
func FormatStopped() string {
	return "🛑 The /roll round and tournament have been forcibly stopped."
}
