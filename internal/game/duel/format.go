package duel

import (
	"fmt"
	"strings"
)

// FormatWaiting returns the reply to the first mover of a duel.
func FormatWaiting(move Move) string {
	return fmt.Sprintf("%s\n\nWaiting for the second player...", move.Emoji())
}

// FormatPairing announces the duel a pair must play next.
func FormatPairing(label string, p Pairing) string {
	return fmt.Sprintf("⚔️ %s: %s vs %s", label, p.First.Name(), p.Second.Name())
}

func formatSides(out *Outcome) string {
	return fmt.Sprintf("%s %s\n\n%s %s\n\n",
		out.First.Player.Name(), out.First.Move.Emoji(),
		out.Second.Move.Emoji(), out.Second.Player.Name())
}

// FormatDraw returns the announcement for a drawn duel.
func FormatDraw(out *Outcome) string {
	var b strings.Builder
	b.WriteString(formatSides(out))
	b.WriteString("🤝 It's a draw!\n\n")
	if out.Next != nil && !(out.Next.Contains(out.First.Player.ID) && out.Next.Contains(out.Second.Player.ID)) {
		b.WriteString(FormatPairing("Next duel", *out.Next))
		b.WriteString("\n")
	}
	b.WriteString("⚔️ Use /reroll again.")
	return b.String()
}

// FormatResult returns the announcement for a decisive duel.
func FormatResult(out *Outcome) string {
	var b strings.Builder
	b.WriteString(formatSides(out))
	fmt.Fprintf(&b, "🎉 Winner: %s!", out.Winner.Mention())
	switch {
	case out.Next != nil:
		b.WriteString("\n\n")
		b.WriteString(FormatPairing("Next duel", *out.Next))
	case out.Champion:
		fmt.Fprintf(&b, "\n\n🏆 Grand Champion: %s", out.Winner.Name())
	}
	return b.String()
}
