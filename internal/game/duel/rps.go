package duel

import "fmt"

// Move is a rock-paper-scissors throw.
type Move int

// Moves.
const (
	Rock Move = iota
	Paper
	Scissors
)

// Moves lists every move in draw order.
var Moves = [...]Move{Rock, Paper, Scissors}

// Emoji returns the move's emoji.
func (m Move) Emoji() string {
	switch m {
	case Rock:
		return "🪨"
	case Paper:
		return "📄"
	case Scissors:
		return "✂️"
	default:
		return "❔"
	}
}

func (m Move) String() string {
	switch m {
	case Rock:
		return "rock"
	case Paper:
		return "paper"
	case Scissors:
		return "scissors"
	default:
		return fmt.Sprintf("move(%d)", int(m))
	}
}

// Beats reports whether m defeats other.
func (m Move) Beats(other Move) bool {
	return (m == Rock && other == Scissors) ||
		(m == Scissors && other == Paper) ||
		(m == Paper && other == Rock)
}

// Resolve compares a against b: 1 when a wins, -1 when b wins, 0 on a draw.
func Resolve(a, b Move) int {
	switch {
	case a == b:
		return 0
	case a.Beats(b):
		return 1
	default:
		return -1
	}
}
