package trivia

import (
	"fmt"
	"time"

	"harvester-bot/internal/model"
)

// FormatStart returns the announcement posted when an admin starts trivia.
func FormatStart(grace time.Duration) string {
	return fmt.Sprintf("🔎 The Trivia has started! Get ready to answer!\n\nFirst question in %d seconds.", int(grace.Seconds()))
}

// FormatQuestion returns the question announcement with the fully hidden mask.
func FormatQuestion(text, mask string) string {
	return fmt.Sprintf("🧠 Trivia question:\n\n%s\n\n%s", text, mask)
}

// FormatHint returns a hint announcement.
func FormatHint(mask string) string {
	return fmt.Sprintf("🕵️ Hint:\n\n%s", mask)
}

// FormatUnsolved returns the announcement posted when every position was revealed.
func FormatUnsolved(answer string) string {
	return fmt.Sprintf("❌ Nobody guessed it!\n\nThe answer was: %s", answer)
}

// FormatWin returns the winner announcement.
func FormatWin(player model.Player, answer string, reward int64) string {
	return fmt.Sprintf("🎉 %s guessed the word\n\n-----%s-----\n\nand gets %d $LEG!", player.Name(), answer, reward)
}

// FormatEmptyPool returns the notice posted when there are no questions to ask.
func FormatEmptyPool() string {
	return "❌ The list of questions is empty."
}
