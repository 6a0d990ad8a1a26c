package handler

// User-facing replies rendered by the coordinator.
const (
	msgVerifyFailed = "❌ Unable to verify rights."

	msgTriviaStartDenied = "⛔ Only an administrator can start a Trivia."
	msgTriviaStopDenied  = "⛔ Only an administrator can stop the Trivia."
	msgTriviaRunning     = "⚠️ The Trivia has already been launched."
	msgTriviaStopped     = "🛑 The Trivia has been stopped."
	msgTriviaNotRunning  = "⚠️ The Trivia is not running."

	msgRollStartDenied   = "⛔ Only the administrator can start a round."
	msgRollStopDenied    = "⛔ Only the administrator can stop the tournament."
	msgRollRunning       = "⚠️ The round has already been launched."
	msgRollNotStarted    = "⚠️ Round has not started. Wait for the administrator to start it."
	msgRollDuplicate     = "⛔ You have already rolled a number this round."
	msgRollBotsForbidden = "⛔ Bots and channels cannot use this command."
	msgTournamentPending = "⚠️ A tie-break tournament is still in progress. Finish it or use /stop_roll."
	msgRoundPending      = "⚠️ Wait for the /roll round to finish first."
	msgFreeDuelsOn       = "⚠️ Free duels are on. Use /reroll_off before starting a round."

	msgAdminsOnly        = "⛔ Available to administrators only."
	msgRerollEnabled     = "✅ The /reroll command is now enabled."
	msgRerollDisabled    = "⛔ The /reroll command is now disabled."
	msgRerollUnavailable = "⛔ The /reroll command is temporarily disabled."
	msgNotDuelist        = "⛔ Only current duel participants can use /reroll."
	msgAlreadyPlayed     = "⛔ You have already played. We are waiting for another player."

	msgNoWinners   = "🏆 There are no winners yet."
	msgScoreFailed = "❌ Unable to load the leaderboard."

	msgPriceFailed  = "❌ Unable to get the BTC price."
	msgMorningTitle = "Good morning to all, friends! ☕"
	msgNightTitle   = "Good night, Legends! 🌌"
	msgCardFailed   = "❌ Unable to draw the picture."
)

var morningPhrases = []string{
	"Good morning Red Planet",
	"Wake up, Legends!",
	"It's time to do good",
	"Good morning Purtoricans!",
	"Happy new day, Red Planetians!",
}

var nightPhrases = []string{
	"Good night Red Planet",
	"Until tomorrow, Legends!",
	"The Red Planet guards your sleep!",
	"Sleep tight, warrior of light",
	"Sweet dreams, Purtorican",
}
