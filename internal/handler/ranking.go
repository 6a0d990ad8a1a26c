package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"harvester-bot/internal/model"
	"harvester-bot/internal/service"
)

// ScoreCallbackPrefix prefixes leaderboard page buttons, e.g. "score_2".
const ScoreCallbackPrefix = "score_"

// HandleScore handles /score [page]. Pages are 1-based for users.
func (c *Coordinator) HandleScore(ctx context.Context, ev Event) {
	c.command(ctx, "score", ev, func(ctx context.Context, ev Event) {
		page := 0
		if n, err := strconv.Atoi(strings.TrimSpace(ev.Payload)); err == nil && n > 1 {
			page = n - 1
		}
		c.showScorePage(ctx, ev.ChatID, page, ev.MessageID)
	})
}

// HandleScoreCallback handles a leaderboard button press: the old page is deleted
// and the requested one posted.
func (c *Coordinator) HandleScoreCallback(ctx context.Context, chatID int64, messageID int, data string) {
	if chatID != c.chatID {
		return
	}
	page, err := strconv.Atoi(strings.TrimPrefix(data, ScoreCallbackPrefix))
	if err != nil || page < 0 {
		log.Debug().Str("data", data).Msg("Ignoring malformed leaderboard callback")
		return
	}

	delCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	if err := c.gw.Delete(delCtx, chatID, messageID); err != nil {
		log.Debug().Err(err).Int("msg_id", messageID).Msg("Failed to delete leaderboard page")
	}
	cancel()

	c.showScorePage(ctx, chatID, page, 0)
}

func (c *Coordinator) showScorePage(ctx context.Context, chatID int64, page, replyTo int) {
	p, err := c.ranking.GetPage(ctx, page)
	if err != nil {
		log.Error().Err(err).Int("page", page).Msg("Failed to load leaderboard")
		c.send(ctx, chatID, msgScoreFailed, SendOptions{ReplyTo: replyTo}, c.ttl.Warning)
		return
	}
	if p.Empty() {
		c.send(ctx, chatID, msgNoWinners, SendOptions{ReplyTo: replyTo}, c.ttl.Warning)
		return
	}

	names := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		names[i] = c.memberName(ctx, chatID, e.UserID)
	}

	c.send(ctx, chatID, FormatLeaderboard(p, names), SendOptions{
		ReplyTo:  replyTo,
		Markdown: true,
		Keyboard: leaderboardKeyboard(p),
	}, c.ttl.Leaderboard)
}

// memberName resolves a display name for the leaderboard, falling back to the id.
func (c *Coordinator) memberName(ctx context.Context, chatID, userID int64) string {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	p, err := c.gw.Member(ctx, chatID, userID)
	if err != nil {
		log.Debug().Err(err).Int64("user_id", userID).Msg("Member lookup failed")
		return model.Player{ID: userID}.Name()
	}
	return p.Mention()
}

// FormatLeaderboard renders one page as a fixed-width table.
func FormatLeaderboard(p service.LeaderboardPage, names []string) string {
	type row struct{ place, name, score string }
	rows := make([]row, len(p.Entries))
	w1, w2, w3 := utf8.RuneCountInString("#"), utf8.RuneCountInString("Purtorican"), utf8.RuneCountInString("Score")
	for i, e := range p.Entries {
		r := row{place: placeLabel(e.Rank), name: names[i], score: fmt.Sprintf("%d $LEG", e.Points)}
		rows[i] = r
		w1 = max(w1, utf8.RuneCountInString(r.place))
		w2 = max(w2, utf8.RuneCountInString(r.name))
		w3 = max(w3, utf8.RuneCountInString(r.score))
	}

	var b strings.Builder
	b.WriteString("*🏆 Top players:*\n\n```\n")
	fmt.Fprintf(&b, "%-*s | %-*s | %*s\n", w1, "#", w2, "Purtorican", w3, "Score")
	b.WriteString(strings.Repeat("-", w1+w2+w3+6))
	b.WriteString("\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-*s | %-*s | %*s\n", w1, r.place, w2, r.name, w3, r.score)
	}
	b.WriteString("```")
	return b.String()
}

func placeLabel(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return strconv.Itoa(rank) + "."
	}
}

func leaderboardKeyboard(p service.LeaderboardPage) [][]Button {
	var row []Button
	if p.Page > 0 {
		row = append(row, Button{Text: "⬅️ Back", Data: ScoreCallbackPrefix + strconv.Itoa(p.Page-1)})
	}
	if p.Page > 1 {
		row = append(row, Button{Text: "⏮️ First", Data: ScoreCallbackPrefix + "0"})
	}
	if p.HasNext {
		row = append(row, Button{Text: "➡️ Next", Data: ScoreCallbackPrefix + strconv.Itoa(p.Page+1)})
	}
	if len(row) == 0 {
		return nil
	}
	return [][]Button{row}
}
