package handler

import (
	"context"

	"github.com/rs/zerolog/log"

	"harvester-bot/internal/relay"
)

// HandleText handles plain (non-command) text. An active trivia question gets
// the first look; everything it does not claim is relayed.
func (c *Coordinator) HandleText(ctx context.Context, ev Event) {
	if !c.inScope(ev) {
		return
	}
	if !c.isRecent(ev) {
		log.Info().Int("msg_id", ev.MessageID).Msg("Skipping stale text message")
		return
	}

	if c.trivia != nil && c.trivia.Active() {
		if _, won := c.trivia.SubmitGuess(ctx, ev.Sender, ev.Text); won {
			return
		}
	}

	c.forward(ctx, relay.Post{Username: relayName(ev), Text: quotePrefix(ev) + ev.Text})
}

// HandlePhoto relays a photo with its caption.
func (c *Coordinator) HandlePhoto(ctx context.Context, ev Event) {
	if !c.inScope(ev) {
		return
	}
	if !c.isRecent(ev) {
		log.Info().Int("msg_id", ev.MessageID).Msg("Skipping stale photo message")
		return
	}
	if c.relay == nil || ev.PhotoFileID == "" {
		return
	}

	dlCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	data, err := c.gw.Download(dlCtx, ev.PhotoFileID)
	cancel()
	if err != nil {
		log.Error().Err(err).Str("file_id", ev.PhotoFileID).Msg("Failed to download photo")
		return
	}

	c.forward(ctx, relay.Post{
		Username:  relayName(ev),
		Text:      quotePrefix(ev) + ev.Caption,
		Photo:     data,
		PhotoName: "photo.jpg",
	})
}

func (c *Coordinator) forward(ctx context.Context, p relay.Post) {
	if c.relay == nil {
		return
	}
	if err := c.relay.Forward(ctx, p); err != nil {
		log.Warn().Err(err).Str("username", p.Username).Msg("Failed to relay message")
	}
}

func relayName(ev Event) string {
	if ev.Sender.DisplayName != "" {
		return ev.Sender.DisplayName
	}
	if ev.Sender.Handle != "" {
		return "@" + ev.Sender.Handle
	}
	return "Unknown"
}

func quotePrefix(ev Event) string {
	if ev.ReplyTo == nil {
		return ""
	}
	return relay.Quote(ev.ReplyTo.Author, ev.ReplyTo.Text)
}
