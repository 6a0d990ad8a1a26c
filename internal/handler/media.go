package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"harvester-bot/internal/price"
)

var errPriceDisabled = errors.New("price feed is not configured")

// HandlePrice handles /price.
func (c *Coordinator) HandlePrice(ctx context.Context, ev Event) {
	c.command(ctx, "price", ev, func(ctx context.Context, ev Event) {
		if err := c.postPrice(ctx, ev.MessageID); err != nil {
			log.Error().Err(err).Msg("Failed to post price")
			c.reply(ctx, ev, msgPriceFailed, c.ttl.Warning)
		}
	})
}

// PostPrice posts the price card without a triggering message. Used by the
// periodic price job.
func (c *Coordinator) PostPrice(ctx context.Context) {
	if err := c.postPrice(ctx, 0); err != nil {
		log.Warn().Err(err).Msg("Skipping scheduled price post")
	}
}

func (c *Coordinator) postPrice(ctx context.Context, replyTo int) error {
	if c.prices == nil || c.cards == nil {
		return errPriceDisabled
	}
	p, err := c.prices.Fetch(ctx)
	if err != nil {
		return err
	}
	img, err := c.cards.RenderPrice(ctx, c.media.PriceBackground, c.prices.Symbol(), p)
	if err != nil {
		return err
	}
	c.sendPhoto(ctx, img, SendOptions{ReplyTo: replyTo, Caption: price.Caption(c.prices.Symbol(), p)})
	log.Info().Float64("price", p).Msg("Price card posted")
	return nil
}

// HandleGoodMorning handles /gm.
func (c *Coordinator) HandleGoodMorning(ctx context.Context, ev Event) {
	c.command(ctx, "gm", ev, func(ctx context.Context, ev Event) {
		c.greet(ctx, ev, morningPhrases, c.media.Morning, msgMorningTitle)
	})
}

// HandleGoodNight handles /gn.
func (c *Coordinator) HandleGoodNight(ctx context.Context, ev Event) {
	c.command(ctx, "gn", ev, func(ctx context.Context, ev Event) {
		c.greet(ctx, ev, nightPhrases, c.media.Night, msgNightTitle)
	})
}

func (c *Coordinator) greet(ctx context.Context, ev Event, phrases []string, background, caption string) {
	if c.cards == nil {
		return
	}
	text := phrases[c.rng.IntN(len(phrases))]
	img, err := c.cards.RenderGreeting(ctx, background, text)
	if err != nil {
		log.Error().Err(err).Str("background", background).Msg("Failed to render greeting")
		c.reply(ctx, ev, msgCardFailed, c.ttl.Warning)
		return
	}
	c.sendPhoto(ctx, img, SendOptions{Caption: caption})
	log.Info().Int64("user_id", ev.Sender.ID).Str("phrase", text).Msg("Greeting posted")
}

func (c *Coordinator) sendPhoto(ctx context.Context, img []byte, opts SendOptions) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()
	if _, err := c.gw.SendPhoto(ctx, c.chatID, img, opts); err != nil {
		log.Warn().Err(err).Msg("Failed to send photo")
	}
}
