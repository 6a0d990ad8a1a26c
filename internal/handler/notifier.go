package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"harvester-bot/internal/game"
	"harvester-bot/internal/pkg/scheduler"
)

// gatewayTimeout bounds a single gateway call.
const gatewayTimeout = 15 * time.Second

// ChatNotifier posts engine announcements to the community chat and deletes
// ephemeral ones when their TTL runs out.
type ChatNotifier struct {
	gw     Gateway
	sched  scheduler.Scheduler
	chatID int64
}

// NewChatNotifier creates a notifier for chatID.
func NewChatNotifier(gw Gateway, sched scheduler.Scheduler, chatID int64) *ChatNotifier {
	return &ChatNotifier{gw: gw, sched: sched, chatID: chatID}
}

// Announce sends msg. Delivery failures are logged and dropped.
func (n *ChatNotifier) Announce(ctx context.Context, msg game.Message) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	id, err := n.gw.Send(ctx, n.chatID, msg.Text, SendOptions{Markdown: msg.Markdown})
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", n.chatID).Msg("Failed to send announcement")
		return
	}
	n.DeleteAfter(n.chatID, id, msg.TTL)
}

// DeleteAfter schedules deletion of a message. ttl <= 0 keeps the message.
func (n *ChatNotifier) DeleteAfter(chatID int64, messageID int, ttl time.Duration) {
	if ttl <= 0 || messageID == 0 {
		return
	}
	n.sched.After(ttl, func() {
		ctx, cancel := context.WithTimeout(context.Background(), gatewayTimeout)
		defer cancel()
		if err := n.gw.Delete(ctx, chatID, messageID); err != nil {
			log.Debug().Err(err).Int("msg_id", messageID).Msg("Failed to delete message")
		}
	})
}

var _ game.Notifier = (*ChatNotifier)(nil)
