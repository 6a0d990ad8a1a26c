// Package handler is the session coordinator. It routes chat events to the trivia,
// roll and duel engines, gates admin commands and cleans up ephemeral messages.
package handler

import (
	"context"
	"time"

	"harvester-bot/internal/model"
	"harvester-bot/internal/relay"
)

// Privilege is a chat member's role as reported by the messaging gateway.
type Privilege int

// Privileges.
const (
	PrivilegeUnknown Privilege = iota
	PrivilegeMember
	PrivilegeAdministrator
	PrivilegeCreator
)

// IsAdmin reports whether the privilege allows admin commands.
func (p Privilege) IsAdmin() bool {
	return p == PrivilegeAdministrator || p == PrivilegeCreator
}

func (p Privilege) String() string {
	switch p {
	case PrivilegeMember:
		return "member"
	case PrivilegeAdministrator:
		return "administrator"
	case PrivilegeCreator:
		return "creator"
	default:
		return "unknown"
	}
}

// Button is one inline keyboard button.
type Button struct {
	Text string
	Data string
}

// SendOptions tune an outbound message.
type SendOptions struct {
	ReplyTo  int
	Markdown bool
	Keyboard [][]Button
	Caption  string
}

// Gateway is the messaging platform as seen by the coordinator.
type Gateway interface {
	Send(ctx context.Context, chatID int64, text string, opts SendOptions) (int, error)
	SendPhoto(ctx context.Context, chatID int64, photo []byte, opts SendOptions) (int, error)
	Delete(ctx context.Context, chatID int64, messageID int) error
	Privilege(ctx context.Context, chatID, userID int64) (Privilege, error)
	Member(ctx context.Context, chatID, userID int64) (model.Player, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Relay forwards chat posts to the bridged platform.
type Relay interface {
	Forward(ctx context.Context, p relay.Post) error
}

// PriceSource returns the current coin price.
type PriceSource interface {
	Fetch(ctx context.Context) (float64, error)
	Symbol() string
}

// CardRenderer draws the picture cards.
type CardRenderer interface {
	RenderPrice(ctx context.Context, background, symbol string, p float64) ([]byte, error)
	RenderGreeting(ctx context.Context, background, text string) ([]byte, error)
}

// Quoted is the message an event replies to.
type Quoted struct {
	Author string
	Text   string
}

// Event is one inbound chat message.
type Event struct {
	ChatID    int64
	MessageID int
	Sender    model.Player
	Text      string
	// Payload is the command argument string, if any.
	Payload string
	Date    time.Time
	ReplyTo *Quoted

	PhotoFileID string
	Caption     string
}
