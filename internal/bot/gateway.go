package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"harvester-bot/internal/handler"
	"harvester-bot/internal/model"
)

// API is the part of *tele.Bot the gateway needs.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
	FileByID(fileID string) (tele.File, error)
	File(file *tele.File) (io.ReadCloser, error)
}

// Gateway implements handler.Gateway on top of the Telegram Bot API.
// telebot has no context support, so ctx is only checked before each call.
type Gateway struct {
	api API
}

// NewGateway wraps api.
func NewGateway(api API) *Gateway {
	return &Gateway{api: api}
}

var _ handler.Gateway = (*Gateway)(nil)

// Send posts a text message.
func (g *Gateway) Send(ctx context.Context, chatID int64, text string, opts handler.SendOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg, err := g.api.Send(tele.ChatID(chatID), text, sendOptions(opts))
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return msg.ID, nil
}

// SendPhoto posts a JPEG with an optional caption.
func (g *Gateway) SendPhoto(ctx context.Context, chatID int64, photo []byte, opts handler.SendOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p := &tele.Photo{File: tele.FromReader(bytes.NewReader(photo)), Caption: opts.Caption}
	msg, err := g.api.Send(tele.ChatID(chatID), p, sendOptions(opts))
	if err != nil {
		return 0, fmt.Errorf("send photo: %w", err)
	}
	return msg.ID, nil
}

// Delete removes a message.
func (g *Gateway) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.api.Delete(tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID})
}

// Privilege looks up the member's role in chatID.
func (g *Gateway) Privilege(ctx context.Context, chatID, userID int64) (handler.Privilege, error) {
	if err := ctx.Err(); err != nil {
		return handler.PrivilegeUnknown, err
	}
	m, err := g.api.ChatMemberOf(tele.ChatID(chatID), &tele.User{ID: userID})
	if err != nil {
		return handler.PrivilegeUnknown, fmt.Errorf("chat member: %w", err)
	}
	return privilegeOf(m.Role), nil
}

// Member returns the chat member as a player.
func (g *Gateway) Member(ctx context.Context, chatID, userID int64) (model.Player, error) {
	if err := ctx.Err(); err != nil {
		return model.Player{}, err
	}
	m, err := g.api.ChatMemberOf(tele.ChatID(chatID), &tele.User{ID: userID})
	if err != nil {
		return model.Player{}, fmt.Errorf("chat member: %w", err)
	}
	if m.User == nil {
		return model.Player{ID: userID}, nil
	}
	return playerOf(m.User), nil
}

// Download fetches a file's content.
func (g *Gateway) Download(ctx context.Context, fileID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := g.api.FileByID(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}
	rc, err := g.api.File(&f)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func sendOptions(opts handler.SendOptions) *tele.SendOptions {
	so := &tele.SendOptions{}
	if opts.ReplyTo != 0 {
		so.ReplyTo = &tele.Message{ID: opts.ReplyTo}
		so.AllowWithoutReply = true
	}
	if opts.Markdown {
		so.ParseMode = tele.ModeMarkdown
	}
	if len(opts.Keyboard) > 0 {
		rows := make([][]tele.InlineButton, len(opts.Keyboard))
		for i, row := range opts.Keyboard {
			rows[i] = make([]tele.InlineButton, len(row))
			for j, b := range row {
				rows[i][j] = tele.InlineButton{Text: b.Text, Data: b.Data}
			}
		}
		so.ReplyMarkup = &tele.ReplyMarkup{InlineKeyboard: rows}
	}
	return so
}

func privilegeOf(role tele.MemberStatus) handler.Privilege {
	switch role {
	case tele.Creator:
		return handler.PrivilegeCreator
	case tele.Administrator:
		return handler.PrivilegeAdministrator
	case tele.Member, tele.Restricted:
		return handler.PrivilegeMember
	default:
		return handler.PrivilegeUnknown
	}
}

func playerOf(u *tele.User) model.Player {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	return model.Player{ID: u.ID, DisplayName: name, Handle: u.Username, IsBot: u.IsBot}
}
