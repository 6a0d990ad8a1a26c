package bot

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"harvester-bot/internal/handler"
	"harvester-bot/internal/model"
)

type sentCall struct {
	to   tele.Recipient
	what interface{}
	opts *tele.SendOptions
}

type fakeAPI struct {
	sent    []sentCall
	deleted []tele.Editable
	member  *tele.ChatMember
	err     error
	files   map[string]string
}

func (a *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if a.err != nil {
		return nil, a.err
	}
	call := sentCall{to: to, what: what}
	if len(opts) > 0 {
		call.opts, _ = opts[0].(*tele.SendOptions)
	}
	a.sent = append(a.sent, call)
	return &tele.Message{ID: 500 + len(a.sent)}, nil
}

func (a *fakeAPI) Delete(msg tele.Editable) error {
	a.deleted = append(a.deleted, msg)
	return a.err
}

func (a *fakeAPI) ChatMemberOf(_, _ tele.Recipient) (*tele.ChatMember, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.member, nil
}

func (a *fakeAPI) FileByID(fileID string) (tele.File, error) {
	if _, ok := a.files[fileID]; !ok {
		return tele.File{}, errors.New("file not found")
	}
	return tele.File{FileID: fileID}, nil
}

func (a *fakeAPI) File(file *tele.File) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(a.files[file.FileID])), nil
}

func TestGateway_SendWithKeyboard(t *testing.T) {
	api := &fakeAPI{}
	gw := NewGateway(api)

	id, err := gw.Send(context.Background(), -100, "*hi*", handler.SendOptions{
		ReplyTo:  9,
		Markdown: true,
		Keyboard: [][]handler.Button{{{Text: "➡️ Next", Data: "score_1"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 501, id)

	call := api.sent[0]
	assert.Equal(t, "-100", call.to.Recipient())
	assert.Equal(t, "*hi*", call.what)
	require.NotNil(t, call.opts)
	assert.Equal(t, 9, call.opts.ReplyTo.ID)
	assert.Equal(t, tele.ModeMarkdown, call.opts.ParseMode)
	assert.Equal(t, "score_1", call.opts.ReplyMarkup.InlineKeyboard[0][0].Data)
}

func TestGateway_SendPhoto(t *testing.T) {
	api := &fakeAPI{}
	gw := NewGateway(api)

	_, err := gw.SendPhoto(context.Background(), -100, []byte{0xff, 0xd8}, handler.SendOptions{Caption: "gm"})
	require.NoError(t, err)

	photo, ok := api.sent[0].what.(*tele.Photo)
	require.True(t, ok)
	assert.Equal(t, "gm", photo.Caption)
	assert.Nil(t, api.sent[0].opts.ReplyTo)
}

func TestGateway_SendError(t *testing.T) {
	gw := NewGateway(&fakeAPI{err: errors.New("flood")})
	_, err := gw.Send(context.Background(), -100, "x", handler.SendOptions{})
	assert.ErrorContains(t, err, "flood")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewGateway(&fakeAPI{}).Send(ctx, -100, "x", handler.SendOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGateway_Delete(t *testing.T) {
	api := &fakeAPI{}
	require.NoError(t, NewGateway(api).Delete(context.Background(), -100, 42))

	msgID, chatID := api.deleted[0].MessageSig()
	assert.Equal(t, "42", msgID)
	assert.Equal(t, int64(-100), chatID)
}

func TestGateway_Privilege(t *testing.T) {
	cases := map[tele.MemberStatus]handler.Privilege{
		tele.Creator:       handler.PrivilegeCreator,
		tele.Administrator: handler.PrivilegeAdministrator,
		tele.Member:        handler.PrivilegeMember,
		tele.Restricted:    handler.PrivilegeMember,
		tele.Left:          handler.PrivilegeUnknown,
		tele.Kicked:        handler.PrivilegeUnknown,
	}
	for role, want := range cases {
		gw := NewGateway(&fakeAPI{member: &tele.ChatMember{Role: role}})
		got, err := gw.Privilege(context.Background(), -100, 1)
		require.NoError(t, err)
		assert.Equal(t, want, got, string(role))
	}

	_, err := NewGateway(&fakeAPI{err: errors.New("bad request")}).Privilege(context.Background(), -100, 1)
	assert.Error(t, err)
}

func TestGateway_Member(t *testing.T) {
	api := &fakeAPI{member: &tele.ChatMember{User: &tele.User{ID: 5, FirstName: "Ada", LastName: "Lovelace", Username: "ada"}}}
	p, err := NewGateway(api).Member(context.Background(), -100, 5)
	require.NoError(t, err)
	assert.Equal(t, model.Player{ID: 5, DisplayName: "Ada Lovelace", Handle: "ada"}, p)
}

func TestGateway_Download(t *testing.T) {
	api := &fakeAPI{files: map[string]string{"abc": "jpeg-bytes"}}
	gw := NewGateway(api)

	data, err := gw.Download(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	_, err = gw.Download(context.Background(), "missing")
	assert.Error(t, err)
}

func TestEventFromMessage(t *testing.T) {
	m := &tele.Message{
		ID:       77,
		Chat:     &tele.Chat{ID: -100},
		Sender:   &tele.User{ID: 10, FirstName: "Alice", Username: "alice"},
		Text:     "/score 2",
		Payload:  "2",
		Unixtime: 1_700_000_000,
		ReplyTo: &tele.Message{
			Sender:  &tele.User{FirstName: "Bob"},
			Caption: "nice pic",
		},
	}

	ev := EventFromMessage(m)
	assert.Equal(t, int64(-100), ev.ChatID)
	assert.Equal(t, 77, ev.MessageID)
	assert.Equal(t, model.Player{ID: 10, DisplayName: "Alice", Handle: "alice"}, ev.Sender)
	assert.Equal(t, "2", ev.Payload)
	assert.Equal(t, time.Unix(1_700_000_000, 0), ev.Date)
	require.NotNil(t, ev.ReplyTo)
	assert.Equal(t, handler.Quoted{Author: "Bob", Text: "nice pic"}, *ev.ReplyTo)
}

func TestEventFromMessage_ChannelSenderIsBot(t *testing.T) {
	m := &tele.Message{
		Chat:       &tele.Chat{ID: -100},
		Sender:     &tele.User{ID: 136817688, IsBot: true},
		SenderChat: &tele.Chat{ID: -200, Title: "News"},
		Photo:      &tele.Photo{File: tele.File{FileID: "p1"}},
		Caption:    "hello",
	}

	ev := EventFromMessage(m)
	assert.True(t, ev.Sender.IsBot)
	assert.Equal(t, int64(-200), ev.Sender.ID)
	assert.Equal(t, "p1", ev.PhotoFileID)
	assert.Equal(t, "hello", ev.Caption)
	assert.Nil(t, ev.ReplyTo)
}
