package handler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"harvester-bot/internal/game/duel"
	"harvester-bot/internal/game/gametest"
	"harvester-bot/internal/game/roll"
	"harvester-bot/internal/game/trivia"
	"harvester-bot/internal/model"
	"harvester-bot/internal/pkg/scheduler"
	"harvester-bot/internal/relay"
	"harvester-bot/internal/repository"
	"harvester-bot/internal/service"
)

const testChat int64 = -1001

var errLookup = errors.New("lookup failed")

type sentMessage struct {
	ID     int
	ChatID int64
	Text   string
	Photo  []byte
	Opts   SendOptions
}

// fakeGateway records every call made by the coordinator.
type fakeGateway struct {
	mu         sync.Mutex
	nextID     int
	sent       []sentMessage
	deleted    []int
	privileges map[int64]Privilege
	privErr    error
	privPanic  bool
	members    map[int64]model.Player
	files      map[string][]byte
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		nextID:     1000,
		privileges: make(map[int64]Privilege),
		members:    make(map[int64]model.Player),
		files:      make(map[string][]byte),
	}
}

func (g *fakeGateway) Send(_ context.Context, chatID int64, text string, opts SendOptions) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	g.sent = append(g.sent, sentMessage{ID: g.nextID, ChatID: chatID, Text: text, Opts: opts})
	return g.nextID, nil
}

func (g *fakeGateway) SendPhoto(_ context.Context, chatID int64, photo []byte, opts SendOptions) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	g.sent = append(g.sent, sentMessage{ID: g.nextID, ChatID: chatID, Photo: photo, Opts: opts})
	return g.nextID, nil
}

func (g *fakeGateway) Delete(_ context.Context, _ int64, messageID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, messageID)
	return nil
}

func (g *fakeGateway) Privilege(_ context.Context, _ int64, userID int64) (Privilege, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.privPanic {
		panic("privilege lookup exploded")
	}
	if g.privErr != nil {
		return PrivilegeUnknown, g.privErr
	}
	if p, ok := g.privileges[userID]; ok {
		return p, nil
	}
	return PrivilegeMember, nil
}

func (g *fakeGateway) Member(_ context.Context, _ int64, userID int64) (model.Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.members[userID]
	if !ok {
		return model.Player{}, errLookup
	}
	return p, nil
}

func (g *fakeGateway) Download(_ context.Context, fileID string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	data, ok := g.files[fileID]
	if !ok {
		return nil, errLookup
	}
	return data, nil
}

func (g *fakeGateway) texts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.sent))
	for _, m := range g.sent {
		out = append(out, m.Text)
	}
	return out
}

func (g *fakeGateway) last() sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sent) == 0 {
		return sentMessage{}
	}
	return g.sent[len(g.sent)-1]
}

func (g *fakeGateway) photos() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []sentMessage
	for _, m := range g.sent {
		if m.Photo != nil {
			out = append(out, m)
		}
	}
	return out
}

func (g *fakeGateway) wasDeleted(id int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, d := range g.deleted {
		if d == id {
			return true
		}
	}
	return false
}

func (g *fakeGateway) findText(substr string) (sentMessage, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.sent {
		if strings.Contains(m.Text, substr) {
			return m, true
		}
	}
	return sentMessage{}, false
}

type fakeRelay struct {
	mu    sync.Mutex
	posts []relay.Post
}

func (r *fakeRelay) Forward(_ context.Context, p relay.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, p)
	return nil
}

func (r *fakeRelay) all() []relay.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]relay.Post(nil), r.posts...)
}

type fakePrices struct {
	price float64
	err   error
}

func (f fakePrices) Fetch(context.Context) (float64, error) { return f.price, f.err }
func (f fakePrices) Symbol() string                         { return "BTC" }

type fakeCards struct {
	backgrounds []string
	texts       []string
}

func (f *fakeCards) RenderPrice(_ context.Context, background, symbol string, p float64) ([]byte, error) {
	f.backgrounds = append(f.backgrounds, background)
	return []byte("price-card"), nil
}

func (f *fakeCards) RenderGreeting(_ context.Context, background, text string) ([]byte, error) {
	f.backgrounds = append(f.backgrounds, background)
	f.texts = append(f.texts, text)
	return []byte("greeting-card"), nil
}

// harness wires real engines to fakes and a manual clock.
type harness struct {
	gw     *fakeGateway
	sched  *scheduler.Manual
	scores *repository.FileScoreRepository
	relay  *fakeRelay
	cards  *fakeCards
	coord  *Coordinator
	duel   *duel.Engine
	roll   *roll.Engine
	trivia *trivia.Engine
	msgID  int
}

type harnessOptions struct {
	rollRand *gametest.Rand
	duelRand *gametest.Rand
	prices   PriceSource
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	gw := newFakeGateway()
	sched := scheduler.NewManual()
	scores, err := repository.NewFileScoreRepository(filepath.Join(t.TempDir(), "scores.json"))
	require.NoError(t, err)

	if opts.rollRand == nil {
		opts.rollRand = gametest.NewRand(0)
	}
	if opts.duelRand == nil {
		opts.duelRand = gametest.NewRand(0)
	}

	notifier := NewChatNotifier(gw, sched, testChat)
	bracket := duel.New(duel.DefaultConfig(), scores, notifier, opts.duelRand)
	rolls := roll.New(roll.DefaultConfig(), roll.Dependencies{
		Bracket: bracket, Ledger: scores, Notifier: notifier, Scheduler: sched, Rand: opts.rollRand,
	})
	quiz := trivia.New(trivia.DefaultConfig(), trivia.Dependencies{
		Questions: []trivia.Question{{Text: "Capital of France?", Answer: "Paris"}},
		Ledger:    scores, Notifier: notifier, Scheduler: sched, Rand: gametest.NewRand(0),
	})

	rl := &fakeRelay{}
	cards := &fakeCards{}
	coord := New(Dependencies{
		ChatID:       testChat,
		Gateway:      gw,
		Notifier:     notifier,
		Scheduler:    sched,
		Trivia:       quiz,
		Roll:         rolls,
		Duel:         bracket,
		Ranking:      service.NewRankingService(scores, 10),
		Relay:        rl,
		Prices:       opts.prices,
		Cards:        cards,
		Media:        Media{PriceBackground: "btc.jpg", Morning: "morning.jpg", Night: "night.jpg"},
		TTLs:         DefaultTTLs(),
		RecentWindow: 30 * time.Second,
		Rand:         gametest.NewRand(1),
	})
	coord.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	return &harness{
		gw: gw, sched: sched, scores: scores, relay: rl, cards: cards, coord: coord,
		duel: bracket, roll: rolls, trivia: quiz, msgID: 1,
	}
}

func (h *harness) event(p model.Player, text string) Event {
	h.msgID++
	return Event{
		ChatID:    testChat,
		MessageID: h.msgID,
		Sender:    p,
		Text:      text,
		Date:      h.coord.now(),
	}
}

var (
	admin = model.Player{ID: 1, DisplayName: "Admin", Handle: "boss"}
	alice = model.Player{ID: 10, DisplayName: "Alice", Handle: "alice"}
	bob   = model.Player{ID: 20, DisplayName: "Bob"}
	carol = model.Player{ID: 30, DisplayName: "Carol", Handle: "carol"}
)
