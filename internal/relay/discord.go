// Package relay forwards community chat messages to a Discord channel webhook.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// DefaultUsername is shown in Discord when the sender has no name.
const DefaultUsername = "RPDAO Telegram"

// ErrNoWebhook is returned by Forward when no webhook URL is configured.
var ErrNoWebhook = errors.New("relay webhook is not configured")

// Post is one message to relay. Photo is optional.
type Post struct {
	Username  string
	Text      string
	Photo     []byte
	PhotoName string
}

// Quote renders the reference line prepended to replies.
func Quote(author, text string) string {
	if strings.TrimSpace(author) == "" {
		author = "Unknown"
	}
	if text == "" {
		text = "<media>"
	}
	return fmt.Sprintf("Reply to message from **%s**:\n> %s\n\n", author, text)
}

type webhookPayload struct {
	Content   string `json:"content"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Discord posts to a webhook URL over fasthttp.
type Discord struct {
	webhook   string
	username  string
	avatarURL string
	timeout   time.Duration
	http      *fasthttp.Client
}

// Option configures a Discord relay.
type Option func(*Discord)

// WithTimeout bounds every webhook call.
func WithTimeout(d time.Duration) Option {
	return func(c *Discord) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUsername replaces DefaultUsername for senders without a name.
func WithUsername(name string) Option {
	return func(c *Discord) {
		if name = strings.TrimSpace(name); name != "" {
			c.username = name
		}
	}
}

// WithAvatarURL sets the avatar shown for relayed posts.
func WithAvatarURL(u string) Option {
	return func(c *Discord) { c.avatarURL = u }
}

// WithDialer replaces the network dialer, used with in-memory listeners in tests.
func WithDialer(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Discord) { c.http.Dial = dial }
}

// NewDiscord creates a relay for the given webhook URL.
func NewDiscord(webhook string, opts ...Option) *Discord {
	d := &Discord{
		webhook:  strings.TrimSpace(webhook),
		username: DefaultUsername,
		timeout:  10 * time.Second,
		http:     &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 8},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enabled reports whether a webhook is configured.
func (d *Discord) Enabled() bool {
	return d.webhook != ""
}

// Forward sends p to Discord. Text posts go as JSON, photo posts as multipart.
// Failures are returned once; there is no retry.
func (d *Discord) Forward(ctx context.Context, p Post) error {
	if !d.Enabled() {
		return ErrNoWebhook
	}
	if p.Username == "" {
		p.Username = d.username
	}
	payload := webhookPayload{Content: p.Text, Username: p.Username, AvatarURL: d.avatarURL}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(d.webhook)

	if len(p.Photo) == 0 {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal webhook payload: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	} else {
		body, contentType, err := multipartBody(payload, p)
		if err != nil {
			return err
		}
		req.Header.SetContentType(contentType)
		req.SetBody(body)
	}

	if err := d.http.DoDeadline(req, resp, d.deadline(ctx)); err != nil {
		return fmt.Errorf("failed to post to discord: %w", err)
	}

	status := resp.StatusCode()
	if status != fasthttp.StatusOK && status != fasthttp.StatusNoContent {
		return fmt.Errorf("discord webhook error: status=%d body=%s", status, truncate(string(resp.Body()), 256))
	}

	log.Debug().
		Str("username", p.Username).
		Bool("photo", len(p.Photo) > 0).
		Msg("Relayed message to Discord")
	return nil
}

func multipartBody(payload webhookPayload, p Post) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	meta, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("marshal webhook payload: %w", err)
	}
	if err := w.WriteField("payload_json", string(meta)); err != nil {
		return nil, "", fmt.Errorf("write payload field: %w", err)
	}

	name := p.PhotoName
	if name == "" {
		name = "photo.jpg"
	}
	part, err := w.CreateFormFile("files[0]", name)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(p.Photo); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (d *Discord) deadline(ctx context.Context) time.Time {
	limit := time.Now().Add(d.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(limit) {
		return dl
	}
	return limit
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
