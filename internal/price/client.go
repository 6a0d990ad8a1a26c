// Package price fetches the coin price and renders the picture cards posted to the chat.
package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// ErrNoQuote is returned when the response has no price for the configured pair.
var ErrNoQuote = errors.New("price not present in response")

// Client queries a CoinGecko compatible simple price endpoint.
type Client struct {
	apiURL   string
	coin     string
	currency string
	timeout  time.Duration
	http     *fasthttp.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientTimeout bounds every price request.
func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClientDialer replaces the network dialer.
func WithClientDialer(dial func(addr string) (net.Conn, error)) ClientOption {
	return func(c *Client) { c.http.Dial = dial }
}

// NewClient creates a price client, e.g. NewClient("https://api.coingecko.com/api/v3/simple/price", "bitcoin", "usd").
func NewClient(apiURL, coin, currency string, opts ...ClientOption) *Client {
	c := &Client{
		apiURL:   strings.TrimRight(apiURL, "/"),
		coin:     strings.ToLower(coin),
		currency: strings.ToLower(currency),
		timeout:  10 * time.Second,
		http:     &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the current price rounded to cents.
func (c *Client) Fetch(ctx context.Context) (float64, error) {
	q := url.Values{}
	q.Set("ids", c.coin)
	q.Set("vs_currencies", c.currency)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.apiURL + "?" + q.Encode())
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return 0, fmt.Errorf("failed to fetch price: %w", err)
	}
	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		return 0, fmt.Errorf("price api error: status=%d", status)
	}

	var quotes map[string]map[string]float64
	if err := json.Unmarshal(resp.Body(), &quotes); err != nil {
		return 0, fmt.Errorf("decode price response: %w", err)
	}
	p, ok := quotes[c.coin][c.currency]
	if !ok || p <= 0 {
		return 0, ErrNoQuote
	}
	return math.Round(p*100) / 100, nil
}

// Symbol returns the ticker shown on the card, e.g. BTC for bitcoin.
func (c *Client) Symbol() string {
	if c.coin == "bitcoin" {
		return "BTC"
	}
	return strings.ToUpper(c.coin)
}

// Format renders a price without trailing zeros, e.g. 67123.4.
func Format(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// Caption is the text attached to the price card.
func Caption(symbol string, p float64) string {
	return fmt.Sprintf("Greetings Adventurers! Current #price $%s: $%s", symbol, Format(p))
}
