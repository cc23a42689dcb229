// Package webhook delivers messages to a Discord channel through an
// incoming webhook URL.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"discordmcp/internal/domain"
	"discordmcp/internal/metrics"

	"github.com/bwmarrin/discordgo"
)

const (
	// DefaultTimeout bounds a single delivery attempt end to end.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of an error response body is read back.
	maxResponseBytes = 1 << 16
)

// Config configures the webhook client.
type Config struct {
	URL     string
	Timeout time.Duration // defaults to DefaultTimeout
	Logger  *slog.Logger
}

// Client posts messages to a single Discord webhook. One attempt per call,
// no retries; the underlying connection pool lives for the process and is
// released by Close.
type Client struct {
	url    string
	http   *http.Client
	logger *slog.Logger

	deliveries *metrics.Counter
	failures   *metrics.Counter
}

var _ domain.Sender = (*Client)(nil)

// New creates a webhook client. An empty URL is a configuration error and
// is rejected here, at construction, never deferred to the first send.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, domain.NewError(domain.ErrConfiguration, "webhook URL is required (set DISCORD_WEBHOOK_URL or webhook.url in the config)")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		url:        cfg.URL,
		http:       newHTTPClient(cfg.Timeout),
		logger:     cfg.Logger,
		deliveries: metrics.Collector.Counter("webhook_deliveries_total", "Successful webhook deliveries"),
		failures:   metrics.Collector.Counter("webhook_failures_total", "Failed webhook deliveries"),
	}, nil
}

// newHTTPClient returns an HTTP client with connection pooling tuned for a
// single long-lived endpoint.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// payload is the webhook wire body. Kept to the single content field on
// purpose: discordgo.WebhookParams always emits a components key, and the
// endpoint must see exactly {"content": ...}.
type payload struct {
	Content string `json:"content"`
}

// Send posts msg.Content to the webhook. The wire body carries only the
// content field; msg.Type is caller-side metadata and is not transmitted.
// A status below 400 counts as delivered, anything else is a delivery error
// carrying the status code and response body.
func (c *Client) Send(ctx context.Context, msg domain.Message) error {
	body, err := json.Marshal(payload{Content: msg.Content})
	if err != nil {
		return domain.WrapError(domain.ErrDelivery, err, "encode payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return domain.WrapError(domain.ErrDelivery, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.failures.Inc()
		return domain.WrapError(domain.ErrDelivery, err, "post webhook")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode >= 400 {
		c.failures.Inc()
		return domain.NewError(domain.ErrDelivery, "webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	c.deliveries.Inc()
	c.logger.Info("message delivered",
		"status", resp.StatusCode,
		"msg_type", msg.Type,
		"content_len", len(msg.Content),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// ParseURL splits a Discord webhook URL into its id and token. It accepts
// the canonical https://discord.com/api/webhooks/<id>/<token> shape, with
// or without an API version segment.
func ParseURL(raw string) (id, token string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse webhook URL: %w", err)
	}
	canonical, err := url.Parse(discordgo.EndpointDiscord)
	if err != nil {
		return "", "", err
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if u.Scheme != "https" || (host != canonical.Hostname() && host != "discordapp.com") {
		return "", "", fmt.Errorf("not a Discord webhook URL: %s://%s", u.Scheme, u.Host)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// api [/vN] /webhooks/<id>/<token>
	for len(parts) > 0 && parts[0] != "webhooks" {
		parts = parts[1:]
	}
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("webhook URL path must end in /webhooks/<id>/<token>")
	}
	return parts[1], parts[2], nil
}

// Inspect fetches the webhook object from the Discord API using the token
// embedded in the URL. Used by diagnostics to confirm the webhook exists.
func Inspect(raw string) (*discordgo.Webhook, error) {
	id, token, err := ParseURL(raw)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("")
	if err != nil {
		return nil, err
	}
	return session.WebhookWithToken(id, token)
}
