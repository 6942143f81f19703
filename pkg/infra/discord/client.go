package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/cupnotifier/pkg/domain/interfaces"
	"github.com/m-mizutani/cupnotifier/pkg/domain/model"
	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// MaxEmbeds is the number of embeds Discord accepts in one webhook message
const MaxEmbeds = 10

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       int       `json:"color"`
	URL         *string   `json:"url,omitempty"`
	Thumbnail   thumbnail `json:"thumbnail"`
}

type thumbnail struct {
	URL string `json:"url"`
}

type client struct {
	webhookURL string
	httpClient *http.Client
}

// Option is a functional option for the Discord client
type Option func(*client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a NotificationSink posting embeds to a Discord webhook
func NewClient(webhookURL string, opts ...Option) interfaces.NotificationSink {
	c := &client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) MaxBatchSize() int {
	return MaxEmbeds
}

// Send posts one webhook message carrying the whole batch as embeds
func (c *client) Send(ctx context.Context, batch model.Batch) error {
	if len(batch) > MaxEmbeds {
		return goerr.New("too many embeds in one message",
			goerr.V("count", len(batch)),
			goerr.V("max", MaxEmbeds),
			goerr.T(types.ErrTagSinkDelivery),
		)
	}

	payload := webhookPayload{Embeds: make([]embed, 0, len(batch))}
	for _, n := range batch {
		payload.Embeds = append(payload.Embeds, embed{
			Title:       n.Title,
			Description: n.Description,
			Color:       n.Color,
			URL:         n.URL,
			Thumbnail:   thumbnail{URL: n.ThumbnailURL},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal webhook payload", goerr.T(types.ErrTagSinkDelivery))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to create webhook request", goerr.T(types.ErrTagSinkDelivery))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to post Discord webhook", goerr.T(types.ErrTagSinkDelivery))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return goerr.New("Discord webhook returned non-success status",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(respBody)),
			goerr.T(types.ErrTagSinkDelivery),
		)
	}

	ctxlog.From(ctx).Debug("Sent Discord webhook", "embeds", len(batch), "status", resp.StatusCode)
	return nil
}
