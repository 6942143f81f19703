package slack

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/cupnotifier/pkg/domain/interfaces"
	"github.com/m-mizutani/cupnotifier/pkg/domain/model"
	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// MaxAttachments keeps Slack messages the same size as Discord ones
const MaxAttachments = 10

type client struct {
	webhookURL string
	httpClient *http.Client
}

// Option is a functional option for the Slack client
type Option func(*client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a NotificationSink posting to a Slack incoming webhook
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
	return MaxAttachments
}

// Send posts one message with one attachment per notification
func (c *client) Send(ctx context.Context, batch model.Batch) error {
	if len(batch) > MaxAttachments {
		return goerr.New("too many attachments in one message",
			goerr.V("count", len(batch)),
			goerr.V("max", MaxAttachments),
			goerr.T(types.ErrTagSinkDelivery),
		)
	}

	msg := &slack.WebhookMessage{
		Text:        fmt.Sprintf("%d image update(s) available", len(batch)),
		Attachments: make([]slack.Attachment, 0, len(batch)),
	}
	for _, n := range batch {
		attachment := slack.Attachment{
			Color:    fmt.Sprintf("#%06x", n.Color),
			Title:    n.Title,
			Text:     n.Description,
			ThumbURL: n.ThumbnailURL,
			Fallback: n.Title,
		}
		if n.URL != nil {
			attachment.TitleLink = *n.URL
		}
		msg.Attachments = append(msg.Attachments, attachment)
	}

	if err := slack.PostWebhookCustomHTTPContext(ctx, c.webhookURL, c.httpClient, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack webhook", goerr.T(types.ErrTagSinkDelivery))
	}

	ctxlog.From(ctx).Debug("Sent Slack webhook", "attachments", len(batch))
	return nil
}
