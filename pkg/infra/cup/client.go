package cup

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/cupnotifier/pkg/domain/interfaces"
	"github.com/m-mizutani/cupnotifier/pkg/domain/model"
	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

const (
	refreshPath = "api/v3/refresh"
	jsonPath    = "api/v3/json"

	// maxResponseSize bounds the snapshot body read from Cup
	maxResponseSize = 32 << 20
)

type config struct {
	httpClient         *http.Client
	timeout            time.Duration
	insecureSkipVerify bool
}

// Option is a functional option for the Cup client
type Option func(*config)

// WithHTTPClient replaces the HTTP client. Timeout and TLS options are
// ignored when a client is given.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithTimeout sets the timeout of each HTTP request
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// WithInsecureSkipVerify disables TLS certificate verification. Cup is often
// served with a self-signed certificate.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *config) {
		c.insecureSkipVerify = skip
	}
}

type client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates an UpdateSource backed by a Cup instance
func NewClient(baseURL string, opts ...Option) (interfaces.UpdateSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse Cup base URL",
			goerr.V("base_url", baseURL),
			goerr.T(types.ErrTagConfig),
		)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, goerr.New("Cup base URL must be http or https",
			goerr.V("base_url", baseURL),
			goerr.T(types.ErrTagConfig),
		)
	}

	cfg := &config{
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.insecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
		}
		httpClient = &http.Client{
			Transport: transport,
			Timeout:   cfg.timeout,
		}
	}

	return &client{
		baseURL:    u,
		httpClient: httpClient,
	}, nil
}

// Fetch triggers a refresh on Cup and then downloads the refreshed snapshot
func (c *client) Fetch(ctx context.Context) (*model.Snapshot, error) {
	logger := ctxlog.From(ctx)
	logger.Info("Fetching fresh images data", "base_url", c.baseURL.String())

	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	snapshot, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	logger.Debug("Fetched images data",
		"images", len(snapshot.Images),
		"last_updated", snapshot.LastUpdated,
	)

	return snapshot, nil
}

func (c *client) refresh(ctx context.Context) error {
	endpoint := c.baseURL.JoinPath(refreshPath).String()

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return goerr.Wrap(err, "failed to request refresh",
			goerr.V("url", endpoint),
			goerr.T(types.ErrTagSourceUnavailable),
		)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return goerr.Wrap(err, "failed to read refresh response",
			goerr.V("url", endpoint),
			goerr.T(types.ErrTagSourceUnavailable),
		)
	}

	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "OK" {
		return goerr.New("refresh failed",
			goerr.V("url", endpoint),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)),
			goerr.T(types.ErrTagSourceUnavailable),
		)
	}

	return nil
}

func (c *client) snapshot(ctx context.Context) (*model.Snapshot, error) {
	endpoint := c.baseURL.JoinPath(jsonPath).String()

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to request images data",
			goerr.V("url", endpoint),
			goerr.T(types.ErrTagSourceUnavailable),
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status code for images data",
			goerr.V("url", endpoint),
			goerr.V("status", resp.StatusCode),
			goerr.T(types.ErrTagSourceUnavailable),
		)
	}

	var snapshot model.Snapshot
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&snapshot); err != nil {
		return nil, goerr.Wrap(err, "failed to decode images data",
			goerr.V("url", endpoint),
			goerr.T(types.ErrTagSourceData),
		)
	}

	return &snapshot, nil
}

func (c *client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}
	return c.httpClient.Do(req)
}
