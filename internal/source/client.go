// Package source implements the OpenBeta GraphQL client: root and child
// enumeration plus the bounded region fetcher with oversize classification.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors for the source taxonomy.
var (
	// ErrSourceUnavailable marks transport or connection failures and
	// non-success statuses. Fatal when raised during root enumeration.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSourceProtocol marks malformed responses and GraphQL error
	// payloads. Fatal at root enumeration, skippable per region.
	ErrSourceProtocol = errors.New("source protocol error")
)

// Config controls the GraphQL client.
type Config struct {
	// APIURL is the GraphQL endpoint.
	APIURL string
	// UserAgent identifies the harvester to the source.
	UserAgent string
	// FetchTimeout bounds one bounded-region query (default 120s).
	FetchTimeout time.Duration
	// ListTimeout bounds enumeration queries (default 30s).
	ListTimeout time.Duration
}

// Client issues GraphQL POSTs. It implements harvest.Enumerator and
// harvest.RegionFetcher and keeps no state between calls.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds a Client with pooled transport.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("source.api_url is required")
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 120 * time.Second
	}
	if cfg.ListTimeout <= 0 {
		cfg.ListTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: newHTTPTransport(),
		},
		logger: logger,
	}, nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// post sends one GraphQL request under the supplied deadline and decodes the
// envelope. The raw HTTP status is returned so callers can classify gateway
// failures; transport errors are reported as-is for timeout inspection.
func (c *Client) post(
	ctx context.Context,
	query string,
	variables map[string]any,
	timeout time.Duration,
) (status int, env gqlEnvelope, err error) {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return 0, env, fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return 0, env, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, env, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, env, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, env, nil
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return resp.StatusCode, env, fmt.Errorf("decode response: %w: %v", ErrSourceProtocol, err)
	}
	return resp.StatusCode, env, nil
}

// isTimeout reports whether the transport error is a deadline expiry, the
// signal the fetcher reclassifies as oversize.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

const maxResponseBytes = 256 << 20

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
