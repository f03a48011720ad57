// Package client talks to a running spry server over the JSON control
// protocol. It is the programmatic counterpart of `spry control` and is also
// used by the interactive browser to drive its server subprocess.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/conneroisu/spry/internal/protocol"
)

const defaultTimeout = 5 * time.Second

// Client issues control commands against one server URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Useful for tests and
// for callers that need custom transports.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-command timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New creates a client for the server at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts one command and decodes the response. A success=false response
// is not an error at this layer; callers decide how to surface it.
func (c *Client) Send(ctx context.Context, cmd protocol.Command) (protocol.Response, error) {
	var resp protocol.Response

	payload, err := json.Marshal(cmd)
	if err != nil {
		return resp, fmt.Errorf("encode command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/control", bytes.NewReader(payload))
	if err != nil {
		return resp, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return resp, fmt.Errorf("send command: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return resp, fmt.Errorf("control endpoint returned %s", httpResp.Status)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return resp, fmt.Errorf("decode response: %w", err)
	}

	return resp, nil
}

// SetDirectory points the server at a new directory root.
func (c *Client) SetDirectory(ctx context.Context, path string) (protocol.Response, error) {
	return c.Send(ctx, protocol.SetDirectory(path))
}

// SetFile puts the server in direct-file mode for path.
func (c *Client) SetFile(ctx context.Context, path string) (protocol.Response, error) {
	return c.Send(ctx, protocol.SetFile(path))
}

// Status queries the server without mutating it.
func (c *Client) Status(ctx context.Context) (protocol.Response, error) {
	return c.Send(ctx, protocol.GetStatus())
}

// Stop asks the server to shut down. The server replies before exiting.
func (c *Client) Stop(ctx context.Context) (protocol.Response, error) {
	return c.Send(ctx, protocol.Stop())
}
