// Package wire holds the HTTP plumbing shared by every backend adapter:
// a lazily-built pooled client, and JSON/stream request helpers. It is
// the adapters' equivalent of the teacher SDK's pkg/internal/http
// client, generalized from a single global client to one client per
// adapter instance (each backend may have different pool needs).
package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/llmgateway/gatewayd/pkg/gwerrors"
	"github.com/llmgateway/gatewayd/pkg/httpclient"
)

// Client wraps a pooled *http.Client with a fixed base URL and default
// headers, offering JSON and streaming call helpers used by every
// adapter.
type Client struct {
	BaseURL string
	Headers map[string]string

	once   sync.Once
	client *http.Client
	buildErr error
}

func (c *Client) ensure() error {
	c.once.Do(func() {
		c.client, c.buildErr = httpclient.Build(httpclient.Production())
	})
	return c.buildErr
}

// Post marshals body as JSON, issues a POST to BaseURL+path with the
// client's default headers plus any extra headers, and returns the raw
// status and response body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, extraHeaders map[string]string) (int, []byte, error) {
	if err := c.ensure(); err != nil {
		return 0, nil, gwerrors.Wrap(gwerrors.Internal, "wire: build client", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, gwerrors.Wrap(gwerrors.Serialization, "wire: marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, gwerrors.Wrap(gwerrors.Internal, "wire: build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, gwerrors.Wrap(gwerrors.Upstream, "wire: request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, gwerrors.Wrap(gwerrors.Upstream, "wire: read response", err)
	}

	return resp.StatusCode, respBody, nil
}

// PostStream is like Post but returns the live response body for
// streaming consumption; the caller must Close it. Responses with
// status 400 or above are read fully and returned as an Upstream error.
func (c *Client) PostStream(ctx context.Context, path string, body interface{}, extraHeaders map[string]string) (io.ReadCloser, error) {
	if err := c.ensure(); err != nil {
		return nil, gwerrors.Wrap(gwerrors.Internal, "wire: build client", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.Serialization, "wire: marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.Internal, "wire: build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.Upstream, "wire: request failed", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(resp.Body)
		return nil, gwerrors.Wrap(gwerrors.Upstream, fmt.Sprintf("wire: upstream status %d: %s", resp.StatusCode, string(errBody)), nil)
	}

	return resp.Body, nil
}
