// Package httpclient builds pooled outbound HTTP clients for backend
// adapters: connect/request timeouts, keep-alive, compression and
// optional HTTP/2 prior-knowledge, with separate production and
// development presets.
package httpclient

import (
	"compress/gzip"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/llmgateway/gatewayd/pkg/gwerrors"
)

// Options configures Build.
type Options struct {
	// ConnectTimeout bounds the TCP+TLS handshake. Default 10s.
	ConnectTimeout time.Duration

	// RequestTimeout bounds a whole request/response round trip.
	// Default 30s.
	RequestTimeout time.Duration

	// MaxIdleConnsPerHost bounds the per-host keep-alive pool.
	// Default 10.
	MaxIdleConnsPerHost int

	// MaxIdleConns bounds the total keep-alive pool. Default 100.
	MaxIdleConns int

	// DisableCompression turns off gzip/brotli response negotiation.
	DisableCompression bool

	// ForceHTTP2 enables HTTP/2 with prior knowledge over plain TCP.
	// Meaningful only for h2c backends; for TLS backends the stdlib
	// transport already negotiates HTTP/2 via ALPN.
	ForceHTTP2 bool
}

// Production returns the high-throughput preset: large pool, HTTP/2
// enabled, compression on.
func Production() Options {
	return Options{
		ConnectTimeout:      10 * time.Second,
		RequestTimeout:      30 * time.Second,
		MaxIdleConnsPerHost: 50,
		MaxIdleConns:        200,
		DisableCompression:  false,
		ForceHTTP2:          true,
	}
}

// Development returns the low-footprint preset: small pool, HTTP/2 and
// compression disabled for easier local debugging of raw traffic.
func Development() Options {
	return Options{
		ConnectTimeout:      10 * time.Second,
		RequestTimeout:      30 * time.Second,
		MaxIdleConnsPerHost: 2,
		MaxIdleConns:        10,
		DisableCompression:  true,
		ForceHTTP2:          false,
	}
}

// Build constructs an *http.Client per Options, applying the documented
// default to each zero-valued field. Build failures (a negative pool
// size) surface as gwerrors.Internal.
func Build(opts Options) (*http.Client, error) {
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxIdleConnsPerHost == 0 {
		opts.MaxIdleConnsPerHost = 10
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 100
	}

	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        opts.MaxIdleConns,
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  opts.DisableCompression,
		ForceAttemptHTTP2:   opts.ForceHTTP2,
	}

	if transport.MaxIdleConns < 0 || transport.MaxIdleConnsPerHost < 0 {
		return nil, gwerrors.New(gwerrors.Internal, "httpclient: negative pool size")
	}

	return &http.Client{
		Timeout:   opts.RequestTimeout,
		Transport: transport,
	}, nil
}

// AcceptEncodingHeader is the Accept-Encoding value adapters should send
// when DisableCompression is false; Go's stdlib transport only
// auto-negotiates gzip, so brotli responses must be decoded explicitly
// via DecodeBody below.
const AcceptEncodingHeader = "gzip, br"

// DecodeBody transparently decodes a response body per its
// Content-Encoding header (gzip via stdlib, br via the brotli decoder),
// returning the body unchanged for any other or absent encoding.
func DecodeBody(contentEncoding string, body io.Reader) (io.Reader, error) {
	switch contentEncoding {
	case "gzip":
		r, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("httpclient: gzip decode: %w", err)
		}
		return r, nil
	case "br":
		return brotli.NewReader(body), nil
	default:
		return body, nil
	}
}
