package gwerrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := map[Kind]int{
		BadRequest:       http.StatusBadRequest,
		Unauthorized:     http.StatusUnauthorized,
		TooManyRequests:  http.StatusTooManyRequests,
		Upstream:         http.StatusBadGateway,
		DeadlineExceeded: http.StatusGatewayTimeout,
		Internal:         http.StatusInternalServerError,
		Serialization:    http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.StatusCode(), "kind=%s", kind)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Upstream, "backend failed", cause)
	require.ErrorIs(t, err, cause)
	assert.True(t, Is(err, Upstream))
	assert.False(t, Is(err, Internal))
}

func TestWithRetryAfter(t *testing.T) {
	err := New(TooManyRequests, "slow down").WithRetryAfter(60)
	require.NotNil(t, err.RetryAfter)
	assert.Equal(t, 60, *err.RetryAfter)
}

func TestBodyShape(t *testing.T) {
	err := New(BadRequest, "no messages")
	body := err.Body()
	assert.Equal(t, "no messages", body.Error.Message)
	assert.Equal(t, BadRequest, body.Error.Type)
	assert.Nil(t, body.Error.Code)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(Upstream))
	assert.True(t, Retryable(TooManyRequests))
	assert.True(t, Retryable(DeadlineExceeded))
	assert.False(t, Retryable(BadRequest))
	assert.False(t, Retryable(Unauthorized))
}
