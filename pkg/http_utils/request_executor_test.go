package http_utils

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/timeout") {
			time.Sleep(2 * time.Second)
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if len(body) > 0 {
			w.Write(body)
			return
		}
		w.Write([]byte(`{"message": "success"}`))
	}))
	defer server.Close()

	t.Run("successful request", func(t *testing.T) {
		req, err := http.NewRequest("GET", server.URL+"/test", nil)
		assert.NoError(t, err)

		result := ExecuteRequest(req, RequestExecutionOptions{})

		assert.NoError(t, result.Err)
		assert.False(t, result.TimedOut)
		assert.NotNil(t, result.Response)
		assert.Equal(t, http.StatusOK, result.Response.StatusCode)
		assert.Contains(t, string(result.Body), "success")
		assert.Equal(t, http.NoBody, result.Response.Body)
	})

	t.Run("request with timeout", func(t *testing.T) {
		req, err := http.NewRequest("GET", server.URL+"/timeout", nil)
		assert.NoError(t, err)

		result := ExecuteRequest(req, RequestExecutionOptions{Timeout: 500 * time.Millisecond})

		assert.Error(t, result.Err)
		assert.True(t, result.TimedOut)
		assert.Nil(t, result.Response)
	})

	t.Run("request with custom client", func(t *testing.T) {
		req, err := http.NewRequest("POST", server.URL+"/test", bytes.NewReader([]byte("test body")))
		assert.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		client := &http.Client{Timeout: 5 * time.Second}

		result := ExecuteRequest(req, RequestExecutionOptions{
			Client:  client,
			Timeout: 10 * time.Second,
		})

		assert.NoError(t, result.Err)
		assert.Equal(t, "test body", string(result.Body))
		assert.Greater(t, result.Duration, time.Duration(0))
	})
}

func TestHTTPSenderSendAndReceive(t *testing.T) {
	var gotUserAgent, gotCookie string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.UserAgent()
		gotCookie = r.Header.Get("Cookie")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Disposition", "inline")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("stored"))
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodPost, server.URL+"/upload", strings.NewReader("payload"))
	require.NoError(t, err)
	req.Header.Set("Cookie", "session=abc")
	msg, err := NewMessage(req)
	require.NoError(t, err)

	sender := &HTTPSender{Client: server.Client(), UserAgent: "sukyan-test"}
	require.NoError(t, sender.SendAndReceive(context.Background(), msg))

	assert.Equal(t, "sukyan-test", gotUserAgent)
	assert.Equal(t, "session=abc", gotCookie)
	assert.Equal(t, "payload", string(gotBody))
	assert.Equal(t, http.StatusCreated, msg.StatusCode())
	assert.Equal(t, "stored", string(msg.ResponseBody))
	assert.Equal(t, "inline", msg.ResponseHeader("Content-Disposition"))

	// The message can be sent again, the body is buffered
	require.NoError(t, sender.SendAndReceive(context.Background(), msg))
	assert.Equal(t, "payload", string(gotBody))
}

func TestHTTPSenderCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	msg, err := NewMessage(req)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sender := &HTTPSender{Client: server.Client()}
	err = sender.SendAndReceive(ctx, msg)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, msg.Response)
}

func TestIsTimeoutError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "context deadline exceeded",
			err:      context.DeadlineExceeded,
			expected: true,
		},
		{
			name:     "timeout error",
			err:      &timeoutError{},
			expected: true,
		},
		{
			name:     "regular error",
			err:      assert.AnError,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsTimeoutError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// timeoutError is a helper for testing timeout error detection
type timeoutError struct{}

func (e *timeoutError) Error() string {
	return "request timeout"
}

func (e *timeoutError) Timeout() bool {
	return true
}
