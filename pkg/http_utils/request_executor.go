package http_utils

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// drainBody reads all of b to memory and closes it
func drainBody(b io.ReadCloser) ([]byte, error) {
	if b == nil || b == http.NoBody {
		return nil, nil
	}
	defer b.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RequestExecutionResult contains the complete result of an HTTP request execution
type RequestExecutionResult struct {
	Response *http.Response
	Body     []byte
	Duration time.Duration
	Err      error
	TimedOut bool
}

// RequestExecutionOptions contains options for executing HTTP requests
type RequestExecutionOptions struct {
	Client  *http.Client
	Timeout time.Duration
}

// ExecuteRequest executes an HTTP request and returns the response with its body fully read
func ExecuteRequest(req *http.Request, options RequestExecutionOptions) RequestExecutionResult {
	startTime := time.Now()

	client := options.Client
	if client == nil {
		client = CreateHttpClient()
	}

	if options.Timeout > 0 {
		ctx, cancel := context.WithTimeout(req.Context(), options.Timeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	result := RequestExecutionResult{}

	response, err := client.Do(req)
	if err != nil {
		result.Duration = time.Since(startTime)
		result.Err = err
		result.TimedOut = IsTimeoutError(err)
		return result
	}

	body, err := drainBody(response.Body)
	result.Duration = time.Since(startTime)
	if err != nil {
		result.Err = err
		result.TimedOut = IsTimeoutError(err)
		return result
	}
	response.Body = http.NoBody

	result.Response = response
	result.Body = body
	return result
}

// IsTimeoutError checks if an error is due to timeout
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	errorStr := err.Error()
	return strings.Contains(errorStr, "timeout") ||
		strings.Contains(errorStr, "deadline exceeded") ||
		strings.Contains(errorStr, "operation timed out")
}

// Sender performs an HTTP exchange in place, filling the response side of the message
type Sender interface {
	SendAndReceive(ctx context.Context, msg *Message) error
}

// HTTPSender is the Sender backed by a regular http.Client
type HTTPSender struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	// Limiter throttles requests per host, nil sends without limits
	Limiter *RateLimiter
}

// SendAndReceive sends the message request and stores the response and its body in the message
func (s *HTTPSender) SendAndReceive(ctx context.Context, msg *Message) error {
	req := msg.BuildRequest(ctx)
	if s.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx, req.URL.Host); err != nil {
			return err
		}
	}
	result := ExecuteRequest(req, RequestExecutionOptions{
		Client:  s.Client,
		Timeout: s.Timeout,
	})
	if result.Err != nil {
		log.Debug().Err(result.Err).Str("url", req.URL.String()).Str("method", req.Method).Str("category", CategorizeRequestError(result.Err)).Dur("duration", result.Duration).Msg("Request failed")
		return result.Err
	}
	if s.Limiter != nil {
		s.Limiter.Record(req.URL.Host, result.Duration)
	}
	log.Debug().Str("url", req.URL.String()).Str("method", req.Method).Int("status", result.Response.StatusCode).Int("size", len(result.Body)).Dur("duration", result.Duration).Msg("Request completed")
	msg.Response = result.Response
	msg.ResponseBody = result.Body
	return nil
}
