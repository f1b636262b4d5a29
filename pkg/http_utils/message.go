package http_utils

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
)

// Message is a single HTTP exchange: a request whose body is buffered in memory and,
// once sent, the response that came back for it.
type Message struct {
	Request      *http.Request
	RequestBody  []byte
	Response     *http.Response
	ResponseBody []byte
}

// NewMessage buffers the request body and wraps the request into a Message
func NewMessage(req *http.Request) (*Message, error) {
	msg := &Message{Request: req}
	if req.Body != nil && req.Body != http.NoBody {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		msg.RequestBody = body
	}
	req.Body = nil
	req.GetBody = nil
	return msg, nil
}

// CloneRequest returns a deep copy of the request side of the message with an empty response slot
func (m *Message) CloneRequest() *Message {
	clone := &Message{}
	if m.Request != nil {
		clone.Request = m.Request.Clone(context.Background())
		clone.Request.Body = nil
		clone.Request.GetBody = nil
	}
	if m.RequestBody != nil {
		clone.RequestBody = append([]byte(nil), m.RequestBody...)
	}
	return clone
}

// SetRequestBody replaces the buffered body and keeps Content-Length in sync
func (m *Message) SetRequestBody(body []byte) {
	m.RequestBody = body
	m.Request.ContentLength = int64(len(body))
	if m.Request.Header.Get("Content-Length") != "" {
		m.Request.Header.Set("Content-Length", strconv.Itoa(len(body)))
	}
}

// SetURI retargets the request, including its Host
func (m *Message) SetURI(u *url.URL) {
	m.Request.URL = u
	m.Request.Host = u.Host
}

// BuildRequest returns a sendable copy of the request bound to ctx
func (m *Message) BuildRequest(ctx context.Context) *http.Request {
	req := m.Request.Clone(ctx)
	if len(m.RequestBody) > 0 {
		body := m.RequestBody
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		req.ContentLength = int64(len(body))
	} else {
		req.Body = nil
		req.GetBody = nil
		req.ContentLength = 0
	}
	return req
}

// Cookies returns the cookies sent in the request, in the order they appear in the Cookie headers
func (m *Message) Cookies() []*http.Cookie {
	if m.Request == nil {
		return nil
	}
	var cookies []*http.Cookie
	for _, header := range m.Request.Header.Values("Cookie") {
		cookies = append(cookies, ParseCookies(header)...)
	}
	return cookies
}

// SetCookies replaces the request cookies with the provided ones, keeping their order
func (m *Message) SetCookies(cookies []*http.Cookie) {
	m.Request.Header.Del("Cookie")
	if len(cookies) == 0 {
		return
	}
	m.Request.Header.Set("Cookie", JoinCookies(cookies))
}

// StatusCode returns the response status code, 0 when there is no response yet
func (m *Message) StatusCode() int {
	if m.Response == nil {
		return 0
	}
	return m.Response.StatusCode
}

// ResponseHeader returns the first value of a response header, empty if missing
func (m *Message) ResponseHeader(name string) string {
	if m.Response == nil {
		return ""
	}
	return m.Response.Header.Get(name)
}

// HasResponseHeader reports whether the response carries the header at all
func (m *Message) HasResponseHeader(name string) bool {
	if m.Response == nil {
		return false
	}
	_, ok := m.Response.Header[http.CanonicalHeaderKey(name)]
	return ok
}

// RawRequest dumps the request as it would be sent on the wire
func (m *Message) RawRequest() []byte {
	if m.Request == nil {
		return nil
	}
	dump, err := httputil.DumpRequestOut(m.BuildRequest(context.Background()), true)
	if err != nil {
		return nil
	}
	return dump
}

// RawResponse dumps the response headers followed by the buffered body
func (m *Message) RawResponse() []byte {
	if m.Response == nil {
		return nil
	}
	head, err := httputil.DumpResponse(&http.Response{
		Status:     m.Response.Status,
		StatusCode: m.Response.StatusCode,
		Proto:      m.Response.Proto,
		ProtoMajor: m.Response.ProtoMajor,
		ProtoMinor: m.Response.ProtoMinor,
		Header:     m.Response.Header,
	}, false)
	if err != nil {
		return nil
	}
	return append(head, m.ResponseBody...)
}
