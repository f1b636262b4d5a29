package lib

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// SplitHTTPMessage splits an HTTP message into headers and body parts
func SplitHTTPMessage(message []byte) ([]byte, []byte, error) {
	parts := bytes.SplitN(message, []byte("\r\n\r\n"), 2)
	if len(parts) != 2 {
		// Try with just \n\n in case the message uses LF instead of CRLF
		parts = bytes.SplitN(message, []byte("\n\n"), 2)
		if len(parts) != 2 {
			return nil, nil, errors.New("invalid HTTP message format")
		}
	}

	return parts[0], parts[1], nil
}

// ParseRawRequest parses a raw HTTP/1.x request (as exported by intercepting proxies) into an
// http.Request. The body is kept byte for byte and Content-Length is recomputed, since exported
// requests are frequently edited by hand. scheme is used to build the absolute URL.
func ParseRawRequest(raw []byte, scheme string) (*http.Request, error) {
	head, body, err := SplitHTTPMessage(raw)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.ReplaceAll(string(head), "\r\n", "\n"), "\n")
	var normalized strings.Builder
	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			continue
		}
		normalized.WriteString(line)
		normalized.WriteString("\r\n")
	}
	normalized.WriteString("Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n")

	req, err := http.ReadRequest(bufio.NewReader(io.MultiReader(strings.NewReader(normalized.String()), bytes.NewReader(body))))
	if err != nil {
		return nil, fmt.Errorf("parsing raw request: %w", err)
	}
	if scheme == "" {
		scheme = "https"
	}
	if req.Host == "" {
		return nil, errors.New("raw request has no Host header")
	}
	req.URL.Scheme = scheme
	req.URL.Host = req.Host
	// Requests built by ReadRequest are server side requests
	req.RequestURI = ""
	return req, nil
}
