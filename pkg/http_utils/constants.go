package http_utils

import (
	"context"
	"errors"
	"strings"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Error categories used to tag transport failures in logs and findings
const (
	ErrorCategoryCanceled            = "canceled"
	ErrorCategoryConnectionClosedEOF = "connection_closed_eof"
	ErrorCategoryConnectionRefused   = "connection_refused"
	ErrorCategoryConnectionReset     = "connection_reset"
	ErrorCategoryDNSResolution       = "dns_resolution"
	ErrorCategoryTimeoutDeadline     = "timeout_deadline_exceeded"
	ErrorCategoryTimeoutGeneric      = "timeout_generic"
	ErrorCategoryTLSError            = "tls_error"
	ErrorCategoryURLControlCharacter = "url_control_character"
	ErrorCategoryUnknown             = "unknown"
	ErrorCategoryNone                = "none"
)

var errorCategoryMatchers = []struct {
	substring string
	category  string
}{
	{"connection refused", ErrorCategoryConnectionRefused},
	{"connection reset", ErrorCategoryConnectionReset},
	{"no such host", ErrorCategoryDNSResolution},
	{"context deadline exceeded", ErrorCategoryTimeoutDeadline},
	{"timeout", ErrorCategoryTimeoutGeneric},
	{"invalid control character in url", ErrorCategoryURLControlCharacter},
	{"tls", ErrorCategoryTLSError},
	{"certificate", ErrorCategoryTLSError},
	{"eof", ErrorCategoryConnectionClosedEOF},
}

// CategorizeRequestError categorizes different types of request errors
func CategorizeRequestError(err error) string {
	if err == nil {
		return ErrorCategoryNone
	}
	if errors.Is(err, context.Canceled) {
		return ErrorCategoryCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCategoryTimeoutDeadline
	}

	errorMsg := strings.ToLower(err.Error())
	for _, m := range errorCategoryMatchers {
		if strings.Contains(errorMsg, m.substring) {
			return m.category
		}
	}
	return ErrorCategoryUnknown
}
