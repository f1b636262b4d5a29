package http_utils

import (
	"net/http"
	"strings"
)

// ParseCookies parses the value of a Cookie request header, preserving order.
// Fragments without a name are skipped.
func ParseCookies(cookieStr string) []*http.Cookie {
	cookies := []*http.Cookie{}
	for _, part := range strings.Split(cookieStr, ";") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 || pair[0] == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:  pair[0],
			Value: pair[1],
		})
	}
	return cookies
}

// JoinCookies serializes cookies into a Cookie request header value
func JoinCookies(cookies []*http.Cookie) string {
	cookieStrings := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		if cookie != nil {
			cookieStrings = append(cookieStrings, cookie.Name+"="+cookie.Value)
		}
	}
	return strings.Join(cookieStrings, "; ")
}
