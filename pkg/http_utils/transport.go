package http_utils

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/quic-go/quic-go/http3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/net/http2"
)

// Supported values for navigation.http_version
const (
	HTTPVersion1 = "1.1"
	HTTPVersion2 = "2"
	HTTPVersion3 = "3"
)

func getProxyFunc() func(*http.Request) (*url.URL, error) {
	proxy := viper.GetString("navigation.proxy")
	if proxy == "" {
		return http.ProxyFromEnvironment
	}
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		log.Error().Err(err).Str("proxy", proxy).Msg("Error parsing proxy url, using environment proxy")
		return http.ProxyFromEnvironment
	}
	return http.ProxyURL(proxyURL)
}

// CreateHttpTransport creates an HTTP transport with no pre-defined http version.
func CreateHttpTransport() *http.Transport {
	return &http.Transport{
		Proxy: getProxyFunc(),
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			Renegotiation:      tls.RenegotiateOnceAsClient,
			InsecureSkipVerify: true,
		},
	}
}

// CreateHttp2Transport creates an HTTP/2 only transport.
func CreateHttp2Transport() *http2.Transport {
	return &http2.Transport{
		AllowHTTP: false,
		DialTLS: func(network, addr string, cfg *tls.Config) (net.Conn, error) {
			if cfg == nil {
				cfg = &tls.Config{}
			}
			cfg.NextProtos = []string{"h2"}
			return tls.DialWithDialer(&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}, network, addr, cfg)
		},
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	}
}

// CreateHttp3Transport creates an HTTP/3 transport.
func CreateHttp3Transport() *http3.RoundTripper {
	return &http3.RoundTripper{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	}
}

// CreateHttpClient creates a regular HTTP client.
func CreateHttpClient() *http.Client {
	return &http.Client{
		Transport: CreateHttpTransport(),
	}
}

// CreateHttpClientForVersion creates a client speaking the requested HTTP version,
// falling back to the regular client for unknown values.
func CreateHttpClientForVersion(version string) *http.Client {
	switch version {
	case HTTPVersion2:
		return &http.Client{Transport: CreateHttp2Transport()}
	case HTTPVersion3:
		return &http.Client{Transport: CreateHttp3Transport()}
	case "", HTTPVersion1:
		return CreateHttpClient()
	default:
		log.Warn().Str("version", version).Msg("Unknown HTTP version, using HTTP/1.1")
		return CreateHttpClient()
	}
}

// NewSenderFromConfig builds the HTTPSender described by the navigation.* settings
func NewSenderFromConfig() *HTTPSender {
	userAgent := viper.GetString("navigation.user_agent")
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	sender := &HTTPSender{
		Client:    CreateHttpClientForVersion(viper.GetString("navigation.http_version")),
		Timeout:   time.Duration(viper.GetInt("navigation.timeout")) * time.Second,
		UserAgent: userAgent,
	}
	if rate := viper.GetFloat64("navigation.max_requests_per_second"); rate > 0 {
		sender.Limiter = NewRateLimiter(rate, viper.GetInt("navigation.burst"))
	}
	return sender
}
