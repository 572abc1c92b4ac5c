package proxy

import (
	"net"
	"net/http"
	"time"

	"github.com/fernwall/tenant-gateway/internal/pkg/config"
)

// NewTransport builds the keep-alive transport shared by all forwarded
// requests. Idle connections are pooled and reused across requests; HTTP/2
// is attempted where the upstream supports it.
func NewTransport(s config.UpstreamSettings) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          s.MaxIdleConns,
		MaxIdleConnsPerHost:   s.MaxIdleConnsPerHost,
		MaxConnsPerHost:       s.MaxConnsPerHost,
		IdleConnTimeout:       s.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// NewClient builds the process-lifetime outbound client. Redirects from the
// upstream are relayed to the caller, never followed. The per-request
// timeout is applied by the forwarder through the request context, so the
// client itself carries none. Callers own the client and should call
// CloseIdleConnections at shutdown.
func NewClient(s config.UpstreamSettings) *http.Client {
	return &http.Client{
		Transport: NewTransport(s),
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
