package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fernwall/tenant-gateway/internal/api/metrics"
	"github.com/fernwall/tenant-gateway/internal/core/domain"
)

// TenantHeader carries the bound tenant to the upstream. The forwarder
// always overwrites it; a caller-supplied value never survives.
const TenantHeader = "X-Tenant-ID"

// hopByHopHeaders are transport-leg headers stripped from the relayed
// response; the server recomputes them for the outgoing leg.
var hopByHopHeaders = map[string]struct{}{
	"content-length":    {},
	"connection":        {},
	"transfer-encoding": {},
	"content-encoding":  {},
}

// Doer abstracts the pooled HTTP client so tests can substitute their own
// without changing forwarding behavior.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Forwarder relays authorized requests to their route's upstream target and
// copies the upstream response back verbatim.
type Forwarder struct {
	client  Doer
	timeout time.Duration
	log     zerolog.Logger
}

func NewForwarder(client Doer, timeout time.Duration, log zerolog.Logger) *Forwarder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Forwarder{client: client, timeout: timeout, log: log}
}

// Forward dispatches the request to route's target and writes the relayed
// response to w. The upstream URL is the target base (trailing slash
// stripped) plus the full original path; the endpoint prefix is never
// removed. Query parameters and body pass through untouched.
//
// The outbound call inherits the inbound request context, so a caller
// disconnect cancels the in-flight upstream request.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, route *domain.ProxyRoute, tenantID string) error {
	target := strings.TrimRight(route.Target, "/") + r.URL.Path

	ctx, cancel := context.WithTimeout(r.Context(), f.timeout)
	defer cancel()

	out, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		return fmt.Errorf("build upstream request for %q: %w", target, err)
	}
	out.Header = r.Header.Clone()
	out.URL.RawQuery = r.URL.RawQuery
	out.ContentLength = r.ContentLength

	if route.ChangeOrigin {
		out.Host = out.URL.Host
	} else {
		out.Host = r.Host
	}
	out.Header.Set(TenantHeader, tenantID)

	start := time.Now()
	resp, err := f.client.Do(out)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(route.Endpoint).Inc()
		f.log.Warn().
			Err(err).
			Str("route", route.Endpoint).
			Str("target", target).
			Msg("upstream call failed")
		return fmt.Errorf("%s %s: %w", r.Method, target, domain.ErrUpstreamUnreachable)
	}
	defer resp.Body.Close()

	metrics.UpstreamDuration.WithLabelValues(route.Endpoint).Observe(time.Since(start).Seconds())
	metrics.ProxyRequestsTotal.WithLabelValues(route.Endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	header := w.Header()
	for name, values := range resp.Header {
		if _, hop := hopByHopHeaders[strings.ToLower(name)]; hop {
			continue
		}
		for _, v := range values {
			header.Add(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		// Headers are already committed; nothing to surface to the caller.
		f.log.Error().
			Err(err).
			Str("route", route.Endpoint).
			Msg("relaying upstream body failed")
	}
	return nil
}
