package proxy

import (
	"sort"
	"strings"

	"github.com/fernwall/tenant-gateway/internal/core/domain"
)

// RouteTable resolves inbound request paths to configured proxy routes.
// Routes are ordered by decreasing endpoint length at construction so the
// longest (most specific) prefix always wins, independent of configuration
// order.
type RouteTable struct {
	routes []domain.ProxyRoute
}

func NewRouteTable(routes []domain.ProxyRoute) *RouteTable {
	sorted := make([]domain.ProxyRoute, len(routes))
	copy(sorted, routes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Endpoint) > len(sorted[j].Endpoint)
	})
	return &RouteTable{routes: sorted}
}

// Match returns the route whose endpoint prefix matches path. Matching is
// boundary-aware: after the prefix the path must end or continue with "/",
// so /api/v1/graphical does not match an endpoint of /api/v1/graph.
func (t *RouteTable) Match(path string) (*domain.ProxyRoute, bool) {
	for i := range t.routes {
		if matchesPrefix(path, t.routes[i].Endpoint) {
			return &t.routes[i], true
		}
	}
	return nil, false
}

func matchesPrefix(path, endpoint string) bool {
	if !strings.HasPrefix(path, endpoint) {
		return false
	}
	if len(path) == len(endpoint) || strings.HasSuffix(endpoint, "/") {
		return true
	}
	return path[len(endpoint)] == '/'
}
