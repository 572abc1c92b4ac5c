package proxy

import (
	"net/http"
	"strings"

	"github.com/fernwall/tenant-gateway/internal/core/domain"
)

// methodActions maps an HTTP method to the set of actions that satisfy it.
// Unknown methods fall back to requiring "write".
var methodActions = map[string][]string{
	http.MethodGet:     {"read"},
	http.MethodHead:    {"read"},
	http.MethodOptions: {"read"},
	http.MethodPost:    {"create", "write", "execute"},
	http.MethodPut:     {"update", "write"},
	http.MethodPatch:   {"update", "write"},
	http.MethodDelete:  {"delete", "write"},
}

var fallbackActions = []string{"write"}

// RequiredActions returns the actions any of which authorize the method.
func RequiredActions(method string) []string {
	if actions, ok := methodActions[strings.ToUpper(method)]; ok {
		return actions
	}
	return fallbackActions
}

// Engine decides whether a role set may perform an action on a resource.
// It is a pure function of its inputs plus the immutable role table; the
// same inputs always yield the same decision.
type Engine struct {
	roles map[string][]domain.Permission
}

func NewEngine(roles map[string][]domain.Permission) *Engine {
	return &Engine{roles: roles}
}

// Allow reports whether any of the given roles holds a permission whose
// resource matches and whose action set intersects the required actions.
// An empty role set always denies.
func (e *Engine) Allow(roles []string, resource string, required []string) bool {
	for _, role := range roles {
		for _, perm := range e.roles[role] {
			if resourceMatches(perm.Resource, resource) && actionMatches(perm.Actions, required) {
				return true
			}
		}
	}
	return false
}

// resourceMatches compares resource names after normalization, tolerating a
// trailing "s" on either side so a grant on "graphs" covers "graph" and vice
// versa. A permission resource of exactly "*" matches anything.
func resourceMatches(granted, requested string) bool {
	if granted == "*" {
		return true
	}
	g, r := normalizeResource(granted), normalizeResource(requested)
	if g == r {
		return true
	}
	return g+"s" == r || r+"s" == g
}

func actionMatches(granted, required []string) bool {
	for _, a := range granted {
		if a == "*" {
			return true
		}
		for _, want := range required {
			if a == want {
				return true
			}
		}
	}
	return false
}

// normalizeResource lower-cases the name, drops every character that is not
// a letter, digit, "-" or "_", and trims leading and trailing "-"/"_".
func normalizeResource(name string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		}
	}
	return strings.Trim(b.String(), "-_")
}
