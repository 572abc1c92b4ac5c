package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fernwall/tenant-gateway/internal/core/domain"
	"github.com/fernwall/tenant-gateway/internal/pkg/config"
	"github.com/fernwall/tenant-gateway/internal/proxy"
)

const gatewaySecret = "integration-secret"

// One router per test binary: the prometheus middleware registers its
// collectors with the default registry, so NewRouter must not run twice.
var (
	setupOnce    sync.Once
	gateway      *echo.Echo
	upstreamHits atomic.Int64
	upstreamSeen sync.Map // request id -> tenant header
	upstreamURL  string
)

type upstreamEcho struct {
	Path   string `json:"path"`
	Method string `json:"method"`
	Tenant string `json:"tenant"`
	Query  string `json:"query"`
}

func setupGateway(t *testing.T) *echo.Echo {
	t.Helper()
	setupOnce.Do(func() {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			upstreamHits.Add(1)
			if id := r.Header.Get("X-Probe-ID"); id != "" {
				upstreamSeen.Store(id, r.Header.Get(proxy.TenantHeader))
			}
			_ = json.NewEncoder(w).Encode(upstreamEcho{
				Path:   r.URL.Path,
				Method: r.Method,
				Tenant: r.Header.Get(proxy.TenantHeader),
				Query:  r.URL.RawQuery,
			})
		}))
		upstreamURL = upstream.URL

		snap := &domain.Snapshot{
			Tenants: []domain.Tenant{{ID: "t1"}, {ID: "t2"}},
			Proxy: []domain.ProxyRoute{
				{Endpoint: "/api/v1/graph", Target: upstreamURL + "/"},
				{Endpoint: "/api/v1/down", Target: "http://127.0.0.1:1"},
			},
			Users: []domain.User{
				{Name: "u1", Password: "pw1", TenantID: "t1", Roles: []string{"user"}},
				{Name: "u2", Password: "pw2", TenantID: "t2", Roles: []string{"user"}},
				{Name: "graphonly", Password: "pw3", TenantID: "t1", Roles: []string{"graphonly"}},
			},
			Roles: map[string][]domain.Permission{
				"user": {
					{Resource: "graph", Actions: []string{"read"}},
					{Resource: "users", Actions: []string{"read"}},
					{Resource: "down", Actions: []string{"read"}},
				},
				"graphonly": {
					{Resource: "graph", Actions: []string{"read"}},
				},
			},
		}
		snap.Index()

		settings := &config.Settings{
			Port:               "0",
			Env:                "test",
			LogLevel:           "error",
			JWTSecret:          gatewaySecret,
			TokenExpireMinutes: 30,
			Upstream: config.UpstreamSettings{
				Timeout:             5 * time.Second,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		}

		gateway = NewRouter(settings, snap, proxy.NewClient(settings.Upstream), zerolog.Nop())
	})
	return gateway
}

func tokenFor(t *testing.T, sub string, roles []string, tenant string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       sub,
		"roles":     roles,
		"tenant_id": tenant,
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(gatewaySecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doRequest(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error envelope %q: %v", rec.Body.String(), err)
	}
	return resp["detail"]
}

func TestGateway_UnmatchedPathsPassThrough(t *testing.T) {
	e := setupGateway(t)
	before := upstreamHits.Load()

	rec := doRequest(e, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	rec = doRequest(e, httptest.NewRequest(http.MethodGet, "/nothing/here", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", rec.Code)
	}

	if upstreamHits.Load() != before {
		t.Fatalf("unmatched paths must not reach the upstream")
	}
}

func TestGateway_BoundaryAwareMatching(t *testing.T) {
	e := setupGateway(t)
	before := upstreamHits.Load()

	// Not under /api/v1/graph, so it falls through to the router: no auth
	// demanded, no upstream call, plain 404.
	rec := doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v1/graphical", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if upstreamHits.Load() != before {
		t.Fatalf("boundary mismatch must not reach the upstream")
	}
}

func TestGateway_MissingHeader(t *testing.T) {
	e := setupGateway(t)
	before := upstreamHits.Load()

	rec := doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v1/graph/items", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if detail := detailOf(t, rec); detail != "Missing or invalid Authorization header" {
		t.Fatalf("unexpected detail: %q", detail)
	}
	if upstreamHits.Load() != before {
		t.Fatalf("rejected request must not reach the upstream")
	}
}

func TestGateway_InvalidToken(t *testing.T) {
	e := setupGateway(t)
	before := upstreamHits.Load()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/graph/items", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := doRequest(e, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if detail := detailOf(t, rec); detail != "Invalid or expired token" {
		t.Fatalf("unexpected detail: %q", detail)
	}
	if upstreamHits.Load() != before {
		t.Fatalf("rejected request must not reach the upstream")
	}
}

func TestGateway_BindingMismatch(t *testing.T) {
	e := setupGateway(t)
	before := upstreamHits.Load()

	// Signature is valid, but the asserted tenant and roles diverge from
	// the configuration for u1. Both cases must yield the same message.
	cases := []string{
		tokenFor(t, "u1", []string{"user"}, "t2"),
		tokenFor(t, "u1", []string{"user", "admin"}, "t1"),
	}
	for _, token := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/graph/items", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := doRequest(e, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if detail := detailOf(t, rec); detail != "Could not validate credentials" {
			t.Fatalf("unexpected detail: %q", detail)
		}
	}
	if upstreamHits.Load() != before {
		t.Fatalf("rejected requests must not reach the upstream")
	}
}

// Scenario: GET on a granted resource forwards once with the bound tenant.
func TestGateway_AuthorizedForward(t *testing.T) {
	e := setupGateway(t)
	before := upstreamHits.Load()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/graph/items", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "u1", []string{"user"}, "t1"))
	rec := doRequest(e, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if upstreamHits.Load() != before+1 {
		t.Fatalf("expected exactly one upstream call")
	}

	var echoed upstreamEcho
	if err := json.Unmarshal(rec.Body.Bytes(), &echoed); err != nil {
		t.Fatalf("invalid relayed body: %v", err)
	}
	if echoed.Path != "/api/v1/graph/items" {
		t.Fatalf("endpoint prefix must not be stripped, upstream saw %q", echoed.Path)
	}
	if echoed.Tenant != "t1" {
		t.Fatalf("expected tenant t1, upstream saw %q", echoed.Tenant)
	}
}

// Scenario: POST with a read-only role is denied before any upstream call.
func TestGateway_MethodDenied(t *testing.T) {
	e := setupGateway(t)
	before := upstreamHits.Load()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/graph/items", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "u1", []string{"user"}, "t1"))
	rec := doRequest(e, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if detail := detailOf(t, rec); detail != "Not enough permissions" {
		t.Fatalf("unexpected detail: %q", detail)
	}
	if upstreamHits.Load() != before {
		t.Fatalf("denied request must not reach the upstream")
	}
}

// Scenario: valid credentials, unreachable upstream target.
func TestGateway_UpstreamDown(t *testing.T) {
	e := setupGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/down/status", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "u1", []string{"user"}, "t1"))
	rec := doRequest(e, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if detail := detailOf(t, rec); !strings.HasPrefix(detail, "Bad Gateway") {
		t.Fatalf("unexpected detail: %q", detail)
	}
}

// Scenario: concurrent requests for different tenants never leak each
// other's tenant header.
func TestGateway_ConcurrentTenantIsolation(t *testing.T) {
	e := setupGateway(t)

	tokens := map[string]string{
		"t1": tokenFor(t, "u1", []string{"user"}, "t1"),
		"t2": tokenFor(t, "u2", []string{"user"}, "t2"),
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		for tenant, token := range tokens {
			wg.Add(1)
			go func(i int, tenant, token string) {
				defer wg.Done()
				req := httptest.NewRequest(http.MethodGet, "/api/v1/graph/items", nil)
				req.Header.Set("Authorization", "Bearer "+token)
				req.Header.Set("X-Probe-ID", fmt.Sprintf("%s-%d", tenant, i))
				rec := doRequest(e, req)
				if rec.Code != http.StatusOK {
					t.Errorf("tenant %s: expected 200, got %d", tenant, rec.Code)
				}
			}(i, tenant, token)
		}
	}
	wg.Wait()

	upstreamSeen.Range(func(key, value any) bool {
		id := key.(string)
		want := strings.SplitN(id, "-", 2)[0]
		if value.(string) != want {
			t.Errorf("probe %s saw tenant %q", id, value)
		}
		return true
	})
}

func TestGateway_LoginThenMe(t *testing.T) {
	e := setupGateway(t)

	body := strings.NewReader(`{"username":"u1","password":"pw1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := doRequest(e, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	var login map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("invalid login payload: %v", err)
	}
	if login["token_type"] != "bearer" || login["access_token"] == "" {
		t.Fatalf("unexpected login payload: %+v", login)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+login["access_token"])
	rec = doRequest(e, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("me failed: %d %s", rec.Code, rec.Body.String())
	}
	var me map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("invalid me payload: %v", err)
	}
	if me["username"] != "u1" || me["tenant_id"] != "t1" {
		t.Fatalf("unexpected me payload: %+v", me)
	}
}

func TestGateway_LoginBadPassword(t *testing.T) {
	e := setupGateway(t)

	body := strings.NewReader(`{"username":"u1","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := doRequest(e, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if detail := detailOf(t, rec); detail != "Incorrect username or password" {
		t.Fatalf("unexpected detail: %q", detail)
	}
}

func TestGateway_MeRequiresUsersRead(t *testing.T) {
	e := setupGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "graphonly", []string{"graphonly"}, "t1"))
	rec := doRequest(e, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestGateway_ReadinessReportsSnapshot(t *testing.T) {
	e := setupGateway(t)

	rec := doRequest(e, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid readiness payload: %v", err)
	}
	if resp["status"] != "ok" || resp["routes"].(float64) != 2 {
		t.Fatalf("unexpected readiness payload: %+v", resp)
	}
}
