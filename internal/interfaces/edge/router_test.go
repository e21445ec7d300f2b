package edge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/riskibarqy/kickoff-dashboard/internal/domain/user"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
)

type stubSessions struct {
	session user.Session
	err     error
}

func (s stubSessions) Refresh(context.Context, *http.Request) (user.Session, error) {
	return s.session, s.err
}

var refreshedCookie = &http.Cookie{Name: "kickoff-access-token", Value: "fresh", Path: "/", MaxAge: 3600}

func authenticated() stubSessions {
	return stubSessions{session: user.Session{
		Principal:   &user.Principal{UserID: "user-1"},
		AccessToken: "fresh",
		Cookies:     []*http.Cookie{refreshedCookie},
	}}
}

func anonymous() stubSessions {
	return stubSessions{session: user.Session{
		Cookies: []*http.Cookie{{Name: "kickoff-refresh-token", Value: "", Path: "/", MaxAge: -1}},
	}}
}

type captured struct {
	called bool
	path   string
	query  string
	cookie string
	req    *http.Request
}

func (c *captured) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.path = r.URL.Path
		c.query = r.URL.RawQuery
		c.cookie = r.Header.Get("Cookie")
		c.req = r
		w.WriteHeader(http.StatusOK)
	})
}

func serve(t *testing.T, cfg Config, sessions SessionRefresher, req *http.Request) (*httptest.ResponseRecorder, *captured) {
	t.Helper()
	next := &captured{}
	rec := httptest.NewRecorder()
	NewRouter(cfg, sessions, logging.NewNop()).Handler(next.handler(), nil).ServeHTTP(rec, req)
	return rec, next
}

func productionConfig() Config {
	return Config{WebHost: "example.com", DashboardHost: "dashboard.example.com", OriginOverride: true}
}

func hasSetCookie(rec *httptest.ResponseRecorder, name string) bool {
	for _, v := range rec.Header().Values("Set-Cookie") {
		if strings.HasPrefix(v, name+"=") {
			return true
		}
	}
	return false
}

func TestRouter_DashboardHostRewritesUnderDashboard(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/x":        "/dashboard/x",
		"/":         "/dashboard",
		"/teams/42": "/dashboard/teams/42",
	}
	for path, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "http://dashboard.example.com"+path, nil)
		rec, next := serve(t, productionConfig(), authenticated(), req)
		if !next.called || next.path != want {
			t.Fatalf("path %s: expected rewrite to %s, got called=%v path=%s", path, want, next.called, next.path)
		}
		if !hasSetCookie(rec, "kickoff-access-token") {
			t.Fatalf("path %s: expected refreshed cookie on rewrite", path)
		}
	}
}

func TestRouter_RewriteKeepsQueryAndRefreshedCookies(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://dashboard.example.com/fixtures?gw=5", nil)
	req.AddCookie(&http.Cookie{Name: "kickoff-access-token", Value: "stale"})
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})

	_, next := serve(t, productionConfig(), authenticated(), req)
	if next.path != "/dashboard/fixtures" || next.query != "gw=5" {
		t.Fatalf("expected /dashboard/fixtures?gw=5, got %s?%s", next.path, next.query)
	}
	if next.cookie != "theme=dark; kickoff-access-token=fresh" {
		t.Fatalf("unexpected forwarded cookie header: %q", next.cookie)
	}
	session, ok := SessionFromContext(next.req.Context())
	if !ok || !session.Authenticated() {
		t.Fatalf("expected authenticated session in context")
	}
	decision, ok := DecisionFromContext(next.req.Context())
	if !ok || decision.Kind != KindDashboard || decision.Action != ActionRewrite {
		t.Fatalf("unexpected decision in context: %+v", decision)
	}
}

func TestRouter_UnauthenticatedDashboardRedirectsToSignIn(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://dashboard.example.com/teams/42", nil)
	rec, next := serve(t, productionConfig(), anonymous(), req)
	if next.called {
		t.Fatalf("expected redirect without calling next")
	}
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/sign-in" {
		t.Fatalf("expected 307 to /sign-in, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if !hasSetCookie(rec, "kickoff-refresh-token") {
		t.Fatalf("expected refreshed cookies on redirect")
	}
}

func TestRouter_AuthenticatedSignInRedirectsToRoot(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://dashboard.example.com/sign-in", nil)
	rec, _ := serve(t, productionConfig(), authenticated(), req)
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/" {
		t.Fatalf("expected 307 to /, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if !hasSetCookie(rec, "kickoff-access-token") {
		t.Fatalf("expected refreshed cookie on redirect")
	}
}

func TestRouter_UnauthenticatedSignInIsServed(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://dashboard.example.com/sign-in", nil)
	_, next := serve(t, productionConfig(), anonymous(), req)
	if next.path != "/dashboard/sign-in" {
		t.Fatalf("expected sign-in page rewrite, got %s", next.path)
	}
}

func TestRouter_DashboardAPIIsNotRedirected(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://dashboard.example.com/api/v1/fixtures?season=2324", nil)
	_, next := serve(t, productionConfig(), anonymous(), req)
	if next.path != "/dashboard/api/v1/fixtures" || next.query != "season=2324" {
		t.Fatalf("expected api rewrite, got %s?%s", next.path, next.query)
	}
}

func TestRouter_WebHostRewritesUnderWebsite(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://example.com/pricing", nil)
	_, next := serve(t, productionConfig(), anonymous(), req)
	if next.path != "/website/pricing" {
		t.Fatalf("expected /website/pricing, got %s", next.path)
	}

	req = httptest.NewRequest(http.MethodGet, "http://Example.com:8080/", nil)
	_, next = serve(t, productionConfig(), anonymous(), req)
	if next.path != "/website" {
		t.Fatalf("expected /website, got %s", next.path)
	}
}

func TestRouter_UnknownHostPassesThrough(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://other.example.net/anything", nil)
	rec, next := serve(t, productionConfig(), authenticated(), req)
	if next.path != "/anything" {
		t.Fatalf("expected pass through, got %s", next.path)
	}
	if !hasSetCookie(rec, "kickoff-access-token") {
		t.Fatalf("expected cookies on pass through")
	}
}

func TestRouter_UnknownHostCannotReachPageMounts(t *testing.T) {
	t.Parallel()

	for _, target := range []string{
		"http://10.0.0.7/dashboard/fixtures?season=2324&gameweek=5",
		"http://10.0.0.7/dashboard",
		"http://10.0.0.7/dashboard/teams/42",
		"http://10.0.0.7/website/pricing",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec, next := serve(t, productionConfig(), anonymous(), req)
		if next.called {
			t.Fatalf("%s: expected page handlers to be skipped, got path %s", target, next.path)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", target, rec.Code)
		}
		if !hasSetCookie(rec, "kickoff-refresh-token") {
			t.Fatalf("%s: expected cookies on not found", target)
		}
	}
}

func TestRouter_NotFoundHandlerIsUsed(t *testing.T) {
	t.Parallel()

	notFound := &captured{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://10.0.0.7/dashboard/teams", nil)
	NewRouter(productionConfig(), authenticated(), logging.NewNop()).
		Handler(http.NotFoundHandler(), notFound.handler()).
		ServeHTTP(rec, req)
	if !notFound.called || notFound.path != "/dashboard/teams" {
		t.Fatalf("expected custom not found handler, got %+v", notFound)
	}
}

func TestDecide_PageMountsOnUnknownHost(t *testing.T) {
	t.Parallel()

	cfg := productionConfig()
	if d := cfg.Decide("10.0.0.7:8080", "", "/dashboard/fixtures", true); d.Action != ActionNotFound {
		t.Fatalf("expected not found for stray dashboard path, got %+v", d)
	}
	if d := cfg.Decide("10.0.0.7", "", "/dashboards", false); d.Action != ActionNext {
		t.Fatalf("expected /dashboards to pass through, got %+v", d)
	}

	preview := Config{WebHost: "example.com", Preview: true}
	if d := preview.Decide("preview.example.dev", "", "/website/about", false); d.Action != ActionNext {
		t.Fatalf("expected preview website path to pass through, got %+v", d)
	}
}

func TestRouter_OriginOverride(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://example.com/fixtures", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	_, next := serve(t, productionConfig(), authenticated(), req)
	if next.path != "/dashboard/fixtures" {
		t.Fatalf("expected origin to select dashboard, got %s", next.path)
	}

	cfg := productionConfig()
	cfg.OriginOverride = false
	req = httptest.NewRequest(http.MethodGet, "http://example.com/fixtures", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	_, next = serve(t, cfg, authenticated(), req)
	if next.path != "/website/fixtures" {
		t.Fatalf("expected host to win without override, got %s", next.path)
	}
}

func TestRouter_PreviewMode(t *testing.T) {
	t.Parallel()

	cfg := Config{WebHost: "example.com", Preview: true}

	req := httptest.NewRequest(http.MethodGet, "http://preview-123.example.dev/dashboard/fixtures", nil)
	rec, next := serve(t, cfg, anonymous(), req)
	if next.called || rec.Header().Get("Location") != "/dashboard/sign-in" {
		t.Fatalf("expected preview sign-in redirect, got %d %s", rec.Code, rec.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodGet, "http://preview-123.example.dev/dashboard/sign-in", nil)
	rec, _ = serve(t, cfg, authenticated(), req)
	if rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected preview root redirect, got %s", rec.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodGet, "http://preview-123.example.dev/dashboard/teams", nil)
	_, next = serve(t, cfg, authenticated(), req)
	if next.path != "/dashboard/teams" {
		t.Fatalf("expected preview pass through, got %s", next.path)
	}
}

func TestRouter_RefreshErrorTreatedAsUnauthenticated(t *testing.T) {
	t.Parallel()

	sessions := stubSessions{
		session: user.Session{Principal: &user.Principal{UserID: "ghost"}, Cookies: []*http.Cookie{refreshedCookie}},
		err:     errors.New("identity provider down"),
	}
	req := httptest.NewRequest(http.MethodGet, "http://dashboard.example.com/fixtures", nil)
	rec, _ := serve(t, productionConfig(), sessions, req)
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/sign-in" {
		t.Fatalf("expected sign-in redirect, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if !hasSetCookie(rec, "kickoff-access-token") {
		t.Fatalf("expected cookies kept on refresh error")
	}
}

func TestRouter_DecisionSlotFilled(t *testing.T) {
	t.Parallel()

	ctx, slot := WithDecisionSlot(context.Background())
	req := httptest.NewRequest(http.MethodGet, "http://example.com/about", nil).WithContext(ctx)
	serve(t, productionConfig(), anonymous(), req)
	if slot.Kind != KindWebsite || slot.Path != "/website/about" {
		t.Fatalf("unexpected recorded decision: %+v", *slot)
	}
}

func TestDecide_DashboardPrefixMatchesWholeSegment(t *testing.T) {
	t.Parallel()

	cfg := Config{WebHost: "example.com", Preview: true}
	if d := cfg.Decide("preview.example.dev", "", "/dashboards", false); d.Kind != KindPassthrough {
		t.Fatalf("expected /dashboards to pass through, got %+v", d)
	}
}
