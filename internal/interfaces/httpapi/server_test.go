package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	jsoniter "github.com/json-iterator/go"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/kickoff-dashboard/external/footballapi"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/user"
	"github.com/riskibarqy/kickoff-dashboard/internal/interfaces/edge"
	usecasemock "github.com/riskibarqy/kickoff-dashboard/internal/mocks/usecase"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
	"github.com/riskibarqy/kickoff-dashboard/internal/usecase"
	"github.com/stretchr/testify/mock"
)

type stubSessions struct {
	session user.Session
}

func (s stubSessions) Refresh(context.Context, *http.Request) (user.Session, error) {
	return s.session, nil
}

func signedIn() stubSessions {
	return stubSessions{session: user.Session{
		Principal:   &user.Principal{UserID: "user-1"},
		AccessToken: "token-1",
	}}
}

type upstream struct {
	currentSeasonCalls atomic.Int32
	fixturesCalls      atomic.Int32
	lastAuthorization  atomic.Value
}

func (u *upstream) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u.lastAuthorization.Store(r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/seasons/current":
			u.currentSeasonCalls.Add(1)
			writeUpstream(t, w, http.StatusOK, map[string]any{"season": "2324", "gameweek": 5})
		case "/api/v1/fixtures":
			u.fixturesCalls.Add(1)
			if r.URL.Query().Get("season") == "1516" {
				writeUpstream(t, w, http.StatusUnprocessableEntity, map[string]any{
					"detail": []map[string]any{{"loc": []any{"query", "season"}, "msg": "no data", "type": "value_error"}},
				})
				return
			}
			writeUpstream(t, w, http.StatusOK, map[string]any{
				"total": 2, "page": 0, "page_size": 20, "total_pages": 1,
				"items": []map[string]any{
					{
						"fixture_id": 11, "date": "2023-09-30T14:00:00Z", "gameweek": 5, "season": "2324",
						"home_team": map[string]any{"id": 1, "tricode": "ars", "name": "Arsenal"},
						"away_team": map[string]any{"id": 2, "tricode": "che", "name": "Chelsea"},
						"result":    map[string]any{"home_score": 2, "away_score": 1},
					},
					{
						"fixture_id": 12, "date": nil, "gameweek": 5, "season": "2324",
						"home_team": map[string]any{"id": 3, "tricode": "liv", "name": "Liverpool"},
						"away_team": map[string]any{"id": 4, "tricode": "mci", "name": "Manchester City"},
					},
				},
			})
		case "/api/v1/teams":
			writeUpstream(t, w, http.StatusOK, []map[string]any{
				{"id": 2, "tricode": "che", "name": "Chelsea"},
				{"id": 1, "tricode": "ars", "name": "Arsenal"},
			})
		case "/api/v1/teams/404":
			writeUpstream(t, w, http.StatusNotFound, map[string]any{"detail": "team not found"})
		default:
			writeUpstream(t, w, http.StatusNotFound, map[string]any{"detail": "not found"})
		}
	}
}

func writeUpstream(t *testing.T, w http.ResponseWriter, status int, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsoniter.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode upstream payload: %v", err)
	}
}

type testServer struct {
	handler  http.Handler
	upstream *upstream
}

func newTestServer(t *testing.T, sessions edge.SessionRefresher, cfg RouterConfig, probes ...usecase.Probe) *testServer {
	t.Helper()

	up := &upstream{}
	server := httptest.NewServer(up.handler(t))
	t.Cleanup(server.Close)

	logger := logging.NewNop()
	api := footballapi.NewClient(footballapi.ClientConfig{
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		Timeout:    2 * time.Second,
		Logger:     logger,
	})

	pool, err := ants.NewPool(2)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Release)

	dashboard := usecase.NewDashboardService(usecase.DashboardConfig{
		AssetBucketURL:   "https://assets.example.com",
		IdentityProvider: "anubis",
	}, logger)
	readiness := usecase.NewReadinessService(pool, time.Second, logger, append([]usecase.Probe{api}, probes...)...)
	handler := NewHandler(dashboard, readiness, api, "https://dashboard.example.com", logger)
	edgeRouter := edge.NewRouter(edge.Config{WebHost: "example.com", DashboardHost: "dashboard.example.com"}, sessions, logger)

	return &testServer{
		handler:  NewRouter(handler, edgeRouter, logger, cfg),
		upstream: up,
	}
}

func (s *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %s", rec.Body.String())
	}
	return data
}

func TestRouter_DashboardHomeLoadsCurrentSeasonOnce(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, signedIn(), RouterConfig{})
	rec := srv.get(t, "http://dashboard.example.com/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(requestIDHeader); got == "" {
		t.Fatalf("expected request id header")
	}

	data := decodeData(t, rec)
	if got, _ := data["gameweek"].(float64); got != 5 {
		t.Fatalf("expected gameweek 5, got %v", data["gameweek"])
	}
	if got, _ := data["teams"].(float64); got != 2 {
		t.Fatalf("expected 2 teams, got %v", data["teams"])
	}
	if got := srv.upstream.currentSeasonCalls.Load(); got != 1 {
		t.Fatalf("expected one current season call, got %d", got)
	}
	if got, _ := srv.upstream.lastAuthorization.Load().(string); got != "Bearer token-1" {
		t.Fatalf("expected session token forwarded upstream, got %q", got)
	}
}

func TestRouter_DashboardFixturesGroupsByDate(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, signedIn(), RouterConfig{})
	rec := srv.get(t, "http://dashboard.example.com/fixtures?gameweek=5&season=2324")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	groups, _ := data["groups"].([]any)
	if len(groups) != 2 {
		t.Fatalf("expected 2 date groups, got %d", len(groups))
	}
	last, _ := groups[1].(map[string]any)
	if last["date"] != "Unknown Date" {
		t.Fatalf("expected undated fixtures last, got %v", last["date"])
	}
	teams, _ := data["teams"].([]any)
	first, _ := teams[0].(map[string]any)
	if first["name"] != "Arsenal" {
		t.Fatalf("expected teams sorted by name, got %v", first["name"])
	}
	if got := srv.upstream.currentSeasonCalls.Load(); got != 0 {
		t.Fatalf("explicit filter must not load the current season, got %d calls", got)
	}
}

func TestRouter_DashboardResultsAcceptsShortParams(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, signedIn(), RouterConfig{})
	rec := srv.get(t, "http://dashboard.example.com/results?gw=5&s=2324")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if got, _ := data["completed"].(float64); got != 1 {
		t.Fatalf("expected 1 completed fixture, got %v", data["completed"])
	}
	fixtures, _ := data["fixtures"].([]any)
	pending, _ := fixtures[1].(map[string]any)
	if pending["score"] != "v" {
		t.Fatalf("expected placeholder score, got %v", pending["score"])
	}
}

func TestRouter_DashboardRejectsInvalidQuery(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, signedIn(), RouterConfig{})
	for _, target := range []string{
		"http://dashboard.example.com/fixtures?gameweek=39",
		"http://dashboard.example.com/fixtures?gameweek=abc",
		"http://dashboard.example.com/results?s=9999",
		"http://dashboard.example.com/teams/-1",
	} {
		rec := srv.get(t, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d body=%s", target, rec.Code, rec.Body.String())
		}
	}
}

func TestRouter_UpstreamValidationRendersNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, signedIn(), RouterConfig{})
	rec := srv.get(t, "http://dashboard.example.com/results?gw=1&s=1516")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouter_UnknownTeamRendersNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, signedIn(), RouterConfig{})
	rec := srv.get(t, "http://dashboard.example.com/teams/404?season=2324")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouter_UnauthenticatedDashboardRedirects(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, stubSessions{}, RouterConfig{})
	rec := srv.get(t, "http://dashboard.example.com/teams/42")
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/sign-in" {
		t.Fatalf("expected 307 to /sign-in, got %d %s", rec.Code, rec.Header().Get("Location"))
	}

	rec = srv.get(t, "http://dashboard.example.com/sign-in?redirect=//evil.example.com")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected sign-in page, got %d", rec.Code)
	}
	data := decodeData(t, rec)
	if data["redirectTo"] != "/" || data["provider"] != "anubis" {
		t.Fatalf("unexpected sign-in page: %v", data)
	}
}

func TestRouter_UnknownHostCannotReadDashboardPages(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, stubSessions{}, RouterConfig{})
	for _, target := range []string{
		"http://10.0.0.7/dashboard/fixtures?season=2324&gameweek=5",
		"http://10.0.0.7/dashboard/teams",
		"http://10.0.0.7/dashboard/api/v1/teams",
	} {
		rec := srv.get(t, target)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d body=%s", target, rec.Code, rec.Body.String())
		}
	}
	if got := srv.upstream.fixturesCalls.Load(); got != 0 {
		t.Fatalf("expected no upstream fixtures call, got %d", got)
	}
}

func TestRouter_APIProxyRelaysStatusAndBody(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, stubSessions{}, RouterConfig{})
	rec := srv.get(t, "http://dashboard.example.com/api/v1/fixtures?season=1516")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected relayed 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"msg":"no data"`) {
		t.Fatalf("expected upstream body, got %s", rec.Body.String())
	}

	rec = srv.get(t, "http://dashboard.example.com/api/v1/teams?season=2324")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Chelsea") {
		t.Fatalf("expected relayed teams, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_WebsitePages(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, stubSessions{}, RouterConfig{})
	rec := srv.get(t, "http://example.com/pricing")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decodeData(t, rec)
	if data["title"] != "Pricing" || data["dashboardUrl"] != "https://dashboard.example.com" {
		t.Fatalf("unexpected website page: %v", data)
	}

	rec = srv.get(t, "http://example.com/")
	if rec.Code != http.StatusOK || decodeData(t, rec)["page"] != "home" {
		t.Fatalf("expected home page, got %d", rec.Code)
	}

	rec = srv.get(t, "http://example.com/careers")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouter_BasicAuthGateSkipsSystemRoutes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, signedIn(), RouterConfig{BasicAuthUsername: "admin", BasicAuthPassword: "secret"})

	rec := srv.get(t, "http://example.com/pricing")
	if rec.Code != http.StatusUnauthorized || rec.Header().Get("WWW-Authenticate") != basicAuthRealm {
		t.Fatalf("expected basic auth challenge, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/pricing", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with credentials, got %d", rec.Code)
	}

	rec = srv.get(t, "http://example.com/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthz to bypass the gate, got %d", rec.Code)
	}
}

func TestRouter_ReadyzReportsFailingProbe(t *testing.T) {
	t.Parallel()

	identity := usecasemock.NewProbe(t)
	identity.On("Name").Return("identity_provider")
	identity.On("Ping", mock.Anything).Return(errors.New("connection refused"))

	srv := newTestServer(t, stubSessions{}, RouterConfig{}, identity)
	rec := srv.get(t, "http://example.com/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if data["status"] != "not_ready" {
		t.Fatalf("unexpected readiness status: %v", data["status"])
	}
}

func TestRecoverPanic_WritesInternalError(t *testing.T) {
	t.Parallel()

	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
