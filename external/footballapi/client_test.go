package footballapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/fixture"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/forecast"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/pagination"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/resilience"
	"github.com/riskibarqy/kickoff-dashboard/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		BaseURL:        server.URL + "/",
		Timeout:        2 * time.Second,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsoniter.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode payload: %v", err)
	}
}

func TestSession_FixturesSendsCredentialsAndSkipsEmptyParams(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/fixtures" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.RawQuery; got != "season=2324&gameweek=5&sort_by=date&sort_desc=false&page=0&page_size=20" {
			t.Errorf("unexpected query: %s", got)
		}
		if got := r.Header.Get("Cookie"); got != "kickoff-access-token=abc" {
			t.Errorf("unexpected cookie header: %s", got)
		}
		if got := r.Header.Get("X-Forwarded-For"); got != "203.0.113.9" {
			t.Errorf("unexpected forwarded-for: %s", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("unexpected authorization: %s", got)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"total": 2, "page": 0, "page_size": 20, "total_pages": 1,
			"items": []map[string]any{
				{
					"fixture_id": 10, "date": "2023-08-19T14:00:00", "gameweek": 5, "season": "2324",
					"home_team": map[string]any{"id": 1, "tricode": "ars", "name": "Arsenal", "short_name": "Arsenal"},
					"away_team": map[string]any{"id": 2, "tricode": "CHE", "name": "Chelsea", "short_name": "Chelsea"},
					"result":    map[string]any{"home_score": 2, "away_score": 1},
				},
				{
					"fixture_id": 11, "date": nil, "gameweek": nil, "season": "2324",
					"home_team": map[string]any{"id": 3, "tricode": "EVE", "name": "Everton", "short_name": "Everton"},
					"away_team": map[string]any{"id": 1, "tricode": "ARS", "name": "Arsenal", "short_name": "Arsenal"},
					"result":    nil,
				},
			},
		})
	}, resilience.CircuitBreakerConfig{})

	session := client.Session(Credentials{Cookie: "kickoff-access-token=abc", ForwardedFor: "203.0.113.9", AccessToken: "abc"})
	page, err := session.Fixtures(context.Background(), fixture.Query{
		Season:   "2324",
		Gameweek: 5,
		Query:    pagination.Query{SortBy: "date", PageSize: 20},
	})
	if err != nil {
		t.Fatalf("fixtures: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	first := page.Items[0]
	if first.Date == nil || first.Date.Hour() != 14 || first.ScoreText() != "2 - 1" || first.HomeTeam.Tricode != "ARS" {
		t.Fatalf("unexpected first fixture: %+v", first)
	}
	second := page.Items[1]
	if second.Date != nil || second.Gameweek != nil || second.ScoreText() != "v" {
		t.Fatalf("unexpected second fixture: %+v", second)
	}
}

func TestSession_TeamNotFoundCarriesStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"detail": "Team not found"})
	}, resilience.CircuitBreakerConfig{})

	_, err := client.Session(Credentials{}).Team(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if status, ok := usecase.StatusOf(err); !ok || status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d (%v)", status, ok)
	}
}

func TestSession_ValidationErrorDecoded(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []any{"query", "season"}, "msg": "value is not a valid enumeration member", "type": "type_error.enum"}},
		})
	}, resilience.CircuitBreakerConfig{})

	_, err := client.Session(Credentials{}).TeamsBySeason(context.Background(), "2324")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Validation == nil || len(statusErr.Validation.Detail) != 1 {
		t.Fatalf("expected decoded validation detail, got %v", err)
	}
	if got := statusErr.Validation.String(); got != "query.season: value is not a valid enumeration member" {
		t.Fatalf("unexpected validation summary: %s", got)
	}
}

func TestSession_InvalidPayloadRejected(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"season": "2324", "gameweek": 40})
	}, resilience.CircuitBreakerConfig{})

	_, err := client.Session(Credentials{}).CurrentSeason(context.Background())
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestSession_ForecastsMapsBothSides(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("team"); got != "7" {
			t.Errorf("expected team filter, got %q", got)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"total": 1, "page": 0, "page_size": 10, "total_pages": 1,
			"items": []map[string]any{{
				"fixture_id": 4, "home_win": 0.61234, "away_win": 0.2,
				"home_clean_sheet": 0.3, "away_clean_sheet": 0.1,
				"home_goals_for": 1.8, "away_goals_for": 0.9,
				"home_attack": 1.2, "away_attack": 0.8, "home_defence": 1.1, "away_defence": 0.7,
			}},
		})
	}, resilience.CircuitBreakerConfig{})

	page, err := client.Session(Credentials{}).FixtureForecasts(context.Background(), forecast.Query{Season: "2324", TeamID: 7})
	if err != nil {
		t.Fatalf("forecasts: %v", err)
	}
	item := page.Items[0]
	if item.Home.Win != 0.612 || !item.Home.WasHome || item.Away.WasHome || item.Away.Attack != 0.8 {
		t.Fatalf("unexpected forecast: %+v", item)
	}
}

func TestSession_ServerErrorsOpenCircuit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Minute, HalfOpenMaxReq: 1})

	session := client.Session(Credentials{})
	for i := 0; i < 2; i++ {
		if _, err := session.CurrentSeason(context.Background()); err == nil {
			t.Fatalf("expected upstream failure")
		}
	}

	_, err := session.CurrentSeason(context.Background())
	if !errors.Is(err, usecase.ErrDependencyUnavailable) || !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrDependencyUnavailable once open, got %v", err)
	}
	if !strings.Contains(err.Error(), "football_api") {
		t.Fatalf("expected dependency name in error, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected no upstream call while open, got %d calls", got)
	}
}

func TestSession_NotFoundDoesNotOpenCircuit(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute, HalfOpenMaxReq: 1})

	session := client.Session(Credentials{})
	for i := 0; i < 3; i++ {
		if _, err := session.Team(context.Background(), 5); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on attempt %d, got %v", i, err)
		}
	}
}

func TestSession_ForwardRelaysStatusAndBody(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/fixtures" || r.URL.RawQuery != "gameweek=3&season=2324" {
			t.Errorf("unexpected forwarded url: %s", r.URL.String())
		}
		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]any{"detail": []any{}})
	}, resilience.CircuitBreakerConfig{})

	resp, err := client.Session(Credentials{}).Forward(context.Background(), "v1/fixtures", "gameweek=3&season=2324")
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if resp.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected upstream status, got %d", resp.Status)
	}
	if string(resp.Body) != "{\"detail\":[]}\n" {
		t.Fatalf("unexpected body: %q", resp.Body)
	}

	if _, err := client.Session(Credentials{}).Forward(context.Background(), "../admin", ""); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected traversal to be rejected, got %v", err)
	}
}

func TestBuildURL_SkipsEmptyValues(t *testing.T) {
	t.Parallel()

	params := queryParams{}.add("season", "").addInt("gameweek", 0).add("date", "2023-08-19").addInt64("team_id", 4)
	got := buildURL("https://api.example.com", "/api/v1/fixtures", params, "")
	if got != "https://api.example.com/api/v1/fixtures?date=2023-08-19&team_id=4" {
		t.Fatalf("unexpected url: %s", got)
	}
}
