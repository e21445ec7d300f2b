package footballapi

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/fixture"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/forecast"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/pagination"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/season"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/team"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/resilience"
	"github.com/riskibarqy/kickoff-dashboard/internal/usecase"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 6 << 20

	pathCurrentSeason = "/api/v1/seasons/current"
	pathFixtures      = "/api/v1/fixtures"
	pathForecasts     = "/api/v1/fixtures/forecasts"
	pathTeams         = "/api/v1/teams"
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client holds the process-wide transport state for the football API. It does
// not cache or share responses; use Session per incoming request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	validate   *validator.Validate
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		logger:     logger,
		breaker:    newBreaker(cfg.CircuitBreaker, logger),
		validate:   newValidator(),
	}
}

// Credentials are forwarded from the incoming request to every upstream call.
type Credentials struct {
	Cookie       string
	ForwardedFor string
	AccessToken  string
}

// Session is a per-request view of the API carrying the caller's credentials.
type Session struct {
	client *Client
	creds  Credentials
}

var _ usecase.FootballAPI = (*Session)(nil)

func (c *Client) Session(creds Credentials) *Session {
	return &Session{client: c, creds: creds}
}

func (c *Client) Name() string {
	return "football_api"
}

// Ping fetches the current season without caller credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Session(Credentials{}).CurrentSeason(ctx)
	return err
}

func (s *Session) CurrentSeason(ctx context.Context) (season.Current, error) {
	var payload currentSeasonDTO
	if err := s.getJSON(ctx, pathCurrentSeason, nil, &payload); err != nil {
		return season.Current{}, fmt.Errorf("get current season: %w", err)
	}
	if err := validatePayload(s.client.validate, payload); err != nil {
		return season.Current{}, fmt.Errorf("get current season: %w", err)
	}
	return payload.toDomain(), nil
}

func (s *Session) Fixtures(ctx context.Context, query fixture.Query) (pagination.Page[fixture.Fixture], error) {
	var payload fixturePageDTO
	if err := s.getJSON(ctx, pathFixtures, fixtureParams(query), &payload); err != nil {
		return pagination.Page[fixture.Fixture]{}, fmt.Errorf("list fixtures: %w", err)
	}
	if err := validatePayload(s.client.validate, payload); err != nil {
		return pagination.Page[fixture.Fixture]{}, fmt.Errorf("list fixtures: %w", err)
	}
	page, err := payload.toDomain()
	if err != nil {
		return pagination.Page[fixture.Fixture]{}, fmt.Errorf("list fixtures: %w", err)
	}
	return page, nil
}

func (s *Session) Team(ctx context.Context, teamID int64) (team.Team, error) {
	var payload teamDTO
	if err := s.getJSON(ctx, pathTeams+"/"+strconv.FormatInt(teamID, 10), nil, &payload); err != nil {
		return team.Team{}, fmt.Errorf("get team id=%d: %w", teamID, err)
	}
	if err := validatePayload(s.client.validate, payload); err != nil {
		return team.Team{}, fmt.Errorf("get team id=%d: %w", teamID, err)
	}
	return payload.toDomain(), nil
}

func (s *Session) TeamsBySeason(ctx context.Context, selected season.Season) ([]team.Team, error) {
	var payload []teamDTO
	params := queryParams{}.add("season", selected.String())
	if err := s.getJSON(ctx, pathTeams, params, &payload); err != nil {
		return nil, fmt.Errorf("list teams season=%s: %w", selected, err)
	}
	if err := validateList(s.client.validate, payload); err != nil {
		return nil, fmt.Errorf("list teams season=%s: %w", selected, err)
	}

	out := make([]team.Team, 0, len(payload))
	for _, item := range payload {
		out = append(out, item.toDomain())
	}
	return out, nil
}

func (s *Session) FixtureForecasts(ctx context.Context, query forecast.Query) (pagination.Page[forecast.MatchForecast], error) {
	var payload forecastPageDTO
	if err := s.getJSON(ctx, pathForecasts, forecastParams(query), &payload); err != nil {
		return pagination.Page[forecast.MatchForecast]{}, fmt.Errorf("list fixture forecasts: %w", err)
	}
	if err := validatePayload(s.client.validate, payload); err != nil {
		return pagination.Page[forecast.MatchForecast]{}, fmt.Errorf("list fixture forecasts: %w", err)
	}
	return payload.toDomain(), nil
}

// ForwardResponse is an upstream reply relayed without interpretation.
type ForwardResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// Forward relays GET /api/<path>?<rawQuery> and returns the upstream status
// and body as-is. Only transport failures are reported as errors.
func (s *Session) Forward(ctx context.Context, path, rawQuery string) (ForwardResponse, error) {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" || strings.Contains(path, "..") {
		return ForwardResponse{}, fmt.Errorf("%w: invalid proxy path", usecase.ErrInvalidInput)
	}

	resp, err := s.do(ctx, "/api/"+path, nil, rawQuery)
	if err != nil {
		var statusErr *StatusError
		if stderrors.As(err, &statusErr) {
			return ForwardResponse{Status: statusErr.Status, ContentType: "application/json", Body: statusErr.Body}, nil
		}
		return ForwardResponse{}, fmt.Errorf("forward %s: %w", path, err)
	}
	return ForwardResponse{Status: resp.status, ContentType: resp.contentType, Body: resp.body}, nil
}

func (s *Session) getJSON(ctx context.Context, path string, params queryParams, target any) error {
	resp, err := s.do(ctx, path, params, "")
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(resp.body, target); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrInvalidPayload, err)
	}
	return nil
}

type rawResponse struct {
	status      int
	contentType string
	body        []byte
}

func (s *Session) do(ctx context.Context, path string, params queryParams, rawQuery string) (rawResponse, error) {
	c := s.client
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "football api circuit breaker rejected request", "path", path, "state", c.breaker.State())
		return rawResponse{}, fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err)
	}

	resp, err := s.execute(ctx, path, params, rawQuery)
	c.breaker.Record(err, isCircuitFailure)
	if err != nil {
		if ctx.Err() == nil && !stderrors.Is(err, ErrNotFound) && !stderrors.Is(err, ErrValidation) {
			c.logger.WarnContext(ctx, "football api request failed", "path", path, "error", err)
		}
		return rawResponse{}, err
	}
	return resp, nil
}

func (s *Session) execute(ctx context.Context, path string, params queryParams, rawQuery string) (rawResponse, error) {
	fullURL := buildURL(s.client.baseURL, path, params, rawQuery)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return rawResponse{}, fmt.Errorf("build request: %w", err)
	}
	s.applyCredentials(req)

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return rawResponse{}, ctx.Err()
		}
		return rawResponse{}, fmt.Errorf("%w: send request: %v", errFootballAPITransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if ctx.Err() != nil {
			return rawResponse{}, ctx.Err()
		}
		return rawResponse{}, fmt.Errorf("%w: read response body: %v", errFootballAPITransient, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Method: http.MethodGet, Path: path, Status: resp.StatusCode, Body: raw}
		if resp.StatusCode == http.StatusUnprocessableEntity {
			var detail HTTPValidationError
			if sonic.Unmarshal(raw, &detail) == nil {
				statusErr.Validation = &detail
			}
		}
		return rawResponse{}, statusErr
	}

	return rawResponse{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        raw,
	}, nil
}

func (s *Session) applyCredentials(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if s.creds.Cookie != "" {
		req.Header.Set("Cookie", s.creds.Cookie)
	}
	if s.creds.ForwardedFor != "" {
		req.Header.Set("X-Forwarded-For", s.creds.ForwardedFor)
	}
	if s.creds.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.creds.AccessToken)
	}
}

func newBreaker(cfg resilience.CircuitBreakerConfig, logger *logging.Logger) *resilience.CircuitBreaker {
	if cfg.Dependency == "" {
		cfg.Dependency = "football_api"
	}
	if cfg.OnStateChange == nil {
		cfg.OnStateChange = resilience.LogStateChanges(logger)
	}
	return resilience.NewCircuitBreakerFromConfig(cfg)
}
