package anubis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/user"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/resilience"
	"github.com/riskibarqy/kickoff-dashboard/internal/usecase"
)

const (
	defaultTimeout        = 5 * time.Second
	defaultCacheTTL       = 2 * time.Minute
	defaultCacheEntries   = 10000
	maxResponseSize       = 1 << 20
	adminKeyHeader        = "x-admin-key"
	defaultIntrospectPath = "/v1/auth/introspect"
	defaultRefreshPath    = "/v1/auth/refresh"
)

var errAnubisTransient = crerr.New("anubis transient failure")

type Config struct {
	HTTPClient     *http.Client
	BaseURL        string
	IntrospectPath string
	RefreshPath    string
	AdminKey       string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	// Cache defaults to an in-memory store with a two minute TTL.
	Cache   PrincipalCache
	Cookies CookieConfig
	Logger  *logging.Logger
}

type Client struct {
	httpClient    *http.Client
	baseURL       string
	introspectURL string
	refreshURL    string
	adminKey      string
	breaker       *resilience.CircuitBreaker
	cache         PrincipalCache
	cookies       CookieConfig
	flight        resilience.SingleFlight
	logger        *logging.Logger
}

func NewClient(cfg Config) *Client {
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

	introspectPath := cfg.IntrospectPath
	if strings.TrimSpace(introspectPath) == "" {
		introspectPath = defaultIntrospectPath
	}
	refreshPath := cfg.RefreshPath
	if strings.TrimSpace(refreshPath) == "" {
		refreshPath = defaultRefreshPath
	}

	principalCache := cfg.Cache
	if principalCache == nil {
		principalCache = NewMemoryPrincipalCache(defaultCacheTTL, defaultCacheEntries)
	}

	return &Client{
		httpClient:    httpClient,
		baseURL:       buildURL(cfg.BaseURL, ""),
		introspectURL: buildURL(cfg.BaseURL, introspectPath),
		refreshURL:    buildURL(cfg.BaseURL, refreshPath),
		adminKey:      strings.TrimSpace(cfg.AdminKey),
		breaker:       newBreaker(cfg.CircuitBreaker, logger),
		cache:         principalCache,
		cookies:       cfg.Cookies.normalize(),
		logger:        logger,
	}
}

func (c *Client) Name() string {
	return "identity_provider"
}

// Ping reports whether the identity provider answers at all. Any status below
// 500 counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ping anubis: %v", usecase.ErrDependencyUnavailable, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: anubis status=%d", usecase.ErrDependencyUnavailable, resp.StatusCode)
	}
	return nil
}

// VerifyAccessToken resolves token to a principal. Results are cached by token
// hash; concurrent verifications of the same token share one call.
func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	key := hashToken(token)
	if principal, ok := c.cachedPrincipal(ctx, key); ok {
		return principal, nil
	}

	out, err, _ := c.flight.Do(ctx, key, func(ctx context.Context) (any, error) {
		if principal, ok := c.cachedPrincipal(ctx, key); ok {
			return principal, nil
		}

		principal, err := c.introspect(ctx, token)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(ctx, key, principal); err != nil {
			c.logger.WarnContext(ctx, "store principal in cache failed", "error", err)
		}
		return principal, nil
	})
	if err != nil {
		return user.Principal{}, err
	}

	principal, ok := out.(user.Principal)
	if !ok {
		return user.Principal{}, fmt.Errorf("unexpected introspect result type %T", out)
	}
	return principal, nil
}

// Tokens is a freshly issued token pair.
type Tokens struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int
	RefreshExpiresIn int
}

// RefreshTokens exchanges a refresh token for a new token pair. A rejected
// refresh token is reported as usecase.ErrUnauthorized.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (Tokens, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return Tokens{}, fmt.Errorf("%w: refresh token is required", usecase.ErrUnauthorized)
	}

	var decoded refreshResponse
	status, err := c.post(ctx, c.refreshURL, refreshRequest{RefreshToken: refreshToken}, &decoded)
	if err != nil {
		return Tokens{}, fmt.Errorf("refresh tokens: %w", err)
	}
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Tokens{}, fmt.Errorf("%w: refresh token rejected", usecase.ErrUnauthorized)
	case status != http.StatusOK:
		return Tokens{}, fmt.Errorf("anubis refresh failed with status %d", status)
	}

	if strings.TrimSpace(decoded.AccessToken) == "" {
		return Tokens{}, fmt.Errorf("invalid refresh response: access_token is empty")
	}
	return Tokens{
		AccessToken:      decoded.AccessToken,
		RefreshToken:     decoded.RefreshToken,
		ExpiresIn:        decoded.ExpiresIn,
		RefreshExpiresIn: decoded.RefreshExpiresIn,
	}, nil
}

func (c *Client) introspect(ctx context.Context, token string) (user.Principal, error) {
	var decoded introspectResponse
	status, err := c.post(ctx, c.introspectURL, introspectRequest{Token: token}, &decoded)
	if err != nil {
		return user.Principal{}, fmt.Errorf("introspect token: %w", err)
	}
	switch status {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	case http.StatusForbidden:
		// The admin key was refused, so no token can be verified.
		c.logger.ErrorContext(ctx, "anubis rejected admin key", "status_code", status)
		return user.Principal{}, fmt.Errorf("%w: identity provider refused introspection", usecase.ErrDependencyUnavailable)
	default:
		c.logger.WarnContext(ctx, "anubis introspection non-200", "status_code", status)
		return user.Principal{}, fmt.Errorf("anubis introspection failed with status %d", status)
	}

	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, fmt.Errorf("invalid introspect response: user_id is empty")
	}

	return user.Principal{
		UserID: decoded.UserID,
		Email:  decoded.Email,
	}, nil
}

// post sends payload and decodes a 200 body into target. Non-200 statuses
// other than transient ones are returned for the caller to classify.
func (c *Client) post(ctx context.Context, endpoint string, payload, target any) (int, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "anubis circuit breaker rejected request", "state", c.breaker.State())
		return 0, fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err)
	}

	status, err := c.send(ctx, endpoint, payload, target)
	c.breaker.Record(err, isCircuitFailure)
	return status, err
}

func (c *Client) send(ctx context.Context, endpoint string, payload, target any) (int, error) {
	encoded, err := sonic.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set(adminKeyHeader, c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: request anubis: %v", errAnubisTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, fmt.Errorf("%w: read response: %v", errAnubisTransient, err)
	}
	if isTransientStatus(resp.StatusCode) {
		return resp.StatusCode, fmt.Errorf("%w: anubis status=%d", errAnubisTransient, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	if err := sonic.Unmarshal(body, target); err != nil {
		return resp.StatusCode, fmt.Errorf("unmarshal response: %w", err)
	}
	return resp.StatusCode, nil
}

func (c *Client) cachedPrincipal(ctx context.Context, key string) (user.Principal, bool) {
	principal, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "read principal cache failed", "error", err)
		return user.Principal{}, false
	}
	return principal, ok
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
}

func newBreaker(cfg resilience.CircuitBreakerConfig, logger *logging.Logger) *resilience.CircuitBreaker {
	if cfg.Dependency == "" {
		cfg.Dependency = "anubis"
	}
	if cfg.OnStateChange == nil {
		cfg.OnStateChange = resilience.LogStateChanges(logger)
	}
	return resilience.NewCircuitBreakerFromConfig(cfg)
}
