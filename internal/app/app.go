package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/panjf2000/ants/v2"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/kickoff-dashboard/external/footballapi"
	"github.com/riskibarqy/kickoff-dashboard/internal/config"
	"github.com/riskibarqy/kickoff-dashboard/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/kickoff-dashboard/internal/interfaces/edge"
	"github.com/riskibarqy/kickoff-dashboard/internal/interfaces/httpapi"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/resilience"
	"github.com/riskibarqy/kickoff-dashboard/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const principalCacheEntries = 10000

// NewHTTPServer wires the dashboard server. The returned cleanup releases the
// readiness pool and the Redis connection, if any.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	var cleanups []func() error
	cleanup := func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			errs = append(errs, cleanups[i]())
		}
		return errors.Join(errs...)
	}

	footballAPI := footballapi.NewClient(footballapi.ClientConfig{
		HTTPClient: &http.Client{Timeout: cfg.APITimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.APITimeout,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.APICircuitEnabled,
			FailureThreshold: cfg.APICircuitFailureCount,
			OpenTimeout:      cfg.APICircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.APICircuitHalfOpenMaxReq,
		},
	})

	principals, closeCache, err := newPrincipalCache(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, closeCache)

	identity := anubis.NewClient(anubis.Config{
		HTTPClient:     &http.Client{Timeout: cfg.AnubisTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		BaseURL:        cfg.AnubisBaseURL,
		IntrospectPath: cfg.AnubisIntrospectPath,
		RefreshPath:    cfg.AnubisRefreshPath,
		AdminKey:       cfg.AnubisAdminKey,
		Timeout:        cfg.AnubisTimeout,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.AnubisCircuitEnabled,
			FailureThreshold: cfg.AnubisCircuitFailureCount,
			OpenTimeout:      cfg.AnubisCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AnubisCircuitHalfOpenMaxReq,
		},
		Cache: principals,
		Cookies: anubis.CookieConfig{
			AccessName:  cfg.SessionAccessCookie,
			RefreshName: cfg.SessionRefreshCookie,
			Domain:      sessionCookieDomain(cfg),
			Secure:      cfg.SessionCookieSecure,
		},
		Logger: logger,
	})

	pool, err := ants.NewPool(cfg.ReadinessWorkers)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("create readiness pool: %w", err)
	}
	cleanups = append(cleanups, func() error {
		pool.Release()
		return nil
	})

	dashboardSvc := usecase.NewDashboardService(usecase.DashboardConfig{
		AssetBucketURL:   cfg.AssetBucketURL,
		MaxSections:      cfg.RenderMaxSections,
		IdentityProvider: cfg.IdentityProviderName,
		DashboardRoot:    dashboardRoot(cfg),
	}, logger)
	readinessSvc := usecase.NewReadinessService(pool, cfg.ReadinessTimeout, logger, footballAPI, identity)

	edgeRouter := edge.NewRouter(edge.Config{
		WebHost:        cfg.WebHost,
		DashboardHost:  cfg.DashboardDomain,
		Preview:        cfg.IsPreview,
		OriginOverride: cfg.EdgeOriginHostOverride,
	}, identity, logger)

	handler := httpapi.NewHandler(dashboardSvc, readinessSvc, footballAPI, cfg.DashboardURL, logger)
	router := httpapi.NewRouter(handler, edgeRouter, logger, httpapi.RouterConfig{
		BasicAuthUsername:  cfg.SiteBasicAuthUsername,
		BasicAuthPassword:  cfg.SiteBasicAuthPassword,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, cleanup, nil
}

// sessionCookieDomain scopes cookies to the web domain so the dashboard
// subdomain shares them. Preview deployments run on a host outside that domain,
// where browsers would reject the attribute, so they get host-only cookies.
func sessionCookieDomain(cfg config.Config) string {
	if cfg.IsPreview {
		return ""
	}
	return cfg.WebHost
}

func dashboardRoot(cfg config.Config) string {
	if cfg.IsPreview {
		return "/dashboard"
	}
	return "/"
}

// newPrincipalCache shares verified sessions across instances through Redis
// when REDIS_URL is set, and keeps them in process otherwise.
func newPrincipalCache(cfg config.Config, logger *logging.Logger) (anubis.PrincipalCache, func() error, error) {
	if cfg.RedisURL == "" {
		logger.Info("principal cache in memory", "ttl", cfg.SessionCacheTTL.String())
		return anubis.NewMemoryPrincipalCache(cfg.SessionCacheTTL, principalCacheEntries), func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.AnubisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// Sessions still verify against the identity provider; cache errors are logged per call.
		logger.Warn("redis ping failed", "addr", opts.Addr, "error", err)
	}

	logger.Info("principal cache in redis", "addr", opts.Addr, "ttl", cfg.SessionCacheTTL.String())
	return anubis.NewRedisPrincipalCache(client, cfg.SessionCacheTTL), client.Close, nil
}
