package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                      string
	ServiceName                 string
	ServiceVersion              string
	HTTPAddr                    string
	ReadTimeout                 time.Duration
	WriteTimeout                time.Duration
	LogLevel                    logging.Level
	CORSAllowedOrigins          []string
	WebsiteURL                  string
	WebHost                     string
	DashboardDomain             string
	DashboardURL                string
	IsPreview                   bool
	EdgeOriginHostOverride      bool
	APIBaseURL                  string
	APITimeout                  time.Duration
	APICircuitEnabled           bool
	APICircuitFailureCount      int
	APICircuitOpenTimeout       time.Duration
	APICircuitHalfOpenMaxReq    int
	AssetBucketURL              string
	AnubisBaseURL               string
	AnubisIntrospectPath        string
	AnubisRefreshPath           string
	AnubisAdminKey              string
	AnubisTimeout               time.Duration
	AnubisCircuitEnabled        bool
	AnubisCircuitFailureCount   int
	AnubisCircuitOpenTimeout    time.Duration
	AnubisCircuitHalfOpenMaxReq int
	IdentityProviderName        string
	SessionAccessCookie         string
	SessionRefreshCookie        string
	SessionCookieSecure         bool
	SessionCacheTTL             time.Duration
	RedisURL                    string
	SiteBasicAuthUsername       string
	SiteBasicAuthPassword       string
	RenderMaxSections           int
	ReadinessWorkers            int
	ReadinessTimeout            time.Duration
	PprofEnabled                bool
	PprofAddr                   string
	UptraceEnabled              bool
	UptraceDSN                  string
	UptraceLogsEnabled          bool
	BetterStackEnabled          bool
	BetterStackEndpoint         string
	BetterStackToken            string
	BetterStackTimeout          time.Duration
	BetterStackMinLevel         logging.Level
	PyroscopeEnabled            bool
	PyroscopeServerAddress      string
	PyroscopeAppName            string
	PyroscopeAuthToken          string
	PyroscopeBasicAuthUser      string
	PyroscopeBasicAuthPassword  string
	PyroscopeUploadRate         time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                appEnv,
		ServiceName:           getEnv("APP_SERVICE_NAME", "kickoff-dashboard"),
		ServiceVersion:        getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:              getEnv("APP_HTTP_ADDR", ":8080"),
		LogLevel:              parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		CORSAllowedOrigins:    splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		APIBaseURL:            strings.TrimSpace(getEnv("API_BASE_URL", "http://localhost:8000")),
		AssetBucketURL:        strings.TrimSpace(getEnv("ASSET_BUCKET_URL", "")),
		AnubisBaseURL:         strings.TrimSpace(getEnv("ANUBIS_BASE_URL", "http://localhost:8081")),
		AnubisIntrospectPath:  getEnv("ANUBIS_INTROSPECT_PATH", "/v1/auth/introspect"),
		AnubisRefreshPath:     getEnv("ANUBIS_REFRESH_PATH", "/v1/auth/refresh"),
		AnubisAdminKey:        getEnv("ANUBIS_ADMIN_KEY", ""),
		IdentityProviderName:  strings.TrimSpace(getEnv("IDENTITY_PROVIDER_NAME", "anubis")),
		SessionAccessCookie:   strings.TrimSpace(getEnv("SESSION_ACCESS_COOKIE", "kickoff-access-token")),
		SessionRefreshCookie:  strings.TrimSpace(getEnv("SESSION_REFRESH_COOKIE", "kickoff-refresh-token")),
		RedisURL:              strings.TrimSpace(getEnv("REDIS_URL", "")),
		SiteBasicAuthUsername: strings.TrimSpace(getEnv("SITE_BASIC_AUTH_USERNAME", "")),
		SiteBasicAuthPassword: getEnv("SITE_BASIC_AUTH_PASSWORD", ""),
	}

	if err := loadEdge(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadHTTP(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadUpstreams(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadSession(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadEdge(cfg *Config) error {
	websiteURL := strings.TrimRight(strings.TrimSpace(getEnv("WEBSITE_URL", "http://localhost:3000")), "/")
	parsed, err := url.Parse(websiteURL)
	if err != nil || parsed.Hostname() == "" {
		return fmt.Errorf("invalid WEBSITE_URL %q: expected an absolute url", websiteURL)
	}
	cfg.WebsiteURL = websiteURL
	cfg.WebHost = strings.ToLower(parsed.Hostname())
	cfg.SessionCookieSecure = parsed.Scheme == "https"

	cfg.DashboardDomain = strings.ToLower(strings.TrimSpace(getEnv("DASHBOARD_DOMAIN", "dashboard."+cfg.WebHost)))
	dashboardHost := cfg.DashboardDomain
	if port := parsed.Port(); port != "" {
		dashboardHost += ":" + port
	}
	cfg.DashboardURL = parsed.Scheme + "://" + dashboardHost

	isPreview, err := getEnvAsBool("IS_PREVIEW", false)
	if err != nil {
		return fmt.Errorf("parse IS_PREVIEW: %w", err)
	}
	originOverride, err := getEnvAsBool("EDGE_ORIGIN_HOST_OVERRIDE", true)
	if err != nil {
		return fmt.Errorf("parse EDGE_ORIGIN_HOST_OVERRIDE: %w", err)
	}
	cfg.IsPreview = isPreview
	cfg.EdgeOriginHostOverride = originOverride

	if (cfg.SiteBasicAuthUsername == "") != (cfg.SiteBasicAuthPassword == "") {
		return fmt.Errorf("SITE_BASIC_AUTH_USERNAME and SITE_BASIC_AUTH_PASSWORD must be set together")
	}
	return nil
}

func loadHTTP(cfg *Config) error {
	readTimeout, err := getEnvAsDuration("APP_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := getEnvAsDuration("APP_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	renderMaxSections, err := getEnvAsInt("RENDER_MAX_SECTIONS", 4)
	if err != nil {
		return fmt.Errorf("parse RENDER_MAX_SECTIONS: %w", err)
	}
	if renderMaxSections < 1 {
		return fmt.Errorf("RENDER_MAX_SECTIONS must be >= 1")
	}

	readinessWorkers, err := getEnvAsInt("READINESS_WORKERS", 4)
	if err != nil {
		return fmt.Errorf("parse READINESS_WORKERS: %w", err)
	}
	if readinessWorkers < 1 {
		return fmt.Errorf("READINESS_WORKERS must be >= 1")
	}
	readinessTimeout, err := getEnvAsDuration("READINESS_TIMEOUT", 2*time.Second)
	if err != nil {
		return fmt.Errorf("parse READINESS_TIMEOUT: %w", err)
	}
	if readinessTimeout <= 0 {
		return fmt.Errorf("READINESS_TIMEOUT must be > 0")
	}

	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.RenderMaxSections = renderMaxSections
	cfg.ReadinessWorkers = readinessWorkers
	cfg.ReadinessTimeout = readinessTimeout
	return nil
}

func loadUpstreams(cfg *Config) error {
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL cannot be empty")
	}
	apiTimeout, err := getEnvAsDuration("API_TIMEOUT", 5*time.Second)
	if err != nil {
		return fmt.Errorf("parse API_TIMEOUT: %w", err)
	}
	if apiTimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be > 0")
	}
	apiCircuit, err := loadCircuit("API")
	if err != nil {
		return err
	}

	anubisTimeout, err := getEnvAsDuration("ANUBIS_TIMEOUT", 3*time.Second)
	if err != nil {
		return fmt.Errorf("parse ANUBIS_TIMEOUT: %w", err)
	}
	if anubisTimeout <= 0 {
		return fmt.Errorf("ANUBIS_TIMEOUT must be > 0")
	}
	anubisCircuit, err := loadCircuit("ANUBIS")
	if err != nil {
		return err
	}

	cfg.APITimeout = apiTimeout
	cfg.APICircuitEnabled = apiCircuit.enabled
	cfg.APICircuitFailureCount = apiCircuit.failureCount
	cfg.APICircuitOpenTimeout = apiCircuit.openTimeout
	cfg.APICircuitHalfOpenMaxReq = apiCircuit.halfOpenMaxReq
	cfg.AnubisTimeout = anubisTimeout
	cfg.AnubisCircuitEnabled = anubisCircuit.enabled
	cfg.AnubisCircuitFailureCount = anubisCircuit.failureCount
	cfg.AnubisCircuitOpenTimeout = anubisCircuit.openTimeout
	cfg.AnubisCircuitHalfOpenMaxReq = anubisCircuit.halfOpenMaxReq
	return nil
}

func loadSession(cfg *Config) error {
	if cfg.SessionAccessCookie == "" || cfg.SessionRefreshCookie == "" {
		return fmt.Errorf("SESSION_ACCESS_COOKIE and SESSION_REFRESH_COOKIE cannot be empty")
	}
	if cfg.SessionAccessCookie == cfg.SessionRefreshCookie {
		return fmt.Errorf("SESSION_ACCESS_COOKIE and SESSION_REFRESH_COOKIE must differ")
	}

	ttl, err := getEnvAsDuration("SESSION_CACHE_TTL", 2*time.Minute)
	if err != nil {
		return fmt.Errorf("parse SESSION_CACHE_TTL: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("SESSION_CACHE_TTL must be > 0")
	}
	cfg.SessionCacheTTL = ttl

	if cfg.RedisURL != "" {
		if _, err := url.Parse(cfg.RedisURL); err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
	}
	return nil
}

func loadObservability(cfg *Config) error {
	uptraceEnabled, err := getEnvAsBool("UPTRACE_ENABLED", false)
	if err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := getEnvAsBool("UPTRACE_LOGS_ENABLED", true)
	if err != nil {
		return fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	betterStackEnabled, err := getEnvAsBool("BETTERSTACK_ENABLED", false)
	if err != nil {
		return fmt.Errorf("parse BETTERSTACK_ENABLED: %w", err)
	}
	betterStackEndpoint := strings.TrimSpace(getEnv("BETTERSTACK_ENDPOINT", ""))
	if betterStackEnabled && betterStackEndpoint == "" {
		return fmt.Errorf("BETTERSTACK_ENDPOINT is required when BETTERSTACK_ENABLED=true")
	}
	betterStackTimeout, err := getEnvAsDuration("BETTERSTACK_TIMEOUT", 3*time.Second)
	if err != nil {
		return fmt.Errorf("parse BETTERSTACK_TIMEOUT: %w", err)
	}
	if betterStackTimeout <= 0 {
		return fmt.Errorf("BETTERSTACK_TIMEOUT must be > 0")
	}

	pprofEnabled, err := getEnvAsBool("PPROF_ENABLED", false)
	if err != nil {
		return fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := getEnvAsBool("PYROSCOPE_ENABLED", false)
	if err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second)
	if err != nil {
		return fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}
	pyroscopeAppName := strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if pyroscopeEnabled && pyroscopeAppName == "" {
		return fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	cfg.UptraceEnabled = uptraceEnabled
	cfg.UptraceDSN = uptraceDSN
	cfg.UptraceLogsEnabled = uptraceLogsEnabled
	cfg.BetterStackEnabled = betterStackEnabled
	cfg.BetterStackEndpoint = betterStackEndpoint
	cfg.BetterStackToken = strings.TrimSpace(getEnv("BETTERSTACK_TOKEN", ""))
	cfg.BetterStackTimeout = betterStackTimeout
	cfg.BetterStackMinLevel = parseLogLevel(getEnv("BETTERSTACK_MIN_LEVEL", "error"))
	cfg.PprofEnabled = pprofEnabled
	cfg.PprofAddr = pprofAddr
	cfg.PyroscopeEnabled = pyroscopeEnabled
	cfg.PyroscopeServerAddress = pyroscopeServerAddress
	cfg.PyroscopeAppName = pyroscopeAppName
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	cfg.PyroscopeUploadRate = pyroscopeUploadRate
	return nil
}

type circuitSettings struct {
	enabled        bool
	failureCount   int
	openTimeout    time.Duration
	halfOpenMaxReq int
}

// loadCircuit reads <prefix>_CIRCUIT_* keys.
func loadCircuit(prefix string) (circuitSettings, error) {
	key := func(name string) string { return prefix + "_CIRCUIT_" + name }

	enabled, err := getEnvAsBool(key("ENABLED"), true)
	if err != nil {
		return circuitSettings{}, fmt.Errorf("parse %s: %w", key("ENABLED"), err)
	}
	failureCount, err := getEnvAsInt(key("FAILURE_COUNT"), 5)
	if err != nil {
		return circuitSettings{}, fmt.Errorf("parse %s: %w", key("FAILURE_COUNT"), err)
	}
	if failureCount < 1 {
		return circuitSettings{}, fmt.Errorf("%s must be >= 1", key("FAILURE_COUNT"))
	}
	openTimeout, err := getEnvAsDuration(key("OPEN_TIMEOUT"), 15*time.Second)
	if err != nil {
		return circuitSettings{}, fmt.Errorf("parse %s: %w", key("OPEN_TIMEOUT"), err)
	}
	if openTimeout <= 0 {
		return circuitSettings{}, fmt.Errorf("%s must be > 0", key("OPEN_TIMEOUT"))
	}
	halfOpenMaxReq, err := getEnvAsInt(key("HALF_OPEN_MAX_REQ"), 2)
	if err != nil {
		return circuitSettings{}, fmt.Errorf("parse %s: %w", key("HALF_OPEN_MAX_REQ"), err)
	}
	if halfOpenMaxReq < 1 {
		return circuitSettings{}, fmt.Errorf("%s must be >= 1", key("HALF_OPEN_MAX_REQ"))
	}

	return circuitSettings{
		enabled:        enabled,
		failureCount:   failureCount,
		openTimeout:    openTimeout,
		halfOpenMaxReq: halfOpenMaxReq,
	}, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
