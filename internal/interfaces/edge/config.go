package edge

import (
	"net"
	"net/url"
	"strings"
)

const (
	dashboardSubdomainPrefix = "dashboard."

	dashboardPrefix = "/dashboard"
	websitePrefix   = "/website"
	apiPrefix       = "/api"
	signInPath      = "/sign-in"
)

// Config describes the public hosts served by one deployment.
type Config struct {
	// WebHost is the marketing site host, e.g. example.com.
	WebHost string
	// DashboardHost is the dashboard host, e.g. dashboard.example.com.
	DashboardHost string
	// Preview deployments serve everything from one host with the dashboard
	// mounted under /dashboard.
	Preview bool
	// OriginOverride lets a dashboard Origin header win over Host.
	OriginOverride bool
}

func (c Config) normalize() Config {
	c.WebHost = normalizeHost(c.WebHost)
	c.DashboardHost = normalizeHost(c.DashboardHost)
	if c.DashboardHost == "" && c.WebHost != "" {
		c.DashboardHost = dashboardSubdomainPrefix + c.WebHost
	}
	return c
}

// normalizeHost lowercases and drops any port.
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.TrimSuffix(host, ".")
}

func originHost(origin string) string {
	origin = strings.TrimSpace(origin)
	if origin == "" || origin == "null" {
		return ""
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return normalizeHost(parsed.Host)
}
