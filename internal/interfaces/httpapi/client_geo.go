package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// clientIPHeaders are checked in order; the first parseable address wins.
var clientIPHeaders = []string{
	"CF-Connecting-IP",
	"X-Vercel-Forwarded-For",
	"X-Forwarded-For",
	"X-Real-IP",
}

var countryHeaders = []string{
	"CF-IPCountry",
	"X-Vercel-IP-Country",
	"CloudFront-Viewer-Country",
}

func resolveClientIP(_ context.Context, r *http.Request) string {
	for _, header := range clientIPHeaders {
		if ip := normalizeIP(r.Header.Get(header)); ip != "" {
			return ip
		}
	}
	return normalizeIP(r.RemoteAddr)
}

func resolveCountryCode(_ context.Context, r *http.Request) string {
	for _, header := range countryHeaders {
		if code := normalizeCountry(r.Header.Get(header)); code != "" {
			return code
		}
	}
	return "ZZ"
}

// normalizeIP takes the first hop of a forwarded list and strips any port.
func normalizeIP(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if first, _, found := strings.Cut(value, ","); found {
		value = strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(value); err == nil {
		value = strings.TrimSpace(host)
	}

	parsed := net.ParseIP(value)
	if parsed == nil {
		return ""
	}
	return parsed.String()
}

func normalizeCountry(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 2 {
		return ""
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return code
}
