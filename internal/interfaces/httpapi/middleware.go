package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/kickoff-dashboard/internal/interfaces/edge"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/id"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	requestIDHeader = "X-Request-ID"
	basicAuthRealm  = `Basic realm="Secure Area"`
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func RequestLogging(logger *logging.Logger, ids *id.UUIDGenerator, next http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RequestLogging")
		defer span.End()

		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if !id.Valid(requestID) {
			generated, err := ids.NewID()
			if err != nil {
				logger.WarnContext(ctx, "generate request id failed", "error", err)
			}
			requestID = generated
		}
		if requestID != "" {
			w.Header().Set(requestIDHeader, requestID)
			ctx = withRequestID(ctx, requestID)
		}
		ctx, decision := edge.WithDecisionSlot(ctx)

		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		args := []any{
			"method", r.Method,
			"host", r.Host,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(started).Milliseconds(),
			"client_ip", resolveClientIP(ctx, r),
			"country", resolveCountryCode(ctx, r),
			"request_id", requestID,
		}
		if decision.Kind != "" {
			args = append(args, "route_kind", string(decision.Kind), "route_action", string(decision.Action))
			if decision.Action == edge.ActionRewrite {
				args = append(args, "rewritten_path", decision.Path)
			}
			if decision.Action == edge.ActionRedirect {
				args = append(args, "redirect_to", decision.Location)
			}
		}

		switch {
		case rec.status >= http.StatusInternalServerError:
			logger.ErrorContext(ctx, "http_request", args...)
		case rec.status >= http.StatusBadRequest:
			logger.WarnContext(ctx, "http_request", args...)
		default:
			logger.InfoContext(ctx, "http_request", args...)
		}
	})
}

func RequestTracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "kickoff-dashboard-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return shouldTraceRequest(r.URL.Path)
		}),
	)
}

func shouldTraceRequest(path string) bool {
	normalized := strings.ToLower(strings.TrimSpace(path))
	switch normalized {
	case "/healthz", "/health", "/livez", "/readyz":
		return false
	default:
		return true
	}
}

// BasicAuthGate requires HTTP basic credentials when both username and
// password are configured. With either one empty it is a no-op.
func BasicAuthGate(username, password string, next http.Handler) http.Handler {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return next
	}
	expectedUser := []byte(username)
	expectedPassword := []byte(password)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.BasicAuthGate")
		defer span.End()

		user, pass, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), expectedUser) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), expectedPassword) == 1
		if !ok || !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", basicAuthRealm)
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CORS allows configured origins to call the dashboard with credentials.
// Origins are matched exactly; "*" allows any origin without credentials.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowAll := false
	allowMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		candidate := strings.TrimSpace(origin)
		if candidate == "" {
			continue
		}
		if candidate == "*" {
			allowAll = true
			continue
		}
		allowMap[candidate] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.CORS")
		defer span.End()

		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		_, listed := allowMap[origin]
		if listed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		} else if allowAll {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		if listed || allowAll {
			w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,Accept")
			w.Header().Set("Access-Control-Max-Age", "600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
