package httpapi

import (
	"net/http"

	"github.com/riskibarqy/kickoff-dashboard/internal/interfaces/edge"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/cache"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/id"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
)

type RouterConfig struct {
	BasicAuthUsername  string
	BasicAuthPassword  string
	CORSAllowedOrigins []string
}

// NewRouter serves system routes directly and sends everything else through
// the basic-auth gate, the edge router and a fresh request cache before the
// page routes see it.
func NewRouter(
	handler *Handler,
	edgeRouter *edge.Router,
	logger *logging.Logger,
	cfg RouterConfig,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	pages := http.NewServeMux()
	registerDashboardRoutes(pages, handler)
	registerWebsiteRoutes(pages, handler)
	pages.HandleFunc("/", handler.DashboardNotFound)

	site := CORS(cfg.CORSAllowedOrigins,
		BasicAuthGate(cfg.BasicAuthUsername, cfg.BasicAuthPassword,
			edgeRouter.Handler(cache.Middleware(pages), http.HandlerFunc(handler.DashboardNotFound))))

	root := http.NewServeMux()
	registerSystemRoutes(root, handler)
	root.Handle("/", site)

	return RequestTracing(RequestLogging(logger, id.NewUUIDGenerator(), recoverPanic(logger, root)))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "request_id", requestIDFromContext(ctx))
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
