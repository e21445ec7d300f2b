package edge

import (
	"context"
	"net/http"

	"github.com/riskibarqy/kickoff-dashboard/internal/domain/user"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// SessionRefresher resolves the caller's session from the incoming request.
type SessionRefresher interface {
	Refresh(ctx context.Context, r *http.Request) (user.Session, error)
}

type Router struct {
	cfg      Config
	sessions SessionRefresher
	logger   *logging.Logger
}

func NewRouter(cfg Config, sessions SessionRefresher, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Default()
	}
	return &Router{cfg: cfg.normalize(), sessions: sessions, logger: logger}
}

func (rt *Router) Decide(host, origin, path string, authenticated bool) Decision {
	return rt.cfg.Decide(host, origin, path, authenticated)
}

// Handler refreshes the session, then redirects, rewrites or passes the
// request to next. Requests for internal page mounts from any other host go to
// notFound, or http.NotFound when it is nil. Cookies from the refresh reach the
// response in all cases.
func (rt *Router) Handler(next, notFound http.Handler) http.Handler {
	if notFound == nil {
		notFound = http.NotFoundHandler()
	}
	tracer := otel.Tracer("github.com/riskibarqy/kickoff-dashboard/internal/interfaces/edge")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "edge.Router")
		defer span.End()

		acc := &ResponseAccumulator{}
		session := rt.refresh(ctx, r)
		acc.Add(session.Cookies...)

		decision := rt.Decide(r.Host, r.Header.Get("Origin"), r.URL.Path, session.Authenticated())
		span.SetAttributes(
			attribute.String("edge.kind", string(decision.Kind)),
			attribute.String("edge.action", string(decision.Action)),
			attribute.Bool("edge.authenticated", session.Authenticated()),
		)
		rt.logger.DebugContext(ctx, "edge routing decision",
			"host", decision.EffectiveHost,
			"path", r.URL.Path,
			"kind", string(decision.Kind),
			"action", string(decision.Action),
			"target", firstNonEmpty(decision.Location, decision.Path),
			"cookies", len(session.Cookies),
		)
		fillDecisionSlot(ctx, decision)

		ctx = withDecision(withSession(ctx, session), decision)
		r = r.WithContext(ctx)

		switch decision.Action {
		case ActionRedirect:
			acc.Redirect(w, decision.Location)
		case ActionRewrite:
			next.ServeHTTP(w, acc.Rewrite(w, r, decision.Path))
		case ActionNotFound:
			notFound.ServeHTTP(w, acc.Next(w, r))
		default:
			next.ServeHTTP(w, acc.Next(w, r))
		}
	})
}

// refresh never fails the request; provider errors leave the caller
// unauthenticated but keep any cookies the provider issued.
func (rt *Router) refresh(ctx context.Context, r *http.Request) user.Session {
	if rt.sessions == nil {
		return user.Session{}
	}
	session, err := rt.sessions.Refresh(ctx, r)
	if err != nil {
		rt.logger.WarnContext(ctx, "session refresh failed", "host", r.Host, "path", r.URL.Path, "error", err)
		session.Principal = nil
		session.AccessToken = ""
	}
	return session
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
