package httpapi

import (
	"context"
	"net/http"

	"github.com/riskibarqy/kickoff-dashboard/external/footballapi"
	"github.com/riskibarqy/kickoff-dashboard/internal/interfaces/edge"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

func withRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDContextKey).(string)
	return v
}

// credentialsFromRequest collects what the football API needs to act on
// behalf of the caller. The Cookie header already reflects any refresh done
// by the edge router.
func credentialsFromRequest(r *http.Request) footballapi.Credentials {
	ctx := r.Context()
	creds := footballapi.Credentials{
		Cookie:       r.Header.Get("Cookie"),
		ForwardedFor: resolveClientIP(ctx, r),
	}
	if session, ok := edge.SessionFromContext(ctx); ok && session.Authenticated() {
		creds.AccessToken = session.AccessToken
	}
	return creds
}
