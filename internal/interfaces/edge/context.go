package edge

import (
	"context"

	"github.com/riskibarqy/kickoff-dashboard/internal/domain/user"
)

type contextKey string

const (
	sessionContextKey  contextKey = "edge_session"
	decisionContextKey contextKey = "edge_decision"
	slotContextKey     contextKey = "edge_decision_slot"
)

func withSession(ctx context.Context, s user.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFromContext returns the session resolved by the router.
func SessionFromContext(ctx context.Context) (user.Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(user.Session)
	return s, ok
}

func withDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionContextKey, d)
}

func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionContextKey).(Decision)
	return d, ok
}

// WithDecisionSlot lets an outer middleware read the routing decision after
// the router has run further down the chain.
func WithDecisionSlot(ctx context.Context) (context.Context, *Decision) {
	slot := &Decision{}
	return context.WithValue(ctx, slotContextKey, slot), slot
}

func fillDecisionSlot(ctx context.Context, d Decision) {
	if slot, ok := ctx.Value(slotContextKey).(*Decision); ok && slot != nil {
		*slot = d
	}
}
