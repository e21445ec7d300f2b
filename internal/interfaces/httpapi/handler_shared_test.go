package httpapi

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
	"github.com/riskibarqy/kickoff-dashboard/internal/usecase"
)

func TestNewHandler_RegistersSeasonValidation(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil, nil, nil, "https://dashboard.example.com", logging.NewNop())
	ctx := context.Background()

	if err := h.validateRequest(ctx, fixturesQuery{Season: "2324", Gameweek: 5}); err != nil {
		t.Fatalf("expected known season to pass, got %v", err)
	}
	if err := h.validateRequest(ctx, fixturesQuery{Season: "9899"}); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown season, got %v", err)
	}
}
