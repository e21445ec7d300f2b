package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/kickoff-dashboard/internal/domain/fixture"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/pagination"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/season"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/team"
	usecasemock "github.com/riskibarqy/kickoff-dashboard/internal/mocks/usecase"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/cache"
	"github.com/stretchr/testify/mock"
)

type upstreamStatusError struct{ status int }

func (e upstreamStatusError) Error() string   { return fmt.Sprintf("football api status=%d", e.status) }
func (e upstreamStatusError) HTTPStatus() int { return e.status }

func requestContext() context.Context {
	return cache.WithRequestCache(context.Background(), cache.NewRequestCache())
}

func TestQueries_ConcurrentIdenticalCallsReachUpstreamOnce(t *testing.T) {
	t.Parallel()

	ctx := requestContext()
	api := usecasemock.NewFootballAPI(t)
	api.On("TeamsBySeason", mock.Anything, season.Season("2324")).
		Run(func(mock.Arguments) { time.Sleep(20 * time.Millisecond) }).
		Return([]team.Team{{ID: 1, Name: "Arsenal"}}, nil).
		Once()

	q := NewQueries(api, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			teams, err := q.TeamsBySeason(ctx, "2324")
			if err != nil {
				t.Errorf("teams by season: %v", err)
				return
			}
			if len(teams) != 1 {
				t.Errorf("unexpected teams: %v", teams)
			}
		}()
	}
	wg.Wait()
}

func TestQueries_NotFoundHandlerInvokedOn404(t *testing.T) {
	t.Parallel()

	ctx := requestContext()
	api := usecasemock.NewFootballAPI(t)
	api.On("Team", mock.Anything, int64(999)).
		Return(team.Team{}, fmt.Errorf("get team: %w", upstreamStatusError{status: http.StatusNotFound})).
		Once()

	var notFound []string
	errTeamMissing := errors.New("team page not found")
	q := NewQueries(api, func(resource string, err error) error {
		notFound = append(notFound, resource)
		return fmt.Errorf("%w: %w", ErrNotFound, errTeamMissing)
	})

	for i := 0; i < 2; i++ {
		_, err := q.Team(ctx, 999)
		if !errors.Is(err, ErrNotFound) || !errors.Is(err, errTeamMissing) {
			t.Fatalf("expected not-found error, got %v", err)
		}
	}
	if len(notFound) != 1 || notFound[0] != "team 999" {
		t.Fatalf("expected handler to run once for memoised 404, got %v", notFound)
	}
}

func TestQueries_OtherStatusesPropagate(t *testing.T) {
	t.Parallel()

	ctx := requestContext()
	api := usecasemock.NewFootballAPI(t)
	upstream := upstreamStatusError{status: http.StatusUnprocessableEntity}
	api.On("CurrentSeason", mock.Anything).Return(season.Current{}, upstream).Once()

	q := NewQueries(api, func(string, error) error {
		t.Fatalf("not-found handler must not run for 422")
		return nil
	})

	_, err := q.CurrentSeason(ctx)
	var statusErr upstreamStatusError
	if !errors.As(err, &statusErr) || statusErr.status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 to propagate, got %v", err)
	}
}

func TestQueries_FixturesNormalisesPagination(t *testing.T) {
	t.Parallel()

	ctx := requestContext()
	api := usecasemock.NewFootballAPI(t)
	api.On("Fixtures", mock.Anything, fixture.Query{
		Season:   "2324",
		Gameweek: 5,
		Query:    pagination.Query{Page: 0, PageSize: pagination.DefaultPageSize},
	}).Return(pagination.Page[fixture.Fixture]{Total: 0}, nil).Once()

	q := NewQueries(api, nil)

	// Both shapes normalise to the same key and share one upstream call.
	if _, err := q.Fixtures(ctx, fixture.Query{Season: "2324", Gameweek: 5, Query: pagination.Query{Page: -1}}); err != nil {
		t.Fatalf("fixtures: %v", err)
	}
	if _, err := q.Fixtures(ctx, fixture.Query{Season: "2324", Gameweek: 5}); err != nil {
		t.Fatalf("fixtures: %v", err)
	}
}

func TestQueries_RejectsInvalidInputWithoutUpstreamCall(t *testing.T) {
	t.Parallel()

	q := NewQueries(usecasemock.NewFootballAPI(t), nil)

	if _, err := q.Team(requestContext(), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for team 0, got %v", err)
	}
	if _, err := q.TeamsBySeason(requestContext(), "9999"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown season, got %v", err)
	}
}

func TestQueries_SeparateRequestsDoNotShareResults(t *testing.T) {
	t.Parallel()

	api := usecasemock.NewFootballAPI(t)
	api.On("CurrentSeason", mock.Anything).Return(season.Current{Season: "2324", Gameweek: 9}, nil).Twice()

	q := NewQueries(api, nil)
	for i := 0; i < 2; i++ {
		if _, err := q.CurrentSeason(requestContext()); err != nil {
			t.Fatalf("current season: %v", err)
		}
	}
}
