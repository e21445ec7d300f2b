package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/kickoff-dashboard/internal/domain/fixture"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/forecast"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/pagination"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/season"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/team"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/cache"
)

type noParams struct{}

// Queries is the read surface page services use for one request. Every call
// goes through the request cache in ctx, so identical calls made while
// assembling a page reach the football API once.
type Queries struct {
	currentSeason    func(context.Context, noParams) (season.Current, error)
	fixtures         func(context.Context, fixture.Query) (pagination.Page[fixture.Fixture], error)
	team             func(context.Context, int64) (team.Team, error)
	teamsBySeason    func(context.Context, season.Season) ([]team.Team, error)
	fixtureForecasts func(context.Context, forecast.Query) (pagination.Page[forecast.MatchForecast], error)
}

// NotFoundFunc produces the error returned when the football API answers 404.
type NotFoundFunc func(resource string, err error) error

// DefaultNotFound maps an upstream 404 to ErrNotFound.
func DefaultNotFound(resource string, err error) error {
	return fmt.Errorf("%w: %s", ErrNotFound, resource)
}

func NewQueries(api FootballAPI, onNotFound NotFoundFunc) *Queries {
	if onNotFound == nil {
		onNotFound = DefaultNotFound
	}

	return &Queries{
		currentSeason: cache.Memoize("footballapi.CurrentSeason", func(ctx context.Context, _ noParams) (season.Current, error) {
			current, err := api.CurrentSeason(ctx)
			return Unwrap(current, err, notFoundAs(onNotFound, "current season"))
		}),
		fixtures: cache.Memoize("footballapi.Fixtures", func(ctx context.Context, q fixture.Query) (pagination.Page[fixture.Fixture], error) {
			page, err := api.Fixtures(ctx, q)
			return Unwrap(page, err, notFoundAs(onNotFound, "fixtures"))
		}),
		team: cache.Memoize("footballapi.Team", func(ctx context.Context, teamID int64) (team.Team, error) {
			t, err := api.Team(ctx, teamID)
			return Unwrap(t, err, notFoundAs(onNotFound, fmt.Sprintf("team %d", teamID)))
		}),
		teamsBySeason: cache.Memoize("footballapi.TeamsBySeason", func(ctx context.Context, s season.Season) ([]team.Team, error) {
			teams, err := api.TeamsBySeason(ctx, s)
			return Unwrap(teams, err, notFoundAs(onNotFound, "teams for season "+s.String()))
		}),
		fixtureForecasts: cache.Memoize("footballapi.FixtureForecasts", func(ctx context.Context, q forecast.Query) (pagination.Page[forecast.MatchForecast], error) {
			page, err := api.FixtureForecasts(ctx, q)
			return Unwrap(page, err, notFoundAs(onNotFound, "fixture forecasts"))
		}),
	}
}

func notFoundAs(onNotFound NotFoundFunc, resource string) StatusHandlers {
	return NotFoundHandlers(func(err error) error {
		return onNotFound(resource, err)
	})
}

func (q *Queries) CurrentSeason(ctx context.Context) (season.Current, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Queries.CurrentSeason")
	defer span.End()

	return q.currentSeason(ctx, noParams{})
}

func (q *Queries) Fixtures(ctx context.Context, query fixture.Query) (pagination.Page[fixture.Fixture], error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Queries.Fixtures")
	defer span.End()

	query.Query = query.Query.Normalize()
	return q.fixtures(ctx, query)
}

func (q *Queries) Team(ctx context.Context, teamID int64) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Queries.Team")
	defer span.End()

	if teamID <= 0 {
		return team.Team{}, fmt.Errorf("%w: team id must be positive", ErrInvalidInput)
	}
	return q.team(ctx, teamID)
}

func (q *Queries) TeamsBySeason(ctx context.Context, s season.Season) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Queries.TeamsBySeason")
	defer span.End()

	if !s.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, season.ErrUnknownSeason)
	}
	return q.teamsBySeason(ctx, s)
}

func (q *Queries) FixtureForecasts(ctx context.Context, query forecast.Query) (pagination.Page[forecast.MatchForecast], error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Queries.FixtureForecasts")
	defer span.End()

	query.Query = query.Query.Normalize()
	return q.fixtureForecasts(ctx, query)
}
