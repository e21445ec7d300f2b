package usecase

import (
	"context"

	"github.com/riskibarqy/kickoff-dashboard/internal/domain/fixture"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/forecast"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/pagination"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/season"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/team"
)

// FootballAPI is a per-request session against the football API. Calls carry
// the caller's credentials and are never shared across requests.
type FootballAPI interface {
	CurrentSeason(ctx context.Context) (season.Current, error)
	Fixtures(ctx context.Context, query fixture.Query) (pagination.Page[fixture.Fixture], error)
	Team(ctx context.Context, teamID int64) (team.Team, error)
	TeamsBySeason(ctx context.Context, s season.Season) ([]team.Team, error)
	FixtureForecasts(ctx context.Context, query forecast.Query) (pagination.Page[forecast.MatchForecast], error)
}

// Probe checks that a dependency is reachable.
type Probe interface {
	Name() string
	Ping(ctx context.Context) error
}
