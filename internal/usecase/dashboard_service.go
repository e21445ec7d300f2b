package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/kickoff-dashboard/internal/domain/fixture"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/forecast"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/pagination"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/season"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/team"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const (
	gameweekPageSize   = 20
	seasonPageSize     = 50
	teamFormSize       = 10
	teamUpcomingSize   = 10
	defaultMaxSections = 4
)

type DashboardConfig struct {
	AssetBucketURL   string
	MaxSections      int
	IdentityProvider string
	DashboardRoot    string
}

// DashboardService assembles page data for the dashboard. Every method takes
// the request's Queries so repeated lookups collapse to one upstream call.
type DashboardService struct {
	cfg    DashboardConfig
	logger *logging.Logger
}

func NewDashboardService(cfg DashboardConfig, logger *logging.Logger) *DashboardService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxSections < 1 {
		cfg.MaxSections = defaultMaxSections
	}
	if strings.TrimSpace(cfg.DashboardRoot) == "" {
		cfg.DashboardRoot = "/"
	}

	return &DashboardService{cfg: cfg, logger: logger}
}

type HomePage struct {
	Current  season.Current
	Fixtures []fixture.Fixture
	Teams    int
}

// FixturesFilter selects one gameweek of one season, optionally for one team.
type FixturesFilter struct {
	Season   season.Season
	Gameweek int
	TeamID   int64
}

type FixturesPage struct {
	Filter  FixturesFilter
	Groups  []fixture.DateGroup
	Teams   []team.Team
	Seasons []season.Season
}

type ResultsPage struct {
	Filter    FixturesFilter
	Fixtures  []fixture.Fixture
	Completed int
}

type TeamsPage struct {
	Season season.Season
	Teams  []team.Team
}

type FormEntry struct {
	FixtureID    int64
	Gameweek     int
	Date         *time.Time
	Opponent     team.Team
	Home         bool
	GoalsFor     int
	GoalsAgainst int
	Outcome      fixture.Outcome
}

type TeamPage struct {
	Team     team.Team
	Season   season.Season
	BadgeURL string
	Form     []FormEntry
	Upcoming []fixture.Fixture
}

type SignInPage struct {
	Provider   string
	RedirectTo string
}

func (s *DashboardService) Home(ctx context.Context, q *Queries) (HomePage, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Home")
	defer span.End()

	current, err := q.CurrentSeason(ctx)
	if err != nil {
		return HomePage{}, fmt.Errorf("load current season: %w", err)
	}

	var (
		fixtures pagination.Page[fixture.Fixture]
		teams    []team.Team
	)
	p := s.sections(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		fixtures, err = q.Fixtures(ctx, gameweekQuery(current.Season, current.Gameweek, 0))
		if err != nil {
			return fmt.Errorf("load gameweek fixtures: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		teams, err = q.TeamsBySeason(ctx, current.Season)
		if err != nil {
			return fmt.Errorf("load season teams: %w", err)
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return HomePage{}, err
	}

	return HomePage{
		Current:  current,
		Fixtures: fixtures.Items,
		Teams:    len(teams),
	}, nil
}

// ResolveFilter fills season and gameweek from the current season when either
// is missing.
func (s *DashboardService) ResolveFilter(ctx context.Context, q *Queries, filter FixturesFilter) (FixturesFilter, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.ResolveFilter")
	defer span.End()

	if filter.Season != "" && !filter.Season.Valid() {
		return FixturesFilter{}, fmt.Errorf("%w: %w", ErrInvalidInput, season.ErrUnknownSeason)
	}
	if filter.Gameweek < 0 || filter.Gameweek > season.MaxGameweek {
		return FixturesFilter{}, fmt.Errorf("%w: gameweek must be between 1 and %d", ErrInvalidInput, season.MaxGameweek)
	}
	if filter.Season != "" && filter.Gameweek != 0 {
		return filter, nil
	}

	current, err := q.CurrentSeason(ctx)
	if err != nil {
		return FixturesFilter{}, fmt.Errorf("load current season: %w", err)
	}
	filter.Season = current.Season
	filter.Gameweek = current.Gameweek
	return filter, nil
}

func (s *DashboardService) Fixtures(ctx context.Context, q *Queries, filter FixturesFilter) (FixturesPage, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Fixtures")
	defer span.End()

	filter, err := s.ResolveFilter(ctx, q, filter)
	if err != nil {
		return FixturesPage{}, err
	}

	var (
		fixtures pagination.Page[fixture.Fixture]
		teams    []team.Team
	)
	p := s.sections(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		fixtures, err = q.Fixtures(ctx, gameweekQuery(filter.Season, filter.Gameweek, filter.TeamID))
		if err != nil {
			return fmt.Errorf("load fixtures: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		teams, err = q.TeamsBySeason(ctx, filter.Season)
		if err != nil {
			return fmt.Errorf("load season teams: %w", err)
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return FixturesPage{}, err
	}

	return FixturesPage{
		Filter:  filter,
		Groups:  fixture.GroupByDate(fixtures.Items),
		Teams:   sortedTeams(teams),
		Seasons: season.All(),
	}, nil
}

func (s *DashboardService) Results(ctx context.Context, q *Queries, filter FixturesFilter) (ResultsPage, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Results")
	defer span.End()

	filter, err := s.ResolveFilter(ctx, q, filter)
	if err != nil {
		return ResultsPage{}, err
	}

	fixtures, err := q.Fixtures(ctx, gameweekQuery(filter.Season, filter.Gameweek, filter.TeamID))
	if err != nil {
		return ResultsPage{}, fmt.Errorf("load results: %w", err)
	}

	completed := 0
	for _, f := range fixtures.Items {
		if f.Played() {
			completed++
		}
	}

	return ResultsPage{
		Filter:    filter,
		Fixtures:  fixtures.Items,
		Completed: completed,
	}, nil
}

func (s *DashboardService) Teams(ctx context.Context, q *Queries, selected season.Season) (TeamsPage, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Teams")
	defer span.End()

	if selected == "" {
		current, err := q.CurrentSeason(ctx)
		if err != nil {
			return TeamsPage{}, fmt.Errorf("load current season: %w", err)
		}
		selected = current.Season
	}

	teams, err := q.TeamsBySeason(ctx, selected)
	if err != nil {
		return TeamsPage{}, fmt.Errorf("load teams: %w", err)
	}
	return TeamsPage{Season: selected, Teams: sortedTeams(teams)}, nil
}

func (s *DashboardService) Team(ctx context.Context, q *Queries, teamID int64, selected season.Season) (TeamPage, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Team")
	defer span.End()

	if teamID <= 0 {
		return TeamPage{}, fmt.Errorf("%w: team id must be positive", ErrInvalidInput)
	}
	if selected == "" {
		current, err := q.CurrentSeason(ctx)
		if err != nil {
			return TeamPage{}, fmt.Errorf("load current season: %w", err)
		}
		selected = current.Season
	}

	var (
		profile   team.Team
		fixtures  pagination.Page[fixture.Fixture]
		forecasts pagination.Page[forecast.MatchForecast]
	)
	p := s.sections(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		profile, err = q.Team(ctx, teamID)
		if err != nil {
			return fmt.Errorf("load team %d: %w", teamID, err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		fixtures, err = q.Fixtures(ctx, fixture.Query{
			Season: selected,
			TeamID: teamID,
			Query:  pagination.Query{SortBy: "date", SortDesc: false, PageSize: seasonPageSize},
		})
		if err != nil {
			return fmt.Errorf("load team fixtures: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		forecasts, err = q.FixtureForecasts(ctx, forecast.Query{
			Season: selected,
			TeamID: teamID,
			Query:  pagination.Query{SortDesc: true, PageSize: seasonPageSize},
		})
		if err != nil {
			// Forecasts are optional decoration on the upcoming list.
			s.logger.WarnContext(ctx, "load team forecasts failed", "team_id", teamID, "season", selected.String(), "error", err)
			forecasts = pagination.Page[forecast.MatchForecast]{}
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return TeamPage{}, err
	}

	byFixture := make(map[int64]forecast.MatchForecast, len(forecasts.Items))
	for _, item := range forecasts.Items {
		byFixture[item.FixtureID] = item
	}

	return TeamPage{
		Team:     profile,
		Season:   selected,
		BadgeURL: team.BadgeURL(s.cfg.AssetBucketURL, profile.ID),
		Form:     recentForm(fixtures.Items, teamID, teamFormSize),
		Upcoming: upcoming(fixtures.Items, byFixture, teamUpcomingSize),
	}, nil
}

func (s *DashboardService) SignIn(ctx context.Context, redirectTo string) SignInPage {
	_, span := startUsecaseSpan(ctx, "usecase.DashboardService.SignIn")
	defer span.End()

	redirectTo = strings.TrimSpace(redirectTo)
	if !strings.HasPrefix(redirectTo, "/") || strings.HasPrefix(redirectTo, "//") {
		redirectTo = s.cfg.DashboardRoot
	}

	return SignInPage{
		Provider:   s.cfg.IdentityProvider,
		RedirectTo: redirectTo,
	}
}

func (s *DashboardService) sections(ctx context.Context) *pool.ContextPool {
	return pool.New().
		WithMaxGoroutines(s.cfg.MaxSections).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
}

func gameweekQuery(selected season.Season, gameweek int, teamID int64) fixture.Query {
	return fixture.Query{
		Season:   selected,
		Gameweek: gameweek,
		TeamID:   teamID,
		Query:    pagination.Query{SortBy: "date", SortDesc: false, PageSize: gameweekPageSize},
	}
}

// recentForm returns the last limit played fixtures for teamID in
// chronological order.
func recentForm(fixtures []fixture.Fixture, teamID int64, limit int) []FormEntry {
	played := make([]fixture.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		if f.Played() && f.Involves(teamID) {
			played = append(played, f)
		}
	}
	sortChronological(played)
	if len(played) > limit {
		played = played[len(played)-limit:]
	}

	out := make([]FormEntry, 0, len(played))
	for _, f := range played {
		scored, conceded, _ := f.GoalsFor(teamID)
		outcome, _ := f.OutcomeFor(teamID)
		opponent, home, _ := f.Opponent(teamID)
		gameweek := 0
		if f.Gameweek != nil {
			gameweek = *f.Gameweek
		}
		out = append(out, FormEntry{
			FixtureID:    f.ID,
			Gameweek:     gameweek,
			Date:         f.Date,
			Opponent:     opponent,
			Home:         home,
			GoalsFor:     scored,
			GoalsAgainst: conceded,
			Outcome:      outcome,
		})
	}
	return out
}

func upcoming(fixtures []fixture.Fixture, forecasts map[int64]forecast.MatchForecast, limit int) []fixture.Fixture {
	out := make([]fixture.Fixture, 0, limit)
	pending := make([]fixture.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		if !f.Played() {
			pending = append(pending, f)
		}
	}
	sortChronological(pending)
	for _, f := range pending {
		if len(out) == limit {
			break
		}
		if fc, ok := forecasts[f.ID]; ok {
			fc := fc
			f.Forecast = &fc
		}
		out = append(out, f)
	}
	return out
}

// sortChronological orders by kickoff, then gameweek. Undated fixtures go last.
func sortChronological(fixtures []fixture.Fixture) {
	sort.SliceStable(fixtures, func(i, j int) bool {
		a, b := fixtures[i], fixtures[j]
		switch {
		case a.Date != nil && b.Date != nil:
			return a.Date.Before(*b.Date)
		case a.Date != nil:
			return true
		case b.Date != nil:
			return false
		}
		return gameweekOf(a) < gameweekOf(b)
	})
}

func gameweekOf(f fixture.Fixture) int {
	if f.Gameweek == nil {
		return season.MaxGameweek + 1
	}
	return *f.Gameweek
}

// sortedTeams returns a sorted copy; memoised slices are shared within a request.
func sortedTeams(teams []team.Team) []team.Team {
	out := append([]team.Team(nil), teams...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
