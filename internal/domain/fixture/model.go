package fixture

import (
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/kickoff-dashboard/internal/domain/forecast"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/pagination"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/season"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/team"
)

const (
	// UnknownDate groups fixtures whose kickoff has not been scheduled.
	UnknownDate = "Unknown Date"
	dateLayout  = "2006-01-02"
)

// Fixture represents one scheduled match. Date and Gameweek are nil until the
// league confirms them; Result is nil until the match has been played.
type Fixture struct {
	ID       int64
	Date     *time.Time
	Gameweek *int
	Season   season.Season
	HomeTeam team.Team
	AwayTeam team.Team
	Result   *Result
	Forecast *forecast.MatchForecast
}

type Result struct {
	HomeScore int
	AwayScore int
}

type Outcome string

const (
	OutcomeWin  Outcome = "W"
	OutcomeDraw Outcome = "D"
	OutcomeLoss Outcome = "L"
)

// Query filters the fixtures collection. Zero values mean "no filter".
type Query struct {
	Season   season.Season
	Gameweek int
	TeamID   int64
	Date     string
	pagination.Query
}

// ScoreText renders "<home> - <away>" for played fixtures and "v" otherwise.
func (f Fixture) ScoreText() string {
	if f.Result == nil {
		return "v"
	}
	return fmt.Sprintf("%d - %d", f.Result.HomeScore, f.Result.AwayScore)
}

func (f Fixture) Played() bool {
	return f.Result != nil
}

func (f Fixture) Involves(teamID int64) bool {
	return f.HomeTeam.ID == teamID || f.AwayTeam.ID == teamID
}

// GoalsFor returns goals scored and conceded by teamID. ok is false when the
// fixture is unplayed or teamID did not take part.
func (f Fixture) GoalsFor(teamID int64) (scored, conceded int, ok bool) {
	if f.Result == nil {
		return 0, 0, false
	}
	switch teamID {
	case f.HomeTeam.ID:
		return f.Result.HomeScore, f.Result.AwayScore, true
	case f.AwayTeam.ID:
		return f.Result.AwayScore, f.Result.HomeScore, true
	default:
		return 0, 0, false
	}
}

func (f Fixture) OutcomeFor(teamID int64) (Outcome, bool) {
	scored, conceded, ok := f.GoalsFor(teamID)
	if !ok {
		return "", false
	}
	switch {
	case scored > conceded:
		return OutcomeWin, true
	case scored < conceded:
		return OutcomeLoss, true
	default:
		return OutcomeDraw, true
	}
}

// Opponent returns the other side of the fixture from teamID's perspective
// and whether teamID played at home.
func (f Fixture) Opponent(teamID int64) (opponent team.Team, home bool, ok bool) {
	switch teamID {
	case f.HomeTeam.ID:
		return f.AwayTeam, true, true
	case f.AwayTeam.ID:
		return f.HomeTeam, false, true
	default:
		return team.Team{}, false, false
	}
}

// DateKey is the calendar date used to group fixtures on list pages.
func (f Fixture) DateKey() string {
	if f.Date == nil {
		return UnknownDate
	}
	return f.Date.UTC().Format(dateLayout)
}

// DateGroup is a set of fixtures kicking off on the same calendar date.
type DateGroup struct {
	Date     string
	Fixtures []Fixture
}

// GroupByDate groups fixtures by calendar date in ascending order. Fixtures
// without a date are collected in a trailing UnknownDate group. Order inside a
// group follows kickoff time, then input order.
func GroupByDate(fixtures []Fixture) []DateGroup {
	byDate := make(map[string][]Fixture)
	keys := make([]string, 0)
	for _, f := range fixtures {
		key := f.DateKey()
		if _, ok := byDate[key]; !ok {
			keys = append(keys, key)
		}
		byDate[key] = append(byDate[key], f)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i] == UnknownDate {
			return false
		}
		if keys[j] == UnknownDate {
			return true
		}
		return keys[i] < keys[j]
	})

	out := make([]DateGroup, 0, len(keys))
	for _, key := range keys {
		items := byDate[key]
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Date == nil || items[j].Date == nil {
				return false
			}
			return items[i].Date.Before(*items[j].Date)
		})
		out = append(out, DateGroup{Date: key, Fixtures: items})
	}
	return out
}
