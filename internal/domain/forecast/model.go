package forecast

import (
	"math"

	"github.com/riskibarqy/kickoff-dashboard/internal/domain/pagination"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/season"
)

// TeamForecast is one side of a match forecast. Probabilities and strengths
// are rounded to three decimals.
type TeamForecast struct {
	WasHome    bool
	Win        float64
	CleanSheet float64
	GoalsFor   float64
	Attack     float64
	Defence    float64
}

// MatchForecast pairs both sides of a fixture.
type MatchForecast struct {
	FixtureID int64
	Home      TeamForecast
	Away      TeamForecast
}

type Query struct {
	Season   season.Season
	Gameweek int
	TeamID   int64
	Date     string
	pagination.Query
}

func NewTeamForecast(wasHome bool, win, cleanSheet, goalsFor, attack, defence float64) TeamForecast {
	return TeamForecast{
		WasHome:    wasHome,
		Win:        Round3(win),
		CleanSheet: Round3(cleanSheet),
		GoalsFor:   Round3(goalsFor),
		Attack:     Round3(attack),
		Defence:    Round3(defence),
	}
}

func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// DrawProbability is whatever probability mass neither side wins with.
func (m MatchForecast) DrawProbability() float64 {
	return Round3(math.Max(0, 1-m.Home.Win-m.Away.Win))
}
