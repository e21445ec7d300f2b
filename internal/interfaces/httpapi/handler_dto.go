package httpapi

import (
	"time"

	"github.com/riskibarqy/kickoff-dashboard/internal/domain/fixture"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/forecast"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/season"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/team"
	"github.com/riskibarqy/kickoff-dashboard/internal/usecase"
)

type teamDTO struct {
	ID        int64  `json:"id"`
	Tricode   string `json:"tricode"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

type resultDTO struct {
	HomeScore int `json:"homeScore"`
	AwayScore int `json:"awayScore"`
}

type teamForecastDTO struct {
	Win        float64 `json:"win"`
	CleanSheet float64 `json:"cleanSheet"`
	GoalsFor   float64 `json:"goalsFor"`
	Attack     float64 `json:"attack"`
	Defence    float64 `json:"defence"`
}

type forecastDTO struct {
	Home teamForecastDTO `json:"home"`
	Away teamForecastDTO `json:"away"`
	Draw float64         `json:"draw"`
}

type fixtureDTO struct {
	ID       int64        `json:"id"`
	Date     *time.Time   `json:"date,omitempty"`
	Gameweek *int         `json:"gameweek,omitempty"`
	Season   string       `json:"season"`
	HomeTeam teamDTO      `json:"homeTeam"`
	AwayTeam teamDTO      `json:"awayTeam"`
	Score    string       `json:"score"`
	Result   *resultDTO   `json:"result,omitempty"`
	Forecast *forecastDTO `json:"forecast,omitempty"`
}

type dateGroupDTO struct {
	Date     string       `json:"date"`
	Fixtures []fixtureDTO `json:"fixtures"`
}

type seasonDTO struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type filterDTO struct {
	Season   string `json:"season"`
	Gameweek int    `json:"gameweek"`
	TeamID   int64  `json:"teamId,omitempty"`
}

type homePageDTO struct {
	Season   seasonDTO    `json:"season"`
	Gameweek int          `json:"gameweek"`
	Teams    int          `json:"teams"`
	Fixtures []fixtureDTO `json:"fixtures"`
}

type fixturesPageDTO struct {
	Filter  filterDTO      `json:"filter"`
	Groups  []dateGroupDTO `json:"groups"`
	Teams   []teamDTO      `json:"teams"`
	Seasons []seasonDTO    `json:"seasons"`
}

type resultsPageDTO struct {
	Filter    filterDTO    `json:"filter"`
	Fixtures  []fixtureDTO `json:"fixtures"`
	Completed int          `json:"completed"`
}

type teamsPageDTO struct {
	Season seasonDTO `json:"season"`
	Teams  []teamDTO `json:"teams"`
}

type formEntryDTO struct {
	FixtureID    int64      `json:"fixtureId"`
	Gameweek     int        `json:"gameweek"`
	Date         *time.Time `json:"date,omitempty"`
	Opponent     teamDTO    `json:"opponent"`
	Venue        string     `json:"venue"`
	GoalsFor     int        `json:"goalsFor"`
	GoalsAgainst int        `json:"goalsAgainst"`
	Outcome      string     `json:"outcome"`
}

type teamPageDTO struct {
	Team     teamDTO        `json:"team"`
	Season   seasonDTO      `json:"season"`
	BadgeURL string         `json:"badgeUrl"`
	Form     []formEntryDTO `json:"form"`
	Upcoming []fixtureDTO   `json:"upcoming"`
}

type signInPageDTO struct {
	Provider   string `json:"provider"`
	RedirectTo string `json:"redirectTo"`
}

type websitePageDTO struct {
	Page         string `json:"page"`
	Title        string `json:"title"`
	DashboardURL string `json:"dashboardUrl"`
}

type readinessDTO struct {
	Status string             `json:"status"`
	Probes []readinessProbeDTO `json:"probes"`
}

type readinessProbeDTO struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

func toTeamDTO(t team.Team) teamDTO {
	return teamDTO{
		ID:        t.ID,
		Tricode:   t.Tricode,
		Name:      t.Name,
		ShortName: t.DisplayName(),
	}
}

func toTeamDTOs(items []team.Team) []teamDTO {
	out := make([]teamDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toTeamDTO(item))
	}
	return out
}

func toSeasonDTO(s season.Season) seasonDTO {
	return seasonDTO{Code: s.String(), Label: s.Label()}
}

func toSeasonDTOs(items []season.Season) []seasonDTO {
	out := make([]seasonDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toSeasonDTO(item))
	}
	return out
}

func toFilterDTO(f usecase.FixturesFilter) filterDTO {
	return filterDTO{Season: f.Season.String(), Gameweek: f.Gameweek, TeamID: f.TeamID}
}

func toForecastDTO(m *forecast.MatchForecast) *forecastDTO {
	if m == nil {
		return nil
	}
	side := func(t forecast.TeamForecast) teamForecastDTO {
		return teamForecastDTO{
			Win:        t.Win,
			CleanSheet: t.CleanSheet,
			GoalsFor:   t.GoalsFor,
			Attack:     t.Attack,
			Defence:    t.Defence,
		}
	}
	return &forecastDTO{Home: side(m.Home), Away: side(m.Away), Draw: m.DrawProbability()}
}

func toFixtureDTO(f fixture.Fixture) fixtureDTO {
	out := fixtureDTO{
		ID:       f.ID,
		Date:     f.Date,
		Gameweek: f.Gameweek,
		Season:   f.Season.String(),
		HomeTeam: toTeamDTO(f.HomeTeam),
		AwayTeam: toTeamDTO(f.AwayTeam),
		Score:    f.ScoreText(),
		Forecast: toForecastDTO(f.Forecast),
	}
	if f.Result != nil {
		out.Result = &resultDTO{HomeScore: f.Result.HomeScore, AwayScore: f.Result.AwayScore}
	}
	return out
}

func toFixtureDTOs(items []fixture.Fixture) []fixtureDTO {
	out := make([]fixtureDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toFixtureDTO(item))
	}
	return out
}

func toDateGroupDTOs(groups []fixture.DateGroup) []dateGroupDTO {
	out := make([]dateGroupDTO, 0, len(groups))
	for _, group := range groups {
		out = append(out, dateGroupDTO{Date: group.Date, Fixtures: toFixtureDTOs(group.Fixtures)})
	}
	return out
}

func toFormEntryDTOs(items []usecase.FormEntry) []formEntryDTO {
	out := make([]formEntryDTO, 0, len(items))
	for _, item := range items {
		venue := "A"
		if item.Home {
			venue = "H"
		}
		out = append(out, formEntryDTO{
			FixtureID:    item.FixtureID,
			Gameweek:     item.Gameweek,
			Date:         item.Date,
			Opponent:     toTeamDTO(item.Opponent),
			Venue:        venue,
			GoalsFor:     item.GoalsFor,
			GoalsAgainst: item.GoalsAgainst,
			Outcome:      string(item.Outcome),
		})
	}
	return out
}

func toReadinessDTO(report usecase.ReadinessReport) readinessDTO {
	status := "ready"
	if !report.Ready {
		status = "not_ready"
	}
	probes := make([]readinessProbeDTO, 0, len(report.Probes))
	for _, probe := range report.Probes {
		probes = append(probes, readinessProbeDTO{
			Name:       probe.Name,
			OK:         probe.OK,
			Error:      probe.Error,
			DurationMs: probe.DurationMs,
		})
	}
	return readinessDTO{Status: status, Probes: probes}
}
