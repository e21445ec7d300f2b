package footballapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/fixture"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/forecast"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/pagination"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/season"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/team"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type currentSeasonDTO struct {
	Season   string `json:"season" validate:"required,len=4,numeric"`
	Gameweek int    `json:"gameweek" validate:"gte=1,lte=38"`
}

type teamDTO struct {
	ID        int64  `json:"id" validate:"gt=0"`
	Tricode   string `json:"tricode" validate:"required,max=8"`
	Name      string `json:"name" validate:"required"`
	ShortName string `json:"short_name"`
}

type resultDTO struct {
	HomeScore int `json:"home_score" validate:"gte=0"`
	AwayScore int `json:"away_score" validate:"gte=0"`
}

type fixtureDTO struct {
	FixtureID int64      `json:"fixture_id" validate:"gt=0"`
	Date      *string    `json:"date"`
	Gameweek  *int       `json:"gameweek" validate:"omitempty,gte=1,lte=38"`
	Season    string     `json:"season" validate:"required,len=4,numeric"`
	HomeTeam  teamDTO    `json:"home_team"`
	AwayTeam  teamDTO    `json:"away_team"`
	Result    *resultDTO `json:"result"`
}

type fixturePageDTO struct {
	Total      int          `json:"total" validate:"gte=0"`
	Page       int          `json:"page" validate:"gte=0"`
	PageSize   int          `json:"page_size" validate:"gte=0"`
	TotalPages int          `json:"total_pages" validate:"gte=0"`
	Items      []fixtureDTO `json:"items" validate:"dive"`
}

type forecastDTO struct {
	FixtureID      int64   `json:"fixture_id" validate:"gt=0"`
	HomeWin        float64 `json:"home_win" validate:"gte=0,lte=1"`
	AwayWin        float64 `json:"away_win" validate:"gte=0,lte=1"`
	HomeCleanSheet float64 `json:"home_clean_sheet" validate:"gte=0,lte=1"`
	AwayCleanSheet float64 `json:"away_clean_sheet" validate:"gte=0,lte=1"`
	HomeGoalsFor   float64 `json:"home_goals_for" validate:"gte=0"`
	AwayGoalsFor   float64 `json:"away_goals_for" validate:"gte=0"`
	HomeAttack     float64 `json:"home_attack"`
	AwayAttack     float64 `json:"away_attack"`
	HomeDefence    float64 `json:"home_defence"`
	AwayDefence    float64 `json:"away_defence"`
}

type forecastPageDTO struct {
	Total      int           `json:"total" validate:"gte=0"`
	Page       int           `json:"page" validate:"gte=0"`
	PageSize   int           `json:"page_size" validate:"gte=0"`
	TotalPages int           `json:"total_pages" validate:"gte=0"`
	Items      []forecastDTO `json:"items" validate:"dive"`
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func validatePayload(v *validator.Validate, payload any) error {
	if err := v.Struct(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func validateList[T any](v *validator.Validate, items []T) error {
	for i := range items {
		if err := v.Struct(items[i]); err != nil {
			return fmt.Errorf("%w: item %d: %v", ErrInvalidPayload, i, err)
		}
	}
	return nil
}

func (d currentSeasonDTO) toDomain() season.Current {
	return season.Current{Season: season.Season(d.Season), Gameweek: d.Gameweek}
}

func (d teamDTO) toDomain() team.Team {
	return team.Team{
		ID:        d.ID,
		Tricode:   strings.ToUpper(strings.TrimSpace(d.Tricode)),
		Name:      strings.TrimSpace(d.Name),
		ShortName: strings.TrimSpace(d.ShortName),
	}
}

func (d fixtureDTO) toDomain() (fixture.Fixture, error) {
	out := fixture.Fixture{
		ID:       d.FixtureID,
		Season:   season.Season(d.Season),
		HomeTeam: d.HomeTeam.toDomain(),
		AwayTeam: d.AwayTeam.toDomain(),
	}
	if d.Gameweek != nil {
		gameweek := *d.Gameweek
		out.Gameweek = &gameweek
	}
	if d.Date != nil && strings.TrimSpace(*d.Date) != "" {
		kickoff, err := parseDate(*d.Date)
		if err != nil {
			return fixture.Fixture{}, fmt.Errorf("%w: fixture %d: %v", ErrInvalidPayload, d.FixtureID, err)
		}
		out.Date = &kickoff
	}
	if d.Result != nil {
		out.Result = &fixture.Result{HomeScore: d.Result.HomeScore, AwayScore: d.Result.AwayScore}
	}
	return out, nil
}

func (d fixturePageDTO) toDomain() (pagination.Page[fixture.Fixture], error) {
	items := make([]fixture.Fixture, 0, len(d.Items))
	for _, item := range d.Items {
		mapped, err := item.toDomain()
		if err != nil {
			return pagination.Page[fixture.Fixture]{}, err
		}
		items = append(items, mapped)
	}
	return pagination.Page[fixture.Fixture]{
		Total:      d.Total,
		Page:       d.Page,
		PageSize:   d.PageSize,
		TotalPages: d.TotalPages,
		Items:      items,
	}, nil
}

func (d forecastDTO) toDomain() forecast.MatchForecast {
	return forecast.MatchForecast{
		FixtureID: d.FixtureID,
		Home:      forecast.NewTeamForecast(true, d.HomeWin, d.HomeCleanSheet, d.HomeGoalsFor, d.HomeAttack, d.HomeDefence),
		Away:      forecast.NewTeamForecast(false, d.AwayWin, d.AwayCleanSheet, d.AwayGoalsFor, d.AwayAttack, d.AwayDefence),
	}
}

func (d forecastPageDTO) toDomain() pagination.Page[forecast.MatchForecast] {
	items := make([]forecast.MatchForecast, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, item.toDomain())
	}
	return pagination.Page[forecast.MatchForecast]{
		Total:      d.Total,
		Page:       d.Page,
		PageSize:   d.PageSize,
		TotalPages: d.TotalPages,
		Items:      items,
	}
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date %q", value)
}
