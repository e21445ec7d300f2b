package season

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Season is a four digit code such as "2324" for the 2023/24 campaign.
type Season string

var ErrUnknownSeason = errors.New("unknown season")

// MaxGameweek is the number of gameweeks in a league season.
const MaxGameweek = 38

var known = []Season{
	"1516", "1617", "1718", "1819", "1920", "2021", "2122", "2223", "2324",
}

var knownSet = func() map[Season]struct{} {
	out := make(map[Season]struct{}, len(known))
	for _, s := range known {
		out[s] = struct{}{}
	}
	return out
}()

// Current is the season and gameweek the football API treats as live.
type Current struct {
	Season   Season
	Gameweek int
}

func Parse(raw string) (Season, error) {
	s := Season(strings.TrimSpace(raw))
	if _, ok := knownSet[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSeason, raw)
	}
	return s, nil
}

func (s Season) Valid() bool {
	_, ok := knownSet[s]
	return ok
}

func (s Season) String() string {
	return string(s)
}

// StartYear returns the calendar year the season starts in ("1819" -> 2018).
func (s Season) StartYear() int {
	if len(s) != 4 {
		return 0
	}
	yy, err := strconv.Atoi(string(s[:2]))
	if err != nil {
		return 0
	}
	return 2000 + yy
}

func (s Season) Next() Season {
	return fromStartYear(s.StartYear() + 1)
}

func (s Season) Previous() Season {
	return fromStartYear(s.StartYear() - 1)
}

// Label renders "2324" as "2023/24".
func (s Season) Label() string {
	start := s.StartYear()
	if start == 0 {
		return string(s)
	}
	return fmt.Sprintf("%d/%s", start, s[2:])
}

// All returns the known seasons, newest first.
func All() []Season {
	out := make([]Season, len(known))
	for i, s := range known {
		out[len(known)-1-i] = s
	}
	return out
}

func fromStartYear(year int) Season {
	return Season(fmt.Sprintf("%02d%02d", year%100, (year+1)%100))
}
