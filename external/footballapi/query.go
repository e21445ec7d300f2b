package footballapi

import (
	"net/url"
	"strconv"

	"github.com/riskibarqy/kickoff-dashboard/internal/domain/fixture"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/forecast"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/pagination"
	"github.com/valyala/bytebufferpool"
)

type queryParam struct {
	key   string
	value string
}

// queryParams keeps insertion order so request URLs are stable in logs and tests.
type queryParams []queryParam

// add skips empty values; the upstream treats "" as a filter, not as absent.
func (q queryParams) add(key, value string) queryParams {
	if value == "" {
		return q
	}
	return append(q, queryParam{key: key, value: value})
}

func (q queryParams) addInt(key string, value int) queryParams {
	if value == 0 {
		return q
	}
	return q.add(key, strconv.Itoa(value))
}

func (q queryParams) addInt64(key string, value int64) queryParams {
	if value == 0 {
		return q
	}
	return q.add(key, strconv.FormatInt(value, 10))
}

func (q queryParams) addPagination(p pagination.Query) queryParams {
	q = q.add("sort_by", p.SortBy)
	q = q.add("sort_desc", strconv.FormatBool(p.SortDesc))
	q = q.add("page", strconv.Itoa(p.Page))
	return q.add("page_size", strconv.Itoa(p.PageSize))
}

func fixtureParams(query fixture.Query) queryParams {
	var q queryParams
	q = q.add("season", query.Season.String())
	q = q.addInt("gameweek", query.Gameweek)
	q = q.add("date", query.Date)
	q = q.addInt64("team_id", query.TeamID)
	return q.addPagination(query.Query.Normalize())
}

func forecastParams(query forecast.Query) queryParams {
	var q queryParams
	q = q.add("season", query.Season.String())
	q = q.addInt("gameweek", query.Gameweek)
	q = q.addInt64("team", query.TeamID)
	q = q.add("date", query.Date)
	return q.addPagination(query.Query.Normalize())
}

// buildURL joins base, path and the encoded params. rawQuery, when set, is
// appended verbatim after the params.
func buildURL(baseURL, path string, params queryParams, rawQuery string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(baseURL)
	_, _ = buf.WriteString(path)

	sep := byte('?')
	for _, p := range params {
		_ = buf.WriteByte(sep)
		sep = '&'
		_, _ = buf.WriteString(url.QueryEscape(p.key))
		_ = buf.WriteByte('=')
		_, _ = buf.WriteString(url.QueryEscape(p.value))
	}
	if rawQuery != "" {
		_ = buf.WriteByte(sep)
		_, _ = buf.WriteString(rawQuery)
	}
	return buf.String()
}
