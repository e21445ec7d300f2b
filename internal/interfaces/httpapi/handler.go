package httpapi

import (
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/season"
)

var websitePages = map[string]string{
	"home":    "Kickoff",
	"pricing": "Pricing",
	"about":   "About",
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Readyz")
	defer span.End()

	report, err := h.readinessService.Check(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "readiness check failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if !report.Ready {
		status = http.StatusServiceUnavailable
	}
	writeSuccess(ctx, w, status, toReadinessDTO(report))
}

func (h *Handler) DashboardHome(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DashboardHome")
	defer span.End()

	page, err := h.dashboardService.Home(ctx, h.queries(r))
	if err != nil {
		h.logger.WarnContext(ctx, "load dashboard home failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, homePageDTO{
		Season:   toSeasonDTO(page.Current.Season),
		Gameweek: page.Current.Gameweek,
		Teams:    page.Teams,
		Fixtures: toFixtureDTOs(page.Fixtures),
	})
}

func (h *Handler) DashboardFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DashboardFixtures")
	defer span.End()

	query, err := h.parseFixturesQuery(r, []string{"gameweek", "gw"}, []string{"season", "s"})
	if err != nil {
		h.logger.WarnContext(ctx, "invalid fixtures query", "error", err)
		writeError(ctx, w, err)
		return
	}

	page, err := h.dashboardService.Fixtures(ctx, h.queries(r), query.filter())
	if err != nil {
		h.logger.WarnContext(ctx, "load fixtures page failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixturesPageDTO{
		Filter:  toFilterDTO(page.Filter),
		Groups:  toDateGroupDTOs(page.Groups),
		Teams:   toTeamDTOs(page.Teams),
		Seasons: toSeasonDTOs(page.Seasons),
	})
}

func (h *Handler) DashboardResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DashboardResults")
	defer span.End()

	query, err := h.parseFixturesQuery(r, []string{"gw", "gameweek"}, []string{"s", "season"})
	if err != nil {
		h.logger.WarnContext(ctx, "invalid results query", "error", err)
		writeError(ctx, w, err)
		return
	}

	page, err := h.dashboardService.Results(ctx, h.queries(r), query.filter())
	if err != nil {
		h.logger.WarnContext(ctx, "load results page failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resultsPageDTO{
		Filter:    toFilterDTO(page.Filter),
		Fixtures:  toFixtureDTOs(page.Fixtures),
		Completed: page.Completed,
	})
}

func (h *Handler) DashboardTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DashboardTeams")
	defer span.End()

	query := fixturesQuery{Season: firstParam(r, "season", "s")}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	page, err := h.dashboardService.Teams(ctx, h.queries(r), season.Season(query.Season))
	if err != nil {
		h.logger.WarnContext(ctx, "load teams page failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamsPageDTO{
		Season: toSeasonDTO(page.Season),
		Teams:  toTeamDTOs(page.Teams),
	})
}

func (h *Handler) DashboardTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DashboardTeam")
	defer span.End()

	teamID, err := parseOptionalInt64("team id", strings.TrimSpace(r.PathValue("teamID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query := fixturesQuery{Season: firstParam(r, "season", "s"), TeamID: teamID}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	page, err := h.dashboardService.Team(ctx, h.queries(r), query.TeamID, season.Season(query.Season))
	if err != nil {
		h.logger.WarnContext(ctx, "load team page failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamPageDTO{
		Team:     toTeamDTO(page.Team),
		Season:   toSeasonDTO(page.Season),
		BadgeURL: page.BadgeURL,
		Form:     toFormEntryDTOs(page.Form),
		Upcoming: toFixtureDTOs(page.Upcoming),
	})
}

func (h *Handler) DashboardSignIn(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DashboardSignIn")
	defer span.End()

	page := h.dashboardService.SignIn(ctx, r.URL.Query().Get("redirect"))
	writeSuccess(ctx, w, http.StatusOK, signInPageDTO{
		Provider:   page.Provider,
		RedirectTo: page.RedirectTo,
	})
}

// DashboardAPIProxy relays /dashboard/api/<path> to the football API's
// /api/<path> and copies status and body through untouched.
func (h *Handler) DashboardAPIProxy(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DashboardAPIProxy")
	defer span.End()

	path := r.PathValue("path")
	resp, err := h.footballAPI.Session(credentialsFromRequest(r)).Forward(ctx, path, r.URL.RawQuery)
	if err != nil {
		h.logger.WarnContext(ctx, "proxy football api failed", "path", path, "error", err)
		writeError(ctx, w, err)
		return
	}
	if len(resp.Body) > 0 && !sonic.Valid(resp.Body) {
		h.logger.WarnContext(ctx, "proxied body is not json", "path", path, "status", resp.Status)
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

func (h *Handler) DashboardNotFound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DashboardNotFound")
	defer span.End()

	writeNotFound(ctx, w, "page "+r.URL.Path)
}

func (h *Handler) WebsitePage(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WebsitePage")
	defer span.End()

	page := strings.ToLower(strings.TrimSpace(r.PathValue("page")))
	if page == "" {
		page = "home"
	}
	title, ok := websitePages[page]
	if !ok {
		writeNotFound(ctx, w, "page "+r.URL.Path)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, websitePageDTO{
		Page:         page,
		Title:        title,
		DashboardURL: h.dashboardURL,
	})
}

func (h *Handler) parseFixturesQuery(r *http.Request, gameweekKeys, seasonKeys []string) (fixturesQuery, error) {
	ctx := r.Context()

	gameweek, err := parseOptionalInt("gameweek", firstParam(r, gameweekKeys...))
	if err != nil {
		return fixturesQuery{}, err
	}
	teamID, err := parseOptionalInt64("team", firstParam(r, "team", "team_id"))
	if err != nil {
		return fixturesQuery{}, err
	}

	query := fixturesQuery{
		Season:   firstParam(r, seasonKeys...),
		Gameweek: gameweek,
		TeamID:   teamID,
	}
	if err := h.validateRequest(ctx, query); err != nil {
		return fixturesQuery{}, err
	}
	return query, nil
}
