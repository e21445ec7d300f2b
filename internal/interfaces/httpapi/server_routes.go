package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /readyz", handler.Readyz)
}

func registerDashboardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /dashboard", handler.DashboardHome)
	mux.HandleFunc("GET /dashboard/{$}", handler.DashboardHome)
	mux.HandleFunc("GET /dashboard/fixtures", handler.DashboardFixtures)
	mux.HandleFunc("GET /dashboard/results", handler.DashboardResults)
	mux.HandleFunc("GET /dashboard/teams", handler.DashboardTeams)
	mux.HandleFunc("GET /dashboard/teams/{teamID}", handler.DashboardTeam)
	mux.HandleFunc("GET /dashboard/sign-in", handler.DashboardSignIn)
	// Browser calls from dashboard pages to the football API.
	mux.HandleFunc("GET /dashboard/api/{path...}", handler.DashboardAPIProxy)
	mux.HandleFunc("/dashboard/", handler.DashboardNotFound)
}

func registerWebsiteRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /website", handler.WebsitePage)
	mux.HandleFunc("GET /website/{$}", handler.WebsitePage)
	mux.HandleFunc("GET /website/{page}", handler.WebsitePage)
}
