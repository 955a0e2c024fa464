package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/{teamID}/results", handler.GetTeamResults)
	mux.HandleFunc("GET /v1/players/{licence}", handler.GetPlayerDetail)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/discovery", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunDiscovery)))
	mux.Handle("POST /v1/internal/players/resync", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunPlayerResync)))
}
