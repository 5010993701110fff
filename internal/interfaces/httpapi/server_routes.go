package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches", handler.ListMatches)
	mux.HandleFunc("GET /v1/gameweeks/current", handler.GetCurrentGameweek)
	mux.HandleFunc("GET /v1/leaderboard", handler.ListLeaderboard)

	mux.HandleFunc("POST /v1/bets", handler.PlaceBet)
	mux.HandleFunc("GET /v1/users/{fid}", handler.GetUserStats)
	mux.HandleFunc("PUT /v1/users/{fid}/title", handler.UpdateUserTitle)
	mux.HandleFunc("GET /v1/users/{fid}/bets", handler.ListUserBets)
	mux.HandleFunc("GET /v1/users/{fid}/results", handler.ListUserResults)

	mux.HandleFunc("POST /v1/frames", handler.HandleFrameAction)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/settlement", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSettlementJob)))
}
